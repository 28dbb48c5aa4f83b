package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
	"github.com/evanschultz/widgethub/internal/app"
	"github.com/evanschultz/widgethub/internal/domain"
)

// Service represents service data used by this package.
type Service interface {
	Board() domain.Board
	Revision() uint64
	AddWidget(context.Context, domain.WidgetKind) (domain.Board, domain.Widget, error)
	RemoveWidget(context.Context, string) (domain.Board, bool, error)
	SetWidgetHeight(context.Context, string, int) (domain.Board, error)
	SetWidgetPosition(context.Context, string, domain.PositionPreference) (domain.Board, error)
	UpdateWidgetSettings(context.Context, string, domain.Settings) (domain.Board, error)
	SetColumnWidth(context.Context, domain.ColumnID, int) (domain.Board, error)
	UpdatePreferences(context.Context, app.UpdatePreferencesInput) (domain.Board, error)
	ToggleEditing(context.Context) (domain.Board, error)
	ActiveDrag() (string, bool)
	BeginDrag(context.Context, string) error
	DragOver(context.Context, domain.DropTarget) (domain.Board, domain.DragOutcome)
	EndDrag(context.Context, domain.DropTarget) (domain.Board, domain.DragOutcome)
	CancelDrag(context.Context) domain.Board
	ExportSnapshot(context.Context) ([]byte, error)
	ListActivity(context.Context, int) ([]domain.ChangeEvent, error)
}

// inputMode describes input mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeAddWidget
	modeColumnWidth
	modeWidgetHeight
	modeWidgetSettings
	modePreferences
	modeActivity
)

const defaultActivityLimit = 20

// preference form fields, in focus order.
const (
	prefMaxPerColumn = iota
	prefBlur
	prefBackground
)

// Model represents model data used by this package.
type Model struct {
	svc Service

	ready  bool
	width  int
	height int
	err    error

	status string

	help help.Model
	keys keyMap

	board          domain.Board
	revision       uint64
	selectedColumn int
	selectedWidget int

	mode          inputMode
	pickerIndex   int
	modalInput    textinput.Model
	modalWidgetID string
	modalColumn   domain.ColumnID
	prefInputs    []textinput.Model
	prefFocus     int

	activity      []domain.ChangeEvent
	activityLimit int

	// dragByMouse is set while a pointer drag owns the active drag session.
	dragByMouse bool

	changes        <-chan struct{}
	writeClipboard func(string) error
	guide          *markdownRenderer
}

// boardLoadedMsg carries the service board into the model.
type boardLoadedMsg struct {
	board    domain.Board
	revision uint64
}

// boardChangedMsg signals that the service replaced its board.
type boardChangedMsg struct{}

// actionMsg carries message data through update handling.
type actionMsg struct {
	board         domain.Board
	hasBoard      bool
	revision      uint64
	status        string
	focusWidgetID string
	err           error
}

// activityLoadedMsg carries ledger entries for the activity panel.
type activityLoadedMsg struct {
	entries []domain.ChangeEvent
	err     error
}

// exportedMsg reports a clipboard export.
type exportedMsg struct {
	bytes int
	err   error
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:            svc,
		status:         "loading...",
		help:           h,
		keys:           newKeyMap(DefaultKeyConfig()),
		activityLimit:  defaultActivityLimit,
		writeClipboard: clipboard.WriteAll,
		guide:          &markdownRenderer{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	if m.changes == nil {
		return m.loadBoard
	}
	return tea.Batch(m.loadBoard, m.waitForChange())
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case boardLoadedMsg:
		m.err = nil
		m.applyBoard(msg.board, msg.revision)
		if m.status == "" || m.status == "loading..." {
			m.status = "ready"
		}
		return m, nil

	case boardChangedMsg:
		return m, tea.Batch(m.loadBoard, m.waitForChange())

	case actionMsg:
		if msg.err != nil {
			m.status = noticeFor(msg.err, m.board)
			return m, nil
		}
		if msg.hasBoard {
			m.applyBoard(msg.board, msg.revision)
		}
		if msg.focusWidgetID != "" {
			m.focusWidget(msg.focusWidgetID)
		}
		if msg.status != "" {
			m.status = msg.status
		}
		return m, nil

	case activityLoadedMsg:
		if msg.err != nil {
			m.status = "activity unavailable: " + msg.err.Error()
			return m, nil
		}
		m.activity = append([]domain.ChangeEvent(nil), msg.entries...)
		m.mode = modeActivity
		m.status = "activity"
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.status = "copy failed: " + msg.err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("copied board config to clipboard (%d bytes)", msg.bytes)
		return m, nil

	case tea.KeyPressMsg:
		if m.help.ShowAll {
			return m.handleHelpKey(msg)
		}
		if activeID, dragging := m.svc.ActiveDrag(); dragging {
			return m.handleDragKey(msg, activeID)
		}
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	default:
		return m, nil
	}
}

// loadBoard reads the current board from the service.
func (m Model) loadBoard() tea.Msg {
	return boardLoadedMsg{board: m.svc.Board(), revision: m.svc.Revision()}
}

// waitForChange blocks on the change feed and turns one receive into a reload.
func (m Model) waitForChange() tea.Cmd {
	ch := m.changes
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return boardChangedMsg{}
	}
}

// tuiContext tags mutations with the TUI source for the activity ledger.
func tuiContext() context.Context {
	return app.WithSource(context.Background(), app.SourceTUI)
}

// applyBoard replaces the rendered board unless a newer one is already shown.
func (m *Model) applyBoard(board domain.Board, revision uint64) {
	if revision < m.revision {
		return
	}
	m.board = board
	m.revision = revision
	m.clampSelection()
}

// syncBoard applies a board returned synchronously by the service.
func (m *Model) syncBoard(board domain.Board) {
	m.applyBoard(board, m.svc.Revision())
}

// clampSelection keeps the cursor on an existing column and widget.
func (m *Model) clampSelection() {
	ids := domain.ColumnIDs()
	m.selectedColumn = clamp(m.selectedColumn, 0, len(ids)-1)
	items := m.board.Column(ids[m.selectedColumn]).Items
	m.selectedWidget = clamp(m.selectedWidget, 0, max(0, len(items)-1))
}

// focusWidget moves the cursor onto widgetID when it is on the board.
func (m *Model) focusWidget(widgetID string) {
	colID, idx, ok := m.board.Locate(widgetID)
	if !ok {
		return
	}
	for ci, id := range domain.ColumnIDs() {
		if id == colID {
			m.selectedColumn = ci
			m.selectedWidget = idx
			return
		}
	}
}

// selectedColumnID returns the column under the cursor.
func (m Model) selectedColumnID() domain.ColumnID {
	ids := domain.ColumnIDs()
	return ids[clamp(m.selectedColumn, 0, len(ids)-1)]
}

// currentWidget returns the widget under the cursor.
func (m Model) currentWidget() (domain.Widget, bool) {
	items := m.board.Column(m.selectedColumnID()).Items
	if m.selectedWidget < 0 || m.selectedWidget >= len(items) {
		return domain.Widget{}, false
	}
	return items[m.selectedWidget], true
}

// requireEditing reports whether edit mode is on and sets a hint when it is not.
func (m *Model) requireEditing() bool {
	if m.board.IsEditing {
		return true
	}
	m.status = fmt.Sprintf("press %s to enter edit mode first", m.keys.toggleEdit.Help().Key)
	return false
}

// handleHelpKey handles keys while the help overlay is open.
func (m Model) handleHelpKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp), msg.String() == "esc", msg.String() == "q":
		m.help.ShowAll = false
	}
	return m, nil
}

// handleNormalModeKey handles normal mode key.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = true
		return m, nil

	case key.Matches(msg, m.keys.reload):
		m.status = "loading..."
		return m, m.loadBoard

	case key.Matches(msg, m.keys.moveLeft):
		m.selectedColumn--
		m.clampSelection()
		return m, nil

	case key.Matches(msg, m.keys.moveRight):
		m.selectedColumn++
		m.clampSelection()
		return m, nil

	case key.Matches(msg, m.keys.moveUp):
		m.selectedWidget--
		m.clampSelection()
		return m, nil

	case key.Matches(msg, m.keys.moveDown):
		m.selectedWidget++
		m.clampSelection()
		return m, nil

	case key.Matches(msg, m.keys.toggleEdit):
		return m, m.toggleEditing()

	case key.Matches(msg, m.keys.addWidget):
		m.mode = modeAddWidget
		m.pickerIndex = 0
		m.status = "add widget"
		return m, nil

	case key.Matches(msg, m.keys.removeWidget):
		if !m.requireEditing() {
			return m, nil
		}
		widget, ok := m.currentWidget()
		if !ok {
			m.status = "no widget selected"
			return m, nil
		}
		return m, m.removeWidget(widget)

	case key.Matches(msg, m.keys.grab):
		if !m.requireEditing() {
			return m, nil
		}
		widget, ok := m.currentWidget()
		if !ok {
			m.status = "no widget selected"
			return m, nil
		}
		if err := m.svc.BeginDrag(tuiContext(), widget.ID); err != nil {
			m.status = noticeFor(err, m.board)
			return m, nil
		}
		m.dragByMouse = false
		m.status = fmt.Sprintf("dragging %s: arrows move • enter drop • esc cancel", widget.Kind)
		return m, nil

	case key.Matches(msg, m.keys.columnWidth):
		col := m.board.Column(m.selectedColumnID())
		m.modalColumn = col.ID
		return m, m.openModal(modeColumnWidth, "width %: ", "0-100", strconv.Itoa(col.Width))

	case key.Matches(msg, m.keys.widgetHeight):
		if !m.requireEditing() {
			return m, nil
		}
		widget, ok := m.currentWidget()
		if !ok {
			m.status = "no widget selected"
			return m, nil
		}
		value := ""
		if widget.HasCustomHeight() {
			value = strconv.Itoa(widget.CustomHeight)
		}
		m.modalWidgetID = widget.ID
		return m, m.openModal(modeWidgetHeight, "height %: ", "0 clears, 1-100", value)

	case key.Matches(msg, m.keys.position):
		if !m.requireEditing() {
			return m, nil
		}
		widget, ok := m.currentWidget()
		if !ok {
			m.status = "no widget selected"
			return m, nil
		}
		return m, m.cyclePosition(widget)

	case key.Matches(msg, m.keys.settings):
		widget, ok := m.currentWidget()
		if !ok {
			m.status = "no widget selected"
			return m, nil
		}
		m.modalWidgetID = widget.ID
		return m, m.openModal(modeWidgetSettings, "set: ", "key=value", "")

	case key.Matches(msg, m.keys.preferences):
		return m, m.openPreferences()

	case key.Matches(msg, m.keys.activity):
		return m, m.loadActivity

	case key.Matches(msg, m.keys.export):
		m.status = "copying..."
		return m, m.exportToClipboard

	default:
		return m, nil
	}
}

// handleInputModeKey handles input mode key.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.mode {
	case modeActivity:
		if msg.String() == "esc" || msg.String() == "q" || key.Matches(msg, m.keys.activity) {
			m.mode = modeNone
			m.status = "ready"
		}
		return m, nil

	case modeAddWidget:
		kinds := domain.WidgetKinds()
		switch {
		case msg.String() == "esc":
			m.closeModal()
		case key.Matches(msg, m.keys.moveUp):
			m.pickerIndex = clamp(m.pickerIndex-1, 0, len(kinds)-1)
		case key.Matches(msg, m.keys.moveDown):
			m.pickerIndex = clamp(m.pickerIndex+1, 0, len(kinds)-1)
		case msg.String() == "enter":
			kind := kinds[clamp(m.pickerIndex, 0, len(kinds)-1)]
			m.closeModal()
			return m, m.addWidget(kind)
		}
		return m, nil

	case modePreferences:
		switch msg.String() {
		case "esc":
			m.closeModal()
			return m, nil
		case "tab", "down":
			return m, m.focusPreference(m.prefFocus + 1)
		case "shift+tab", "up":
			return m, m.focusPreference(m.prefFocus - 1)
		case "enter":
			return m.submitPreferences()
		}
		var cmd tea.Cmd
		m.prefInputs[m.prefFocus], cmd = m.prefInputs[m.prefFocus].Update(msg)
		return m, cmd

	default:
		switch msg.String() {
		case "esc":
			m.closeModal()
			return m, nil
		case "enter":
			return m.submitModal()
		}
		var cmd tea.Cmd
		m.modalInput, cmd = m.modalInput.Update(msg)
		return m, cmd
	}
}

// handleDragKey drives a drag session from the keyboard. Steps run inline so
// they reach the service in key order.
func (m Model) handleDragKey(msg tea.KeyPressMsg, activeID string) (tea.Model, tea.Cmd) {
	ctx := tuiContext()
	switch {
	case msg.String() == "ctrl+c":
		m.syncBoard(m.svc.CancelDrag(ctx))
		return m, tea.Quit

	case key.Matches(msg, m.keys.cancel):
		m.dragByMouse = false
		m.syncBoard(m.svc.CancelDrag(ctx))
		m.focusWidget(activeID)
		m.status = "drag cancelled"
		return m, nil

	case key.Matches(msg, m.keys.drop), key.Matches(msg, m.keys.grab):
		m.dragByMouse = false
		board, _ := m.svc.EndDrag(ctx, domain.WidgetTarget(activeID, false))
		m.syncBoard(board)
		m.focusWidget(activeID)
		m.status = "dropped"
		return m, nil

	case key.Matches(msg, m.keys.moveLeft):
		return m.dragStep(activeID, -1, 0)
	case key.Matches(msg, m.keys.moveRight):
		return m.dragStep(activeID, 1, 0)
	case key.Matches(msg, m.keys.moveUp):
		return m.dragStep(activeID, 0, -1)
	case key.Matches(msg, m.keys.moveDown):
		return m.dragStep(activeID, 0, 1)
	}
	return m, nil
}

// dragStep moves the active widget one column sideways or one slot vertically.
func (m Model) dragStep(activeID string, dx, dy int) (tea.Model, tea.Cmd) {
	target, ok := m.keyboardDragTarget(activeID, dx, dy)
	if !ok {
		return m, nil
	}
	board, outcome := m.svc.DragOver(tuiContext(), target)
	m.applyDragStep(board, outcome, activeID)
	return m, nil
}

// keyboardDragTarget picks the drop target one step away from the active widget.
// Sideways steps append to the neighbouring column.
func (m Model) keyboardDragTarget(activeID string, dx, dy int) (domain.DropTarget, bool) {
	colID, idx, ok := m.board.Locate(activeID)
	if !ok {
		return domain.DropTarget{}, false
	}
	ids := domain.ColumnIDs()
	ci := 0
	for i, id := range ids {
		if id == colID {
			ci = i
		}
	}
	switch {
	case dx != 0:
		next := ci + dx
		if next < 0 || next >= len(ids) {
			return domain.DropTarget{}, false
		}
		return domain.ColumnTarget(ids[next]), true
	case dy < 0:
		if idx == 0 {
			return domain.DropTarget{}, false
		}
		return domain.WidgetTarget(m.board.Column(colID).Items[idx-1].ID, false), true
	case dy > 0:
		items := m.board.Column(colID).Items
		if idx >= len(items)-1 {
			return domain.DropTarget{}, false
		}
		return domain.WidgetTarget(items[idx+1].ID, false), true
	}
	return domain.DropTarget{}, false
}

// applyDragStep renders one drag-over result.
func (m *Model) applyDragStep(board domain.Board, outcome domain.DragOutcome, activeID string) {
	m.syncBoard(board)
	m.focusWidget(activeID)
	switch outcome {
	case domain.DragRejectedFull:
		m.status = fmt.Sprintf("column full (max %d per column)", m.board.MaxWidgetsPerColumn)
	case domain.DragMoved:
		if widget, ok := m.board.Widget(activeID); ok {
			m.status = fmt.Sprintf("dragging %s", widget.Kind)
		}
	}
}

// handleMouseClick selects the clicked widget and, in edit mode, grabs it.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll || m.mode != modeNone || msg.Button != tea.MouseLeft {
		return m, nil
	}
	if _, dragging := m.svc.ActiveDrag(); dragging {
		return m, nil
	}
	colIdx, widgetIdx, ok := m.cellAt(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	m.selectedColumn = colIdx
	if widgetIdx < 0 {
		m.clampSelection()
		return m, nil
	}
	m.selectedWidget = widgetIdx
	if !m.board.IsEditing {
		return m, nil
	}
	widget, ok := m.currentWidget()
	if !ok {
		return m, nil
	}
	if err := m.svc.BeginDrag(tuiContext(), widget.ID); err != nil {
		m.status = noticeFor(err, m.board)
		return m, nil
	}
	m.dragByMouse = true
	m.status = fmt.Sprintf("dragging %s", widget.Kind)
	return m, nil
}

// handleMouseMotion reflows the board live while a pointer drag is active.
// Cells outside every column are ignored.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	activeID, dragging := m.svc.ActiveDrag()
	if !dragging || !m.dragByMouse {
		return m, nil
	}
	target, ok := m.dropTargetAt(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	board, outcome := m.svc.DragOver(tuiContext(), target)
	m.applyDragStep(board, outcome, activeID)
	return m, nil
}

// handleMouseRelease commits a pointer drag. Releasing outside the board keeps
// the position reached by the last drag-over.
func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	activeID, dragging := m.svc.ActiveDrag()
	if !dragging || !m.dragByMouse {
		return m, nil
	}
	m.dragByMouse = false
	target, ok := m.dropTargetAt(msg.X, msg.Y)
	if !ok {
		target = domain.WidgetTarget(activeID, false)
	}
	board, outcome := m.svc.EndDrag(tuiContext(), target)
	m.syncBoard(board)
	m.focusWidget(activeID)
	if outcome == domain.DragRejectedFull {
		m.status = fmt.Sprintf("column full (max %d per column)", m.board.MaxWidgetsPerColumn)
		return m, nil
	}
	m.status = "dropped"
	return m, nil
}

// handleMouseWheel moves the selection inside the current column.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll {
		return m, nil
	}
	if m.mode == modeAddWidget {
		switch msg.Button {
		case tea.MouseWheelUp:
			m.pickerIndex = clamp(m.pickerIndex-1, 0, len(domain.WidgetKinds())-1)
		case tea.MouseWheelDown:
			m.pickerIndex = clamp(m.pickerIndex+1, 0, len(domain.WidgetKinds())-1)
		}
		return m, nil
	}
	if m.mode != modeNone {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		m.selectedWidget--
	case tea.MouseWheelDown:
		m.selectedWidget++
	}
	m.clampSelection()
	return m, nil
}

// newModalInput constructs modal input.
func newModalInput(prompt, placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
	}
	return in
}

// openModal opens a single-input modal.
func (m *Model) openModal(mode inputMode, prompt, placeholder, value string) tea.Cmd {
	m.mode = mode
	m.modalInput = newModalInput(prompt, placeholder, value, 256)
	m.status = ""
	return m.modalInput.Focus()
}

// closeModal returns to normal mode.
func (m *Model) closeModal() {
	m.mode = modeNone
	m.modalWidgetID = ""
	m.modalColumn = ""
	m.prefInputs = nil
	m.prefFocus = 0
	m.status = "ready"
}

// openPreferences opens the board preferences form.
func (m *Model) openPreferences() tea.Cmd {
	m.mode = modePreferences
	m.prefInputs = []textinput.Model{
		newModalInput("", fmt.Sprintf("%d-%d", domain.MinWidgetsPerColumnLimit, domain.MaxWidgetsPerColumnLimit), strconv.Itoa(m.board.MaxWidgetsPerColumn), 3),
		newModalInput("", fmt.Sprintf("0-%d px", domain.MaxBlur), strconv.Itoa(m.board.Blur), 3),
		newModalInput("", "#rrggbb or image:<url>", backgroundLabel(m.board.Background), 512),
	}
	m.status = ""
	return m.focusPreference(prefMaxPerColumn)
}

// focusPreference moves focus inside the preferences form, wrapping around.
func (m *Model) focusPreference(idx int) tea.Cmd {
	if len(m.prefInputs) == 0 {
		return nil
	}
	idx = (idx + len(m.prefInputs)) % len(m.prefInputs)
	for i := range m.prefInputs {
		m.prefInputs[i].Blur()
	}
	m.prefFocus = idx
	return m.prefInputs[idx].Focus()
}

// submitModal validates and applies a single-input modal.
func (m Model) submitModal() (tea.Model, tea.Cmd) {
	raw := strings.TrimSpace(m.modalInput.Value())
	svc := m.svc
	switch m.mode {
	case modeColumnWidth:
		percent, err := strconv.Atoi(raw)
		if err != nil || percent < 0 || percent > domain.MaxWidthBudget {
			m.status = "width must be a whole number from 0 to 100"
			return m, nil
		}
		col := m.modalColumn
		m.closeModal()
		return m, m.mutate(fmt.Sprintf("%s column width %d%%", col, percent), "", func(ctx context.Context) (domain.Board, error) {
			return svc.SetColumnWidth(ctx, col, percent)
		})

	case modeWidgetHeight:
		percent := 0
		if raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil || v < 0 || v > domain.MaxHeightBudget {
				m.status = "height must be a whole number from 0 to 100"
				return m, nil
			}
			percent = v
		}
		widgetID := m.modalWidgetID
		m.closeModal()
		status := fmt.Sprintf("height set to %d%%", percent)
		if percent == 0 {
			status = "height cleared"
		}
		return m, m.mutate(status, widgetID, func(ctx context.Context) (domain.Board, error) {
			return svc.SetWidgetHeight(ctx, widgetID, percent)
		})

	case modeWidgetSettings:
		partial, err := parseSettingAssignment(raw)
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		widgetID := m.modalWidgetID
		m.closeModal()
		return m, m.mutate("setting saved", widgetID, func(ctx context.Context) (domain.Board, error) {
			return svc.UpdateWidgetSettings(ctx, widgetID, partial)
		})
	}
	m.closeModal()
	return m, nil
}

// submitPreferences applies the fields of the preferences form that changed.
func (m Model) submitPreferences() (tea.Model, tea.Cmd) {
	maxPerColumn, err := strconv.Atoi(strings.TrimSpace(m.prefInputs[prefMaxPerColumn].Value()))
	if err != nil {
		m.status = "max per column must be a number"
		return m, nil
	}
	blur, err := strconv.Atoi(strings.TrimSpace(m.prefInputs[prefBlur].Value()))
	if err != nil {
		m.status = "blur must be a number"
		return m, nil
	}
	background, err := parseBackground(m.prefInputs[prefBackground].Value(), m.board.Background)
	if err != nil {
		m.status = err.Error()
		return m, nil
	}

	var in app.UpdatePreferencesInput
	if maxPerColumn != m.board.MaxWidgetsPerColumn {
		in.MaxWidgetsPerColumn = &maxPerColumn
	}
	if blur != m.board.Blur {
		in.Blur = &blur
	}
	if background != m.board.Background {
		in.Background = &background
	}
	m.closeModal()
	if in == (app.UpdatePreferencesInput{}) {
		m.status = "no changes"
		return m, nil
	}
	svc := m.svc
	return m, m.mutate("preferences saved", "", func(ctx context.Context) (domain.Board, error) {
		return svc.UpdatePreferences(ctx, in)
	})
}

// mutate runs one service mutation and reports it as an actionMsg.
func (m Model) mutate(status, focusWidgetID string, fn func(context.Context) (domain.Board, error)) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		board, err := fn(tuiContext())
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{
			board:         board,
			hasBoard:      true,
			revision:      svc.Revision(),
			status:        status,
			focusWidgetID: focusWidgetID,
		}
	}
}

// toggleEditing flips edit mode.
func (m Model) toggleEditing() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		board, err := svc.ToggleEditing(tuiContext())
		if err != nil {
			return actionMsg{err: err}
		}
		status := "edit mode off"
		if board.IsEditing {
			status = "edit mode on"
		}
		return actionMsg{board: board, hasBoard: true, revision: svc.Revision(), status: status}
	}
}

// addWidget places a new widget in the first column with room.
func (m Model) addWidget(kind domain.WidgetKind) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		board, widget, err := svc.AddWidget(tuiContext(), kind)
		if err != nil {
			return actionMsg{err: err}
		}
		colID, _, _ := board.Locate(widget.ID)
		return actionMsg{
			board:         board,
			hasBoard:      true,
			revision:      svc.Revision(),
			status:        fmt.Sprintf("added %s to %s column", kind, colID),
			focusWidgetID: widget.ID,
		}
	}
}

// removeWidget removes the selected widget.
func (m Model) removeWidget(widget domain.Widget) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		board, removed, err := svc.RemoveWidget(tuiContext(), widget.ID)
		if err != nil {
			return actionMsg{err: err}
		}
		status := "widget already removed"
		if removed {
			status = fmt.Sprintf("removed %s", widget.Kind)
		}
		return actionMsg{board: board, hasBoard: true, revision: svc.Revision(), status: status}
	}
}

// cyclePosition advances the widget's position preference.
func (m Model) cyclePosition(widget domain.Widget) tea.Cmd {
	next := nextPosition(widget.PositionPreference)
	svc := m.svc
	return m.mutate("position "+string(next), widget.ID, func(ctx context.Context) (domain.Board, error) {
		return svc.SetWidgetPosition(ctx, widget.ID, next)
	})
}

// loadActivity fetches recent ledger entries.
func (m Model) loadActivity() tea.Msg {
	entries, err := m.svc.ListActivity(tuiContext(), m.activityLimit)
	return activityLoadedMsg{entries: entries, err: err}
}

// exportToClipboard copies the snapshot document to the system clipboard.
func (m Model) exportToClipboard() tea.Msg {
	data, err := m.svc.ExportSnapshot(tuiContext())
	if err != nil {
		return exportedMsg{err: err}
	}
	if err := m.writeClipboard(string(data)); err != nil {
		return exportedMsg{err: err}
	}
	return exportedMsg{bytes: len(data)}
}

// noticeFor turns a service error into status text.
func noticeFor(err error, board domain.Board) string {
	switch {
	case errors.Is(err, domain.ErrCapacityExceeded):
		return app.CapacityNotice(board.MaxWidgetsPerColumn)
	case errors.Is(err, domain.ErrWidthBudgetExceeded):
		return "column widths would total more than 100%"
	case errors.Is(err, domain.ErrHeightBudgetInvalid):
		return "! Total > 100%: fix column heights before leaving edit mode"
	case errors.Is(err, domain.ErrCapacityBelowUsage):
		return "a column already holds more widgets than that"
	case errors.Is(err, domain.ErrInvalidCapacity):
		return fmt.Sprintf("max per column must be %d-%d", domain.MinWidgetsPerColumnLimit, domain.MaxWidgetsPerColumnLimit)
	case errors.Is(err, domain.ErrInvalidBlur):
		return fmt.Sprintf("blur must be 0-%d px", domain.MaxBlur)
	case errors.Is(err, app.ErrDragInProgress), errors.Is(err, domain.ErrDragAlreadyActive):
		return "finish the current drag first"
	default:
		return "error: " + err.Error()
	}
}

// nextPosition cycles unset, top, middle, bottom, auto.
func nextPosition(p domain.PositionPreference) domain.PositionPreference {
	switch p {
	case domain.PositionTop:
		return domain.PositionMiddle
	case domain.PositionMiddle:
		return domain.PositionBottom
	case domain.PositionBottom:
		return domain.PositionAuto
	default:
		return domain.PositionTop
	}
}

// parseSettingAssignment reads "key=value". Whole numbers, decimals and
// booleans are typed; everything else stays a string.
func parseSettingAssignment(raw string) (domain.Settings, error) {
	name, value, ok := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return nil, errors.New("use key=value")
	}
	value = strings.TrimSpace(value)
	var typed any = value
	if n, err := strconv.Atoi(value); err == nil {
		typed = n
	} else if f, err := strconv.ParseFloat(value, 64); err == nil {
		typed = f
	} else if b, err := strconv.ParseBool(value); err == nil {
		typed = b
	}
	return domain.Settings{name: typed}, nil
}

// parseBackground reads the preferences background field. "image:<url>" and
// bare http(s) URLs select an image; anything else is a solid color.
func parseBackground(raw string, current domain.Background) (domain.Background, error) {
	raw = strings.TrimSpace(raw)
	next := current
	switch {
	case strings.HasPrefix(raw, "image:"):
		next.ActiveType = domain.BackgroundImage
		next.ImageValue = strings.TrimSpace(strings.TrimPrefix(raw, "image:"))
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		next.ActiveType = domain.BackgroundImage
		next.ImageValue = raw
	case raw == "":
		return current, errors.New("background color is required")
	default:
		next.ActiveType = domain.BackgroundSolid
		next.ColorValue = raw
	}
	return next, nil
}

// backgroundLabel renders a background the way the preferences form accepts it.
func backgroundLabel(bg domain.Background) string {
	if bg.ActiveType == domain.BackgroundImage {
		return "image:" + bg.ImageValue
	}
	return bg.ColorValue
}

// clamp clamps the requested operation.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
