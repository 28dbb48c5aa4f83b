package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/evanschultz/widgethub/internal/app"
	"github.com/evanschultz/widgethub/internal/domain"
)

// memoryRepo keeps one snapshot and the ledger in memory.
type memoryRepo struct {
	mu       sync.Mutex
	snapshot []byte
	events   []domain.ChangeEvent
}

func (r *memoryRepo) LoadSnapshot(context.Context) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.snapshot == nil {
		return nil, app.ErrNotFound
	}
	return append([]byte(nil), r.snapshot...), nil
}

func (r *memoryRepo) SaveSnapshot(_ context.Context, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot = append([]byte(nil), data...)
	return nil
}

func (r *memoryRepo) AppendChangeEvent(_ context.Context, event domain.ChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *memoryRepo) ListChangeEvents(_ context.Context, limit int) ([]domain.ChangeEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ChangeEvent, 0, len(r.events))
	for i := len(r.events) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, r.events[i])
	}
	return out, nil
}

// boardSetup seeds a service before the model loads it.
type boardSetup struct {
	maxPerColumn int
	kinds        []domain.WidgetKind
	editing      bool
}

func newTestService(t *testing.T, setup boardSetup) *app.Service {
	t.Helper()
	var widgets, events int
	svc := app.NewService(&memoryRepo{}, func() string {
		widgets++
		return "w" + strconv.Itoa(widgets)
	}, nil, app.ServiceConfig{
		EventIDs: func() string {
			events++
			return "e" + strconv.Itoa(events)
		},
	})
	ctx := context.Background()
	if _, err := svc.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	t.Cleanup(func() {
		_ = svc.Close(context.Background())
	})
	if setup.maxPerColumn > 0 {
		maxPerColumn := setup.maxPerColumn
		if _, err := svc.UpdatePreferences(ctx, app.UpdatePreferencesInput{MaxWidgetsPerColumn: &maxPerColumn}); err != nil {
			t.Fatalf("UpdatePreferences() error = %v", err)
		}
	}
	for _, kind := range setup.kinds {
		if _, _, err := svc.AddWidget(ctx, kind); err != nil {
			t.Fatalf("AddWidget(%s) error = %v", kind, err)
		}
	}
	if setup.editing {
		if _, err := svc.ToggleEditing(ctx); err != nil {
			t.Fatalf("ToggleEditing() error = %v", err)
		}
	}
	return svc
}

func loadReadyModel(t *testing.T, m Model) Model {
	t.Helper()
	m = applyMsg(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return applyCmd(t, m, m.Init())
}

func newTestModel(t *testing.T, setup boardSetup, opts ...Option) (Model, *app.Service) {
	t.Helper()
	svc := newTestService(t, setup)
	return loadReadyModel(t, NewModel(svc, opts...)), svc
}

func columnIDs(items []domain.Widget) []string {
	out := make([]string, 0, len(items))
	for _, w := range items {
		out = append(out, w.ID)
	}
	return out
}

func assertColumn(t *testing.T, board domain.Board, id domain.ColumnID, want ...string) {
	t.Helper()
	got := columnIDs(board.Column(id).Items)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("%s column = %v, want %v", id, got, want)
	}
}

func renderView(m Model) string {
	return fmt.Sprint(m.View().Content)
}

func TestModelLoadShowsGuideOnEmptyBoard(t *testing.T) {
	m, _ := newTestModel(t, boardSetup{})
	if m.status != "ready" {
		t.Fatalf("expected ready status, got %q", m.status)
	}
	rendered := renderView(m)
	if !strings.Contains(rendered, "widgethub") {
		t.Fatal("expected header in view")
	}
	if !strings.Contains(rendered, "Welcome") {
		t.Fatal("expected welcome guide on empty board")
	}
	if v := m.View(); v.MouseMode != tea.MouseModeCellMotion || !v.AltScreen {
		t.Fatal("expected alt screen view with mouse motion enabled")
	}
}

func TestModelLoadingView(t *testing.T) {
	m := NewModel(newTestService(t, boardSetup{}))
	if got := renderView(m); !strings.Contains(got, "loading...") {
		t.Fatalf("expected loading view, got %q", got)
	}
}

func TestModelToggleEditAndAddWidget(t *testing.T) {
	m, svc := newTestModel(t, boardSetup{})

	m = applyMsg(t, m, keyRune('e'))
	if !m.board.IsEditing {
		t.Fatal("expected edit mode on")
	}
	if m.status != "edit mode on" {
		t.Fatalf("unexpected status %q", m.status)
	}

	m = applyMsg(t, m, keyRune('a'))
	if m.mode != modeAddWidget {
		t.Fatalf("expected add picker, got mode %d", m.mode)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyDown})
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.mode != modeNone {
		t.Fatal("expected picker to close after adding")
	}
	assertColumn(t, m.board, domain.ColumnLeft, "w1")
	widget, _ := svc.Board().Widget("w1")
	if widget.Kind != domain.WidgetKindDate {
		t.Fatalf("expected second picker kind, got %q", widget.Kind)
	}
	if !strings.Contains(m.status, "added date to left column") {
		t.Fatalf("unexpected status %q", m.status)
	}
	if !strings.Contains(renderView(m), "Date") {
		t.Fatal("expected card for added widget")
	}
}

func TestModelAddWidgetWhenFullShowsCapacityNotice(t *testing.T) {
	m, _ := newTestModel(t, boardSetup{
		maxPerColumn: 1,
		kinds:        []domain.WidgetKind{domain.WidgetKindTime, domain.WidgetKindDate, domain.WidgetKindTodo},
	})

	m = applyMsg(t, m, keyRune('a'))
	if !strings.Contains(renderView(m), app.CapacityNotice(1)) {
		t.Fatal("expected capacity warning in picker")
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.status != app.CapacityNotice(1) {
		t.Fatalf("expected capacity notice, got %q", m.status)
	}
	if m.board.WidgetCount() != 3 {
		t.Fatalf("expected board unchanged, got %d widgets", m.board.WidgetCount())
	}
}

func TestModelEditOnlyActionsRequireEditMode(t *testing.T) {
	m, svc := newTestModel(t, boardSetup{kinds: []domain.WidgetKind{domain.WidgetKindTime}})

	for _, msg := range []tea.KeyPressMsg{keyRune('x'), {Code: tea.KeySpace, Text: " "}, keyRune('s'), keyRune('p')} {
		m = applyMsg(t, m, msg)
		if !strings.Contains(m.status, "edit mode first") {
			t.Fatalf("expected edit mode hint after %q, got %q", msg.String(), m.status)
		}
	}
	if _, dragging := svc.ActiveDrag(); dragging {
		t.Fatal("expected no drag outside edit mode")
	}
	if m.board.WidgetCount() != 1 {
		t.Fatal("expected widget to remain")
	}
}

func TestModelRemoveWidget(t *testing.T) {
	m, _ := newTestModel(t, boardSetup{kinds: []domain.WidgetKind{domain.WidgetKindTime, domain.WidgetKindTodo}, editing: true})

	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, keyRune('x'))
	assertColumn(t, m.board, domain.ColumnLeft, "w1")
	if m.status != "removed todo" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestModelKeyboardDrag(t *testing.T) {
	m, svc := newTestModel(t, boardSetup{kinds: []domain.WidgetKind{domain.WidgetKindTime, domain.WidgetKindDate}, editing: true})

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
	if active, ok := svc.ActiveDrag(); !ok || active != "w1" {
		t.Fatalf("expected w1 grabbed, got %q %v", active, ok)
	}

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyDown})
	assertColumn(t, m.board, domain.ColumnLeft, "w2", "w1")
	if m.selectedWidget != 1 {
		t.Fatalf("expected cursor to follow dragged widget, got %d", m.selectedWidget)
	}

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyRight})
	assertColumn(t, m.board, domain.ColumnLeft, "w2")
	assertColumn(t, m.board, domain.ColumnMiddle, "w1")
	if !strings.Contains(renderView(m), "dragging") {
		t.Fatal("expected dragging indicator")
	}

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if _, ok := svc.ActiveDrag(); ok {
		t.Fatal("expected drag to end")
	}
	if m.status != "dropped" || m.selectedColumn != 1 {
		t.Fatalf("unexpected status %q column %d", m.status, m.selectedColumn)
	}
	assertColumn(t, svc.Board(), domain.ColumnMiddle, "w1")
}

func TestModelKeyboardDragIgnoresEdges(t *testing.T) {
	m, svc := newTestModel(t, boardSetup{kinds: []domain.WidgetKind{domain.WidgetKindTime}, editing: true})

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyLeft})
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyUp})
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyDown})
	assertColumn(t, m.board, domain.ColumnLeft, "w1")
	if _, ok := svc.ActiveDrag(); !ok {
		t.Fatal("expected drag to stay active")
	}
}

func TestModelCancelDragRestoresGrabSlot(t *testing.T) {
	m, svc := newTestModel(t, boardSetup{kinds: []domain.WidgetKind{domain.WidgetKindTime, domain.WidgetKindDate}, editing: true})

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyRight})
	assertColumn(t, m.board, domain.ColumnMiddle, "w1")

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if _, ok := svc.ActiveDrag(); ok {
		t.Fatal("expected drag cleared")
	}
	assertColumn(t, m.board, domain.ColumnLeft, "w1", "w2")
	assertColumn(t, m.board, domain.ColumnMiddle)
	if m.status != "drag cancelled" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestModelDragIntoFullColumnShowsNotice(t *testing.T) {
	m, svc := newTestModel(t, boardSetup{
		maxPerColumn: 1,
		kinds:        []domain.WidgetKind{domain.WidgetKindTime, domain.WidgetKindDate, domain.WidgetKindTodo},
		editing:      true,
	})

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyRight})
	if m.status != "column full (max 1 per column)" {
		t.Fatalf("expected column full notice, got %q", m.status)
	}
	assertColumn(t, m.board, domain.ColumnLeft, "w1")
	assertColumn(t, m.board, domain.ColumnMiddle, "w2")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if _, ok := svc.ActiveDrag(); ok {
		t.Fatal("expected drag cleared")
	}
}

func TestModelMouseDrag(t *testing.T) {
	m, svc := newTestModel(t, boardSetup{kinds: []domain.WidgetKind{domain.WidgetKindTime, domain.WidgetKindDate}, editing: true})

	rects := m.columnRects()
	first := rects[0].widgets[0]
	m = applyMsg(t, m, tea.MouseClickMsg{X: rects[0].left + 2, Y: first.top + 1, Button: tea.MouseLeft})
	if active, ok := svc.ActiveDrag(); !ok || active != "w1" {
		t.Fatalf("expected click to grab w1, got %q %v", active, ok)
	}

	middle := rects[1]
	x, y := middle.left+2, middle.areaTop()+middle.areaHeight()-1
	m = applyMsg(t, m, tea.MouseMotionMsg{X: x, Y: y, Button: tea.MouseLeft})
	assertColumn(t, m.board, domain.ColumnMiddle, "w1")
	assertColumn(t, m.board, domain.ColumnLeft, "w2")

	m = applyMsg(t, m, tea.MouseReleaseMsg{X: x, Y: y, Button: tea.MouseLeft})
	if _, ok := svc.ActiveDrag(); ok {
		t.Fatal("expected release to end the drag")
	}
	if m.status != "dropped" {
		t.Fatalf("unexpected status %q", m.status)
	}
	assertColumn(t, svc.Board(), domain.ColumnMiddle, "w1")
}

func TestModelMouseMotionOutsideBoardIsIgnored(t *testing.T) {
	m, svc := newTestModel(t, boardSetup{kinds: []domain.WidgetKind{domain.WidgetKindTime, domain.WidgetKindDate}, editing: true})

	rects := m.columnRects()
	m = applyMsg(t, m, tea.MouseClickMsg{X: 2, Y: rects[0].widgets[0].top + 1, Button: tea.MouseLeft})
	m = applyMsg(t, m, tea.MouseMotionMsg{X: 2, Y: 0, Button: tea.MouseLeft})
	assertColumn(t, m.board, domain.ColumnLeft, "w1", "w2")

	m = applyMsg(t, m, tea.MouseReleaseMsg{X: 2, Y: 0, Button: tea.MouseLeft})
	if _, ok := svc.ActiveDrag(); ok {
		t.Fatal("expected release outside the board to end the drag")
	}
	assertColumn(t, m.board, domain.ColumnLeft, "w1", "w2")
}

func TestModelClickOutsideEditModeOnlySelects(t *testing.T) {
	m, svc := newTestModel(t, boardSetup{kinds: []domain.WidgetKind{domain.WidgetKindTime, domain.WidgetKindDate}})

	rects := m.columnRects()
	m = applyMsg(t, m, tea.MouseClickMsg{X: 2, Y: rects[0].widgets[1].top + 1, Button: tea.MouseLeft})
	if m.selectedWidget != 1 {
		t.Fatalf("expected second widget selected, got %d", m.selectedWidget)
	}
	if _, ok := svc.ActiveDrag(); ok {
		t.Fatal("expected no drag outside edit mode")
	}

	m = applyMsg(t, m, tea.MouseClickMsg{X: rects[2].left + 1, Y: rects[2].areaTop(), Button: tea.MouseLeft})
	if m.selectedColumn != 2 {
		t.Fatalf("expected right column selected, got %d", m.selectedColumn)
	}

	m = applyMsg(t, m, tea.MouseWheelMsg{Button: tea.MouseWheelDown})
	if m.selectedWidget != 0 {
		t.Fatalf("expected wheel in empty column to clamp, got %d", m.selectedWidget)
	}
}

func TestModelColumnWidthModal(t *testing.T) {
	m, svc := newTestModel(t, boardSetup{})

	m = updateOnly(t, m, keyRune('w'))
	if m.mode != modeColumnWidth || m.modalInput.Value() != "25" {
		t.Fatalf("expected width modal prefilled with 25, got mode %d value %q", m.mode, m.modalInput.Value())
	}
	m.modalInput.SetValue("80")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.status != "column widths would total more than 100%" {
		t.Fatalf("expected width budget notice, got %q", m.status)
	}
	if svc.Board().Column(domain.ColumnLeft).Width != 25 {
		t.Fatal("expected width unchanged")
	}

	m = updateOnly(t, m, keyRune('w'))
	m.modalInput.SetValue("abc")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.mode != modeColumnWidth {
		t.Fatal("expected modal to stay open on bad input")
	}
	m.modalInput.SetValue("20")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if got := m.board.Column(domain.ColumnLeft).Width; got != 20 {
		t.Fatalf("expected width 20, got %d", got)
	}
}

func TestModelHeightModalAndInvalidColumn(t *testing.T) {
	m, _ := newTestModel(t, boardSetup{kinds: []domain.WidgetKind{domain.WidgetKindTime, domain.WidgetKindDate}, editing: true})

	m = updateOnly(t, m, keyRune('s'))
	m.modalInput.SetValue("60")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if w, _ := m.board.Widget("w1"); w.CustomHeight != 60 {
		t.Fatalf("expected height 60, got %d", w.CustomHeight)
	}

	m = applyMsg(t, m, keyRune('j'))
	m = updateOnly(t, m, keyRune('s'))
	m.modalInput.SetValue("50")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if !strings.Contains(renderView(m), "! Total > 100%") {
		t.Fatal("expected invalid column warning")
	}

	m = applyMsg(t, m, keyRune('e'))
	if !m.board.IsEditing {
		t.Fatal("expected edit mode to stay on while invalid")
	}
	if !strings.Contains(m.status, "fix column heights") {
		t.Fatalf("unexpected status %q", m.status)
	}

	m = updateOnly(t, m, keyRune('s'))
	m.modalInput.SetValue("")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.status != "height cleared" {
		t.Fatalf("unexpected status %q", m.status)
	}
	m = applyMsg(t, m, keyRune('e'))
	if m.board.IsEditing {
		t.Fatal("expected edit mode off once valid")
	}
}

func TestModelEmptyColumnHintInEditMode(t *testing.T) {
	m, _ := newTestModel(t, boardSetup{editing: true})
	rendered := renderView(m)
	if !strings.Contains(rendered, "Drop widgets here") {
		t.Fatal("expected drop hint in empty column")
	}
	if strings.Contains(rendered, "Welcome") {
		t.Fatal("expected columns instead of guide in edit mode")
	}
}

func TestModelCyclePosition(t *testing.T) {
	m, _ := newTestModel(t, boardSetup{kinds: []domain.WidgetKind{domain.WidgetKindTime}, editing: true})

	want := []domain.PositionPreference{domain.PositionTop, domain.PositionMiddle, domain.PositionBottom, domain.PositionAuto, domain.PositionTop}
	for _, pref := range want {
		m = applyMsg(t, m, keyRune('p'))
		if w, _ := m.board.Widget("w1"); w.PositionPreference != pref {
			t.Fatalf("expected %q, got %q", pref, w.PositionPreference)
		}
	}
}

func TestModelWidgetSettingsUseKindDefaults(t *testing.T) {
	m, svc := newTestModel(t, boardSetup{kinds: []domain.WidgetKind{domain.WidgetKindWeather}})

	if !strings.Contains(renderView(m), "city: New York") {
		t.Fatal("expected default city on card")
	}
	if w, _ := svc.Board().Widget("w1"); len(w.Settings) != 0 {
		t.Fatalf("expected stored settings to stay empty, got %#v", w.Settings)
	}

	m = updateOnly(t, m, keyRune('c'))
	m.modalInput.SetValue("city=Paris")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	w, _ := m.board.Widget("w1")
	if w.Settings["city"] != "Paris" {
		t.Fatalf("expected city Paris, got %#v", w.Settings)
	}
	if !strings.Contains(renderView(m), "city: Paris") {
		t.Fatal("expected stored city on card")
	}
}

func TestModelPreferencesForm(t *testing.T) {
	m, svc := newTestModel(t, boardSetup{})

	m = updateOnly(t, m, keyRune(','))
	if m.mode != modePreferences || len(m.prefInputs) != 3 {
		t.Fatal("expected preferences form")
	}
	m = updateOnly(t, m, tea.KeyPressMsg{Code: tea.KeyTab})
	if m.prefFocus != prefBlur {
		t.Fatalf("expected focus on blur, got %d", m.prefFocus)
	}
	m.prefInputs[prefBlur].SetValue("20")
	m.prefInputs[prefBackground].SetValue("#202020")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	board := svc.Board()
	if board.Blur != 20 || board.Background.ColorValue != "#202020" {
		t.Fatalf("unexpected preferences %d %#v", board.Blur, board.Background)
	}
	if m.status != "preferences saved" {
		t.Fatalf("unexpected status %q", m.status)
	}

	m = updateOnly(t, m, keyRune(','))
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.status != "no changes" {
		t.Fatalf("expected no changes, got %q", m.status)
	}

	m = updateOnly(t, m, keyRune(','))
	m.prefInputs[prefMaxPerColumn].SetValue("11")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if !strings.Contains(m.status, "max per column must be 1-10") {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestModelExportCopiesSnapshot(t *testing.T) {
	var copied string
	m, _ := newTestModel(t, boardSetup{kinds: []domain.WidgetKind{domain.WidgetKindTime}}, WithClipboard(func(s string) error {
		copied = s
		return nil
	}))

	m = applyMsg(t, m, keyRune('y'))
	if !strings.Contains(copied, `"columnWidths"`) || !strings.Contains(copied, `"w1"`) {
		t.Fatalf("unexpected clipboard content %q", copied)
	}
	if !strings.HasPrefix(m.status, "copied board config") {
		t.Fatalf("unexpected status %q", m.status)
	}

	m.writeClipboard = func(string) error { return errors.New("no clipboard") }
	m = applyMsg(t, m, keyRune('y'))
	if m.status != "copy failed: no clipboard" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestModelActivityPanel(t *testing.T) {
	m, _ := newTestModel(t, boardSetup{})

	m = applyMsg(t, m, keyRune('g'))
	if m.mode != modeActivity {
		t.Fatalf("expected activity mode, got %d", m.mode)
	}
	if !strings.Contains(renderView(m), "Activity") {
		t.Fatal("expected activity overlay")
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.mode != modeNone {
		t.Fatal("expected activity panel to close")
	}
}

func TestModelHelpOverlayAndQuit(t *testing.T) {
	m, _ := newTestModel(t, boardSetup{})

	m = applyMsg(t, m, keyRune('?'))
	if !m.help.ShowAll || !strings.Contains(renderView(m), "widgethub help") {
		t.Fatal("expected help overlay")
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.help.ShowAll {
		t.Fatal("expected help overlay closed")
	}

	_, cmd := m.Update(keyRune('q'))
	if cmd == nil {
		t.Fatal("expected quit cmd")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestModelChangeFeedReloads(t *testing.T) {
	svc := newTestService(t, boardSetup{})
	feed := make(chan struct{}, 1)
	m := NewModel(svc, WithChangeFeed(feed))
	m = applyMsg(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m = applyCmd(t, m, m.loadBoard)

	if _, _, err := svc.AddWidget(context.Background(), domain.WidgetKindTodo); err != nil {
		t.Fatalf("AddWidget() error = %v", err)
	}
	feed <- struct{}{}
	msg := m.waitForChange()()
	if _, ok := msg.(boardChangedMsg); !ok {
		t.Fatalf("expected boardChangedMsg, got %T", msg)
	}
	m = applyMsg(t, m, m.loadBoard())
	assertColumn(t, m.board, domain.ColumnLeft, "w1")

	close(feed)
	if msg := m.waitForChange()(); msg != nil {
		t.Fatalf("expected nil msg from closed feed, got %T", msg)
	}
}

func TestModelIgnoresStaleBoard(t *testing.T) {
	m, _ := newTestModel(t, boardSetup{kinds: []domain.WidgetKind{domain.WidgetKindTime}})
	m.applyBoard(domain.DefaultBoard(), 0)
	if m.board.WidgetCount() != 1 {
		t.Fatal("expected stale board to be ignored")
	}
}

func TestBoardGeometryHitTesting(t *testing.T) {
	m, _ := newTestModel(t, boardSetup{kinds: []domain.WidgetKind{domain.WidgetKindTime, domain.WidgetKindDate}})

	rects := m.columnRects()
	if len(rects) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(rects))
	}
	if rects[0].width != 30 || rects[1].left != 30 || rects[1].width != 60 || rects[2].left != 90 {
		t.Fatalf("unexpected column rects %#v", rects)
	}
	first, second := rects[0].widgets[0], rects[0].widgets[1]
	if second.top != first.top+first.height {
		t.Fatal("expected cards to stack")
	}

	target, ok := m.dropTargetAt(1, first.top)
	if !ok || target != domain.WidgetTarget("w1", false) {
		t.Fatalf("expected upper half of w1, got %#v %v", target, ok)
	}
	target, ok = m.dropTargetAt(1, first.top+first.height-1)
	if !ok || target != domain.WidgetTarget("w1", true) {
		t.Fatalf("expected lower half of w1, got %#v %v", target, ok)
	}
	target, ok = m.dropTargetAt(rects[1].left+1, rects[1].areaTop())
	if !ok || target != domain.ColumnTarget(domain.ColumnMiddle) {
		t.Fatalf("expected middle column target, got %#v %v", target, ok)
	}
	if _, ok := m.dropTargetAt(1, 0); ok {
		t.Fatal("expected header row to resolve nothing")
	}
	if _, ok := m.dropTargetAt(500, 10); ok {
		t.Fatal("expected cells right of the board to resolve nothing")
	}
}

func TestCardRectsAlignSoleWidget(t *testing.T) {
	widget, err := domain.NewWidget("w1", domain.WidgetKindTime)
	if err != nil {
		t.Fatalf("NewWidget() error = %v", err)
	}
	board, _, err := domain.DefaultBoard().AddWidget(widget)
	if err != nil {
		t.Fatalf("AddWidget() error = %v", err)
	}
	board, _, err = board.SetWidgetPosition("w1", domain.PositionBottom)
	if err != nil {
		t.Fatalf("SetWidgetPosition() error = %v", err)
	}
	rect := columnRect{id: domain.ColumnLeft, top: boardTop, height: 20}
	cards := cardRects(board.Layout(domain.ColumnLeft), rect)
	if len(cards) != 1 {
		t.Fatalf("expected one card, got %d", len(cards))
	}
	if got, want := cards[0].top+cards[0].height, rect.areaTop()+rect.areaHeight(); got != want {
		t.Fatalf("expected card to end at %d, got %d", want, got)
	}
}

func TestNoticeFor(t *testing.T) {
	board := domain.DefaultBoard()
	tests := []struct {
		err  error
		want string
	}{
		{err: domain.ErrCapacityExceeded, want: app.CapacityNotice(board.MaxWidgetsPerColumn)},
		{err: fmt.Errorf("set width: %w", domain.ErrWidthBudgetExceeded), want: "column widths would total more than 100%"},
		{err: domain.ErrCapacityBelowUsage, want: "a column already holds more widgets than that"},
		{err: app.ErrDragInProgress, want: "finish the current drag first"},
		{err: errors.New("boom"), want: "error: boom"},
	}
	for _, tc := range tests {
		if got := noticeFor(tc.err, board); got != tc.want {
			t.Fatalf("noticeFor(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestParseSettingAssignment(t *testing.T) {
	tests := []struct {
		raw     string
		want    any
		wantErr bool
	}{
		{raw: "goal=2500", want: 2500},
		{raw: "ratio = 0.5", want: 0.5},
		{raw: "muted=true", want: true},
		{raw: "city=Oslo", want: "Oslo"},
		{raw: "novalue", wantErr: true},
		{raw: "=x", wantErr: true},
	}
	for _, tc := range tests {
		got, err := parseSettingAssignment(tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("expected error for %q", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseSettingAssignment(%q) error = %v", tc.raw, err)
		}
		if len(got) != 1 {
			t.Fatalf("expected one setting, got %#v", got)
		}
		for _, v := range got {
			if v != tc.want {
				t.Fatalf("parseSettingAssignment(%q) = %#v, want %#v", tc.raw, v, tc.want)
			}
		}
	}
}

func TestParseBackground(t *testing.T) {
	current := domain.DefaultBackground()

	bg, err := parseBackground("image:https://example.com/a.png", current)
	if err != nil || bg.ActiveType != domain.BackgroundImage || bg.ImageValue != "https://example.com/a.png" {
		t.Fatalf("unexpected image background %#v %v", bg, err)
	}
	if bg.ColorValue != current.ColorValue {
		t.Fatal("expected color value kept when switching to image")
	}
	bg, err = parseBackground("https://example.com/b.png", current)
	if err != nil || bg.ActiveType != domain.BackgroundImage {
		t.Fatalf("unexpected url background %#v %v", bg, err)
	}
	bg, err = parseBackground("#123456", current)
	if err != nil || bg.ActiveType != domain.BackgroundSolid || bg.ColorValue != "#123456" {
		t.Fatalf("unexpected solid background %#v %v", bg, err)
	}
	if _, err := parseBackground("  ", current); err == nil {
		t.Fatal("expected error for empty background")
	}
	if got := backgroundLabel(domain.Background{ActiveType: domain.BackgroundImage, ImageValue: "u"}); got != "image:u" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestWidgetSummaryDefaults(t *testing.T) {
	water := domain.Widget{ID: "w", Kind: domain.WidgetKindWaterLog, Settings: domain.Settings{"current": 500}}
	lines := widgetSummary(water)
	if len(lines) == 0 || lines[0] != "500 / 2000 ml" {
		t.Fatalf("unexpected waterlog summary %#v", lines)
	}
	todo := domain.Widget{ID: "t", Kind: domain.WidgetKindTodo, Settings: domain.Settings{"b": 1, "a": "x"}}
	if got := widgetSummary(todo); strings.Join(got, "|") != "a: x|b: 1" {
		t.Fatalf("unexpected todo summary %#v", got)
	}
}

func TestHelpersCoverage(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 0); got != "" {
		t.Fatalf("truncate zero = %q", got)
	}
	if got := fitLines("a\nb\nc", 2); got != "a\n…" {
		t.Fatalf("fitLines = %q", got)
	}
	if got := fitLines("a", 3); got != "a\n\n" {
		t.Fatalf("fitLines pad = %q", got)
	}
	if got := padRight("ab", 4); got != "ab  " {
		t.Fatalf("padRight = %q", got)
	}
	if got := centerText("ab", 6); got != "  ab" {
		t.Fatalf("centerText = %q", got)
	}
	if got := clamp(5, 0, 3); got != 3 {
		t.Fatalf("clamp = %d", got)
	}
	if got := nextPosition(""); got != domain.PositionTop {
		t.Fatalf("nextPosition = %q", got)
	}
}

func applyMsg(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, cmd := m.Update(msg)
	out, ok := updated.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", updated)
	}
	return applyCmd(t, out, cmd)
}

// updateOnly applies msg and drops the returned cmd, used where the cmd is a
// cursor blink.
func updateOnly(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, _ := m.Update(msg)
	out, ok := updated.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", updated)
	}
	return out
}

func applyCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	out := m
	currentCmd := cmd
	for i := 0; i < 6 && currentCmd != nil; i++ {
		msg := currentCmd()
		updated, nextCmd := out.Update(msg)
		casted, ok := updated.(Model)
		if !ok {
			t.Fatalf("expected Model, got %T", updated)
		}
		out = casted
		currentCmd = nextCmd
	}
	return out
}

func keyRune(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}
