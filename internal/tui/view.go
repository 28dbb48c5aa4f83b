package tui

import (
	"fmt"
	"image/color"
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/evanschultz/widgethub/internal/app"
	"github.com/evanschultz/widgethub/internal/domain"
)

const activityViewWindow = 14

var kindLabels = map[domain.WidgetKind]string{
	domain.WidgetKindTime:        "Time",
	domain.WidgetKindDate:        "Date",
	domain.WidgetKindTodo:        "Todo",
	domain.WidgetKindYouTube:     "YouTube",
	domain.WidgetKindPomodoro:    "Pomodoro",
	domain.WidgetKindWeather:     "Weather",
	domain.WidgetKindWaterLog:    "Water Log",
	domain.WidgetKindSpotify:     "Spotify",
	domain.WidgetKindSpotifyMini: "Spotify Mini",
	domain.WidgetKindSpacer:      "Spacer",
}

// View handles view.
func (m Model) View() tea.View {
	if m.err != nil {
		v := tea.NewView("error: " + m.err.Error() + "\n\npress r to retry • q quit\n")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}
	if !m.ready {
		v := tea.NewView("loading...")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	var body string
	if m.board.WidgetCount() == 0 && !m.board.IsEditing {
		body = fitLines(m.guide.render(m.guideMarkdown(), max(24, m.width-4)), m.boardHeight())
	} else {
		body = m.renderBoard(accent, muted, dim)
	}

	status := m.status
	if status == "ready" {
		status = ""
	}
	sections := []string{
		m.renderHeader(accent, muted),
		"",
		body,
		statusStyle.Render(truncate(status, max(1, m.width))),
	}
	content := strings.Join(sections, "\n")

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	fullContent := content + "\n" + helpLine

	overlay := m.renderModeOverlay(accent, muted, dim, m.width-8)
	if m.help.ShowAll {
		overlay = m.renderHelpOverlay(accent, muted, dim, m.width-8)
	}
	if overlay != "" {
		overlayHeight := lipgloss.Height(fullContent)
		if m.height > 0 {
			overlayHeight = m.height
		}
		fullContent = overlayOnContent(fullContent, overlay, max(1, m.width), max(1, overlayHeight))
	}

	view := tea.NewView(fullContent)
	view.MouseMode = tea.MouseModeCellMotion
	view.AltScreen = true
	return view
}

// guideMarkdown fills the welcome guide with the live key bindings.
func (m Model) guideMarkdown() string {
	return fmt.Sprintf(welcomeGuide,
		m.keys.toggleEdit.Help().Key,
		m.keys.addWidget.Help().Key,
		m.keys.grab.Help().Key,
	)
}

// renderHeader renders the title line with board preferences.
func (m Model) renderHeader(accent, muted color.Color) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	infoStyle := lipgloss.NewStyle().Foreground(muted)
	warnStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))

	modeLabel := "view"
	if m.board.IsEditing {
		modeLabel = "edit"
	}
	header := titleStyle.Render("widgethub") + infoStyle.Render("  ["+modeLabel+"]")
	header += infoStyle.Render(fmt.Sprintf("  max %d/col • blur %dpx • bg %s",
		m.board.MaxWidgetsPerColumn, m.board.Blur, truncate(backgroundLabel(m.board.Background), 32)))
	if m.board.Background.ActiveType == domain.BackgroundSolid {
		header += " " + lipgloss.NewStyle().Background(lipgloss.Color(m.board.Background.ColorValue)).Render("  ")
	}
	if invalid := m.board.InvalidColumns(); len(invalid) > 0 {
		names := make([]string, 0, len(invalid))
		for _, id := range invalid {
			names = append(names, string(id))
		}
		header += warnStyle.Render("  ! Total > 100%: " + strings.Join(names, ", "))
	}
	if _, dragging := m.svc.ActiveDrag(); dragging {
		header += lipgloss.NewStyle().Bold(true).Foreground(accent).Render("  dragging")
	}
	return header
}

// renderBoard renders the three columns side by side.
func (m Model) renderBoard(accent, muted, dim color.Color) string {
	activeID, _ := m.svc.ActiveDrag()
	rects := m.columnRects()
	views := make([]string, 0, len(rects))
	for ci, rect := range rects {
		views = append(views, m.renderColumn(rect, ci == m.selectedColumn, activeID, accent, muted, dim))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, views...)
}

// renderColumn renders one bordered column. Cards are pasted at the rows the
// layout assigned them, so the picture matches mouse hit testing.
func (m Model) renderColumn(rect columnRect, focused bool, activeID string, accent, muted, dim color.Color) string {
	innerW := max(1, rect.width-2)
	areaH := rect.areaHeight()
	col := m.board.Column(rect.id)
	layout := m.board.Layout(rect.id)

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	warnStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	hintStyle := lipgloss.NewStyle().Foreground(muted)

	title := fmt.Sprintf("%s %d%% (%d/%d)", strings.ToUpper(string(rect.id)), col.Width, len(col.Items), m.board.MaxWidgetsPerColumn)
	titleLine := titleStyle.Render(truncate(title, innerW))
	if layout.Invalid {
		warn := "! Total > 100%"
		if len([]rune(title))+2+len(warn) <= innerW {
			titleLine += "  " + warnStyle.Render(warn)
		} else {
			titleLine = warnStyle.Render(truncate(warn, innerW))
		}
	}

	area := make([]string, areaH)
	if len(col.Items) == 0 && m.board.IsEditing {
		area[areaH/2] = hintStyle.Render(centerText("Drop widgets here", innerW))
	}
	for i, wr := range rect.widgets {
		if i >= len(col.Items) {
			break
		}
		widget := col.Items[i]
		card := renderCard(widget, wr.height, innerW, focused && i == m.selectedWidget, widget.ID == activeID, accent, muted, dim)
		for j, line := range strings.Split(card, "\n") {
			row := wr.top - rect.areaTop() + j
			if row >= 0 && row < areaH {
				area[row] = line
			}
		}
	}

	lines := make([]string, 0, areaH+1)
	lines = append(lines, padRight(titleLine, innerW))
	for _, line := range area {
		lines = append(lines, padRight(line, innerW))
	}

	border := dim
	if focused {
		border = accent
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Render(strings.Join(lines, "\n"))
}

// renderCard renders one widget card of exactly rows lines and width cells.
func renderCard(widget domain.Widget, rows, width int, selected, active bool, accent, muted, dim color.Color) string {
	innerW := max(1, width-2)
	innerH := max(1, rows-2)

	title := kindLabel(widget.Kind)
	if widget.HasCustomHeight() {
		title += fmt.Sprintf(" · %d%%", widget.CustomHeight)
	}
	if widget.PositionPreference != "" {
		title += " · " + string(widget.PositionPreference)
	}
	detailStyle := lipgloss.NewStyle().Foreground(muted)
	lines := []string{lipgloss.NewStyle().Bold(true).Render(truncate(title, innerW))}
	for _, detail := range widgetSummary(widget) {
		lines = append(lines, detailStyle.Render(truncate(detail, innerW)))
	}
	if len(lines) > innerH {
		lines = lines[:innerH]
	}
	for len(lines) < innerH {
		lines = append(lines, "")
	}
	for i := range lines {
		lines[i] = padRight(lines[i], innerW)
	}

	border := dim
	switch {
	case active:
		border = lipgloss.Color("212")
	case selected:
		border = accent
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Render(strings.Join(lines, "\n"))
}

// kindLabel returns the display name of a widget kind.
func kindLabel(kind domain.WidgetKind) string {
	if label, ok := kindLabels[kind]; ok {
		return label
	}
	return string(kind)
}

// kindDefaults are the settings a widget shows until it stores its own.
func kindDefaults(kind domain.WidgetKind) domain.Settings {
	switch kind {
	case domain.WidgetKindWeather:
		return domain.Settings{"city": "New York"}
	case domain.WidgetKindWaterLog:
		return domain.Settings{"goal": 2000, "current": 0}
	default:
		return domain.Settings{}
	}
}

// presentedSettings lays stored settings over the kind defaults.
func presentedSettings(widget domain.Widget) domain.Settings {
	return kindDefaults(widget.Kind).Merge(widget.Settings)
}

// widgetSummary returns the detail lines of a card.
func widgetSummary(widget domain.Widget) []string {
	settings := presentedSettings(widget)
	var lines []string
	shown := map[string]bool{}
	switch widget.Kind {
	case domain.WidgetKindWeather:
		lines = append(lines, fmt.Sprintf("city: %v", settings["city"]))
		shown["city"] = true
	case domain.WidgetKindWaterLog:
		lines = append(lines, fmt.Sprintf("%v / %v ml", settings["current"], settings["goal"]))
		shown["current"], shown["goal"] = true, true
	}
	keys := make([]string, 0, len(settings))
	for k := range settings {
		if !shown[k] {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %v", k, settings[k]))
	}
	return lines
}

// renderModeOverlay renders mode overlay.
func (m Model) renderModeOverlay(accent, muted, dim color.Color, maxWidth int) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1)
	if maxWidth > 0 {
		style = style.Width(clamp(maxWidth, 36, 72))
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle := lipgloss.NewStyle().Foreground(muted)
	warnStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))

	switch m.mode {
	case modeAddWidget:
		lines := []string{titleStyle.Render("Add widget")}
		if !m.anyColumnHasCapacity() {
			lines = append(lines, warnStyle.Render(app.CapacityNotice(m.board.MaxWidgetsPerColumn)))
		}
		for idx, kind := range domain.WidgetKinds() {
			cursor := "  "
			if idx == m.pickerIndex {
				cursor = "› "
			}
			lines = append(lines, cursor+kindLabel(kind))
		}
		lines = append(lines, hintStyle.Render("enter add • esc cancel"))
		return style.Render(strings.Join(lines, "\n"))

	case modeColumnWidth:
		others := m.board.Widths().SumExcept(m.modalColumn)
		lines := []string{
			titleStyle.Render("Column width · " + string(m.modalColumn)),
			hintStyle.Render(fmt.Sprintf("other columns use %d%%; total may not exceed 100%%", others)),
			m.modalInput.View(),
			hintStyle.Render("enter save • esc cancel"),
		}
		return style.Render(strings.Join(lines, "\n"))

	case modeWidgetHeight:
		lines := []string{titleStyle.Render("Widget height")}
		if colID, _, ok := m.board.Locate(m.modalWidgetID); ok {
			total := m.board.Column(colID).CustomHeightTotal()
			lines = append(lines, hintStyle.Render(fmt.Sprintf("%s column custom heights total %d%%", colID, total)))
		}
		lines = append(lines, m.modalInput.View(), hintStyle.Render("enter save • empty or 0 clears • esc cancel"))
		return style.Render(strings.Join(lines, "\n"))

	case modeWidgetSettings:
		widget, _ := m.board.Widget(m.modalWidgetID)
		lines := []string{titleStyle.Render("Widget setting · " + kindLabel(widget.Kind))}
		for _, detail := range widgetSummary(widget) {
			lines = append(lines, hintStyle.Render(detail))
		}
		lines = append(lines, m.modalInput.View(), hintStyle.Render("enter save • esc cancel"))
		return style.Render(strings.Join(lines, "\n"))

	case modePreferences:
		labels := []string{"max per column", "blur", "background"}
		lines := []string{titleStyle.Render("Board preferences")}
		for idx, in := range m.prefInputs {
			label := fmt.Sprintf("%-15s", labels[idx])
			if idx == m.prefFocus {
				label = titleStyle.Render(label)
			} else {
				label = hintStyle.Render(label)
			}
			lines = append(lines, label+" "+in.View())
		}
		lines = append(lines, hintStyle.Render("tab next • enter save • esc cancel"))
		return style.Render(strings.Join(lines, "\n"))

	case modeActivity:
		lines := []string{titleStyle.Render("Activity")}
		if len(m.activity) == 0 {
			lines = append(lines, hintStyle.Render("(no activity yet)"))
		}
		for idx, event := range m.activity {
			if idx >= activityViewWindow {
				break
			}
			lines = append(lines, formatActivity(event))
		}
		lines = append(lines, hintStyle.Render("esc close"))
		return style.Render(strings.Join(lines, "\n"))
	}
	return ""
}

// renderHelpOverlay renders help overlay.
func (m Model) renderHelpOverlay(accent, muted, dim color.Color, maxWidth int) string {
	width := clamp(maxWidth, 56, 100)
	hb := m.help
	hb.ShowAll = true
	hb.SetWidth(width - 4)

	title := lipgloss.NewStyle().Bold(true).Foreground(accent).Render("widgethub help")
	workflow := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accent).Render("Workflows"),
		fmt.Sprintf("1. %s toggles edit mode; grab, remove, resize and reposition need it", m.keys.toggleEdit.Help().Key),
		fmt.Sprintf("2. %s adds a widget to the first column with room", m.keys.addWidget.Help().Key),
		fmt.Sprintf("3. %s or click grabs • arrows or mouse move • enter or release drops • esc cancels", m.keys.grab.Help().Key),
		"4. w column width • s widget height • p position • c widget setting • , preferences",
		fmt.Sprintf("5. %s copies the board config to the clipboard • %s shows activity", m.keys.export.Help().Key, m.keys.activity.Help().Key),
	}
	lines := []string{
		title,
		"",
		hb.View(m.keys),
		"",
		lipgloss.NewStyle().Foreground(muted).Render(strings.Join(workflow, "\n")),
		lipgloss.NewStyle().Foreground(muted).Render("press ? or esc to close"),
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1)
	if maxWidth > 0 {
		style = style.Width(width)
	}
	return style.Render(strings.Join(lines, "\n"))
}

// anyColumnHasCapacity reports whether an add can succeed.
func (m Model) anyColumnHasCapacity() bool {
	for _, id := range domain.ColumnIDs() {
		if domain.ColumnHasCapacity(m.board, id) {
			return true
		}
	}
	return false
}

// formatActivity renders one ledger entry.
func formatActivity(event domain.ChangeEvent) string {
	target := event.WidgetID
	if target == "" {
		target = "board"
	}
	line := fmt.Sprintf("%s  %-10s %s", event.OccurredAt.Local().Format("01-02 15:04:05"), event.Operation, truncate(target, 24))
	if event.ColumnID != "" {
		line += " @" + string(event.ColumnID)
	}
	if event.Source != "" {
		line += " via " + event.Source
	}
	return line
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent overlays on content.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centeredOverlay := lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay,
	)
	overlayLayer := lipgloss.NewLayer(centeredOverlay).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// truncate shortens s to at most limit runes.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	if limit <= 1 {
		return string(rs[:limit])
	}
	return string(rs[:limit-1]) + "…"
}

// padRight pads a possibly styled line with spaces to width cells.
func padRight(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

// centerText centers plain text in width cells.
func centerText(s string, width int) string {
	s = truncate(s, width)
	left := max(0, (width-len([]rune(s)))/2)
	return strings.Repeat(" ", left) + s
}
