package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Board limits and defaults.
const (
	DefaultMaxWidgetsPerColumn = 3
	MinWidgetsPerColumnLimit   = 1
	MaxWidgetsPerColumnLimit   = 10
	DefaultBlur                = 10
	MaxBlur                    = 40
	DefaultBackgroundColor     = "#1a1a1a"
)

// BackgroundType selects which background value is active.
type BackgroundType string

// BackgroundType values.
const (
	BackgroundSolid BackgroundType = "solid"
	BackgroundImage BackgroundType = "image"
)

// Background holds styling-only background state.
type Background struct {
	ActiveType BackgroundType
	ImageValue string
	ColorValue string
}

// DefaultBackground returns the solid dark background.
func DefaultBackground() Background {
	return Background{
		ActiveType: BackgroundSolid,
		ColorValue: DefaultBackgroundColor,
	}
}

// Validate checks the active type and that the active value is present.
func (b Background) Validate() error {
	switch b.ActiveType {
	case BackgroundSolid:
		if strings.TrimSpace(b.ColorValue) == "" {
			return fmt.Errorf("%w: color value is required", ErrInvalidBackground)
		}
	case BackgroundImage:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidBackground, b.ActiveType)
	}
	return nil
}

// Board is the full dashboard state. Every operation returns a new Board and
// leaves the receiver untouched; item slices are copied before they change.
type Board struct {
	Columns             [columnCount]Column
	MaxWidgetsPerColumn int
	IsEditing           bool
	Blur                int
	Background          Background
}

// DefaultBoard returns an empty board with default widths and styling.
func DefaultBoard() Board {
	return NewBoard(DefaultColumnWidths(), DefaultMaxWidgetsPerColumn)
}

// NewBoard returns an empty board with the given widths and capacity.
func NewBoard(widths ColumnWidths, maxPerColumn int) Board {
	var b Board
	for i, id := range columnOrder {
		b.Columns[i] = Column{ID: id, Items: []Widget{}, Width: widths.Get(id)}
	}
	b.MaxWidgetsPerColumn = maxPerColumn
	b.Blur = DefaultBlur
	b.Background = DefaultBackground()
	return b
}

// Column returns the column for id. Unknown ids yield a zero Column.
func (b Board) Column(id ColumnID) Column {
	idx := id.index()
	if idx < 0 {
		return Column{}
	}
	return b.Columns[idx]
}

// Widths returns the current column widths.
func (b Board) Widths() ColumnWidths {
	return ColumnWidths{
		Left:   b.Columns[0].Width,
		Middle: b.Columns[1].Width,
		Right:  b.Columns[2].Width,
	}
}

// Locate finds the column and index owning widgetID.
func (b Board) Locate(widgetID string) (ColumnID, int, bool) {
	if widgetID == "" {
		return "", -1, false
	}
	for _, col := range b.Columns {
		if idx := col.IndexOf(widgetID); idx >= 0 {
			return col.ID, idx, true
		}
	}
	return "", -1, false
}

// Widget returns the record for widgetID.
func (b Board) Widget(widgetID string) (Widget, bool) {
	colID, idx, ok := b.Locate(widgetID)
	if !ok {
		return Widget{}, false
	}
	return b.Column(colID).Items[idx], true
}

// WidgetIDs lists every widget id, column by column, top to bottom.
func (b Board) WidgetIDs() []string {
	out := make([]string, 0, b.WidgetCount())
	for _, col := range b.Columns {
		for _, w := range col.Items {
			out = append(out, w.ID)
		}
	}
	return out
}

// WidgetCount returns the number of widgets across all columns.
func (b Board) WidgetCount() int {
	n := 0
	for _, col := range b.Columns {
		n += len(col.Items)
	}
	return n
}

// FullestColumnCount returns the largest item count of any column.
func (b Board) FullestColumnCount() int {
	n := 0
	for _, col := range b.Columns {
		n = max(n, len(col.Items))
	}
	return n
}

// AddWidget appends w to the first column, left to right, with free capacity.
func (b Board) AddWidget(w Widget) (Board, ColumnID, error) {
	w.ID = strings.TrimSpace(w.ID)
	if w.ID == "" {
		return b, "", ErrInvalidID
	}
	if !w.Kind.Valid() {
		return b, "", ErrInvalidWidgetKind
	}
	if _, _, exists := b.Locate(w.ID); exists {
		return b, "", ErrDuplicateWidgetID
	}
	if w.Settings == nil {
		w.Settings = Settings{}
	}
	for i, col := range b.Columns {
		if !ColumnHasCapacity(b, col.ID) {
			continue
		}
		items := make([]Widget, 0, len(col.Items)+1)
		items = append(items, col.Items...)
		b.Columns[i].Items = append(items, w)
		return b, col.ID, nil
	}
	return b, "", ErrCapacityExceeded
}

// RemoveWidget drops widgetID from its column. Missing ids are a no-op.
func (b Board) RemoveWidget(widgetID string) (Board, bool) {
	colID, idx, ok := b.Locate(widgetID)
	if !ok {
		return b, false
	}
	ci := colID.index()
	b.Columns[ci].Items = slices.Delete(slices.Clone(b.Columns[ci].Items), idx, idx+1)
	return b, true
}

// SetWidgetHeight sets a custom height percentage. Zero clears it. The height
// budget is not enforced here; see InvalidColumns.
func (b Board) SetWidgetHeight(widgetID string, percent int) (Board, bool, error) {
	if !validCustomHeight(percent) {
		return b, false, ErrInvalidHeight
	}
	next, found := b.updateWidget(widgetID, func(w *Widget) {
		w.CustomHeight = percent
	})
	return next, found, nil
}

// MergeWidgetSettings shallow-merges partial into the widget's settings.
func (b Board) MergeWidgetSettings(widgetID string, partial Settings) (Board, bool) {
	return b.updateWidget(widgetID, func(w *Widget) {
		w.Settings = w.Settings.Merge(partial)
	})
}

// SetWidgetPosition replaces the widget's position preference.
func (b Board) SetWidgetPosition(widgetID string, pref PositionPreference) (Board, bool, error) {
	pref, err := ParsePositionPreference(string(pref))
	if err != nil {
		return b, false, err
	}
	next, found := b.updateWidget(widgetID, func(w *Widget) {
		w.PositionPreference = pref
	})
	return next, found, nil
}

func (b Board) updateWidget(widgetID string, mutate func(*Widget)) (Board, bool) {
	colID, idx, ok := b.Locate(widgetID)
	if !ok {
		return b, false
	}
	ci := colID.index()
	items := slices.Clone(b.Columns[ci].Items)
	mutate(&items[idx])
	b.Columns[ci].Items = items
	return b, true
}

// SetColumnWidth sets one column's width unless the other two columns' current
// widths plus percent would exceed 100.
func (b Board) SetColumnWidth(id ColumnID, percent int) (Board, error) {
	ci := id.index()
	if ci < 0 {
		return b, ErrInvalidColumnID
	}
	if percent < 0 || percent > MaxWidthBudget {
		return b, ErrInvalidWidth
	}
	if !WidthBudgetValid(b.Widths().With(id, percent)) {
		return b, ErrWidthBudgetExceeded
	}
	b.Columns[ci].Width = percent
	return b, nil
}

// SetMaxWidgetsPerColumn changes the per-column capacity. Lowering it below the
// fullest column's count is rejected so no column ends up over capacity.
func (b Board) SetMaxWidgetsPerColumn(n int) (Board, error) {
	if n < MinWidgetsPerColumnLimit || n > MaxWidgetsPerColumnLimit {
		return b, ErrInvalidCapacity
	}
	if n < b.FullestColumnCount() {
		return b, ErrCapacityBelowUsage
	}
	b.MaxWidgetsPerColumn = n
	return b, nil
}

// SetBlur sets the widget backdrop blur radius.
func (b Board) SetBlur(px int) (Board, error) {
	if px < 0 || px > MaxBlur {
		return b, ErrInvalidBlur
	}
	b.Blur = px
	return b, nil
}

// SetBackground replaces the background.
func (b Board) SetBackground(bg Background) (Board, error) {
	bg.ActiveType = BackgroundType(strings.TrimSpace(strings.ToLower(string(bg.ActiveType))))
	if err := bg.Validate(); err != nil {
		return b, err
	}
	b.Background = bg
	return b, nil
}

// SetEditing enters or leaves edit mode. Leaving is blocked while any column
// breaks the height budget.
func (b Board) SetEditing(on bool) (Board, error) {
	if !on && b.IsEditing && !b.Valid() {
		return b, ErrHeightBudgetInvalid
	}
	b.IsEditing = on
	return b, nil
}

// ToggleEditing flips edit mode.
func (b Board) ToggleEditing() (Board, error) {
	return b.SetEditing(!b.IsEditing)
}

// Validate checks a whole board, as received from an import, against the hard
// invariants: known kinds, unique ids, capacity and width budget.
func (b Board) Validate() error {
	if b.MaxWidgetsPerColumn < MinWidgetsPerColumnLimit || b.MaxWidgetsPerColumn > MaxWidgetsPerColumnLimit {
		return ErrInvalidCapacity
	}
	if b.Blur < 0 || b.Blur > MaxBlur {
		return ErrInvalidBlur
	}
	if err := b.Background.Validate(); err != nil {
		return err
	}
	seen := map[string]struct{}{}
	for i, col := range b.Columns {
		if col.ID != columnOrder[i] {
			return fmt.Errorf("%w: %q at position %d", ErrInvalidColumnID, col.ID, i)
		}
		if col.Width < 0 || col.Width > MaxWidthBudget {
			return fmt.Errorf("%w: %s=%d", ErrInvalidWidth, col.ID, col.Width)
		}
		if len(col.Items) > b.MaxWidgetsPerColumn {
			return fmt.Errorf("%w: %s holds %d widgets (max %d)", ErrCapacityExceeded, col.ID, len(col.Items), b.MaxWidgetsPerColumn)
		}
		for _, w := range col.Items {
			if strings.TrimSpace(w.ID) == "" {
				return fmt.Errorf("%w: empty widget id in %s", ErrInvalidID, col.ID)
			}
			if _, dup := seen[w.ID]; dup {
				return fmt.Errorf("%w: %s", ErrDuplicateWidgetID, w.ID)
			}
			seen[w.ID] = struct{}{}
			if !w.Kind.Valid() {
				return fmt.Errorf("%w: %q", ErrInvalidWidgetKind, w.Kind)
			}
			if !validCustomHeight(w.CustomHeight) {
				return fmt.Errorf("%w: %s=%d", ErrInvalidHeight, w.ID, w.CustomHeight)
			}
			if _, err := ParsePositionPreference(string(w.PositionPreference)); err != nil {
				return fmt.Errorf("%w: %s", err, w.ID)
			}
		}
	}
	if !WidthBudgetValid(b.Widths()) {
		return ErrWidthBudgetExceeded
	}
	return nil
}
