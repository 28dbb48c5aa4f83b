package domain

import (
	"slices"
	"strings"
)

// ColumnID names one of the three fixed board columns.
type ColumnID string

// ColumnID values in their fixed left-to-right order.
const (
	ColumnLeft   ColumnID = "left"
	ColumnMiddle ColumnID = "middle"
	ColumnRight  ColumnID = "right"
)

var columnOrder = [columnCount]ColumnID{ColumnLeft, ColumnMiddle, ColumnRight}

const columnCount = 3

// ColumnIDs returns the column ids in display order.
func ColumnIDs() []ColumnID {
	return slices.Clone(columnOrder[:])
}

// ParseColumnID validates a raw column identifier.
func ParseColumnID(raw string) (ColumnID, error) {
	id := ColumnID(strings.TrimSpace(strings.ToLower(raw)))
	if id.index() < 0 {
		return "", ErrInvalidColumnID
	}
	return id, nil
}

// Valid reports whether the id is one of the fixed columns.
func (id ColumnID) Valid() bool {
	return id.index() >= 0
}

func (id ColumnID) index() int {
	for i, candidate := range columnOrder {
		if candidate == id {
			return i
		}
	}
	return -1
}

// Column holds the ordered widgets of one board column.
type Column struct {
	ID    ColumnID
	Items []Widget
	Width int
}

// IndexOf returns the position of a widget in the column, or -1.
func (c Column) IndexOf(widgetID string) int {
	return slices.IndexFunc(c.Items, func(w Widget) bool {
		return w.ID == widgetID
	})
}

// CustomHeightTotal sums the explicit heights claimed in the column.
func (c Column) CustomHeightTotal() int {
	total := 0
	for _, w := range c.Items {
		if w.HasCustomHeight() {
			total += w.CustomHeight
		}
	}
	return total
}

// ColumnWidths carries one width percentage per column.
type ColumnWidths struct {
	Left   int
	Middle int
	Right  int
}

// DefaultColumnWidths returns the 25/50/25 split.
func DefaultColumnWidths() ColumnWidths {
	return ColumnWidths{Left: 25, Middle: 50, Right: 25}
}

// Get returns the width recorded for id.
func (w ColumnWidths) Get(id ColumnID) int {
	switch id {
	case ColumnLeft:
		return w.Left
	case ColumnMiddle:
		return w.Middle
	case ColumnRight:
		return w.Right
	default:
		return 0
	}
}

// With returns a copy with id set to percent.
func (w ColumnWidths) With(id ColumnID, percent int) ColumnWidths {
	switch id {
	case ColumnLeft:
		w.Left = percent
	case ColumnMiddle:
		w.Middle = percent
	case ColumnRight:
		w.Right = percent
	}
	return w
}

// Sum adds all three widths.
func (w ColumnWidths) Sum() int {
	return w.Left + w.Middle + w.Right
}

// SumExcept adds the widths of the two columns other than id.
func (w ColumnWidths) SumExcept(id ColumnID) int {
	return w.Sum() - w.Get(id)
}
