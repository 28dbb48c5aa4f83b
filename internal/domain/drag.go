package domain

import (
	"slices"
	"strings"
)

// DropTarget is what the pointer is over during a drag: either empty space in
// a column or another widget. Below marks the lower half of a target widget.
type DropTarget struct {
	ColumnID ColumnID
	WidgetID string
	Below    bool
}

// ColumnTarget targets empty space in a column.
func ColumnTarget(id ColumnID) DropTarget {
	return DropTarget{ColumnID: id}
}

// WidgetTarget targets a sibling widget.
func WidgetTarget(widgetID string, below bool) DropTarget {
	return DropTarget{WidgetID: widgetID, Below: below}
}

// IsColumn reports whether the target is a column rather than a widget.
func (t DropTarget) IsColumn() bool {
	return t.WidgetID == ""
}

// DragOutcome reports what a drag step did to the board.
type DragOutcome int

// DragOutcome values.
const (
	DragUnchanged DragOutcome = iota
	DragMoved
	DragRejectedFull
	DragUnresolved
)

// String returns a stable label for logs and API payloads.
func (o DragOutcome) String() string {
	switch o {
	case DragMoved:
		return "moved"
	case DragRejectedFull:
		return "rejected_full"
	case DragUnresolved:
		return "unresolved"
	default:
		return "unchanged"
	}
}

// DragOver applies one live reflow step while a widget is dragged over target.
// Same-column and cross-column targets both reorder live, so the preview always
// matches what DragEnd will commit.
func (b Board) DragOver(activeID string, target DropTarget) (Board, DragOutcome) {
	return b.reflow(activeID, target)
}

// DragEnd commits the final position of a drag. Dropping a widget onto its own
// slot returns the board unchanged. A same-column drop onto a sibling moves
// the widget to that sibling's index, shifting the items in between.
func (b Board) DragEnd(activeID string, target DropTarget) (Board, DragOutcome) {
	return b.reflow(activeID, target)
}

func (b Board) reflow(activeID string, target DropTarget) (Board, DragOutcome) {
	activeID = strings.TrimSpace(activeID)
	target.WidgetID = strings.TrimSpace(target.WidgetID)
	if !target.IsColumn() && target.WidgetID == activeID {
		return b, DragUnchanged
	}

	srcID, srcIdx, ok := b.Locate(activeID)
	if !ok {
		return b, DragUnresolved
	}
	dstID := target.ColumnID
	overIdx := -1
	if !target.IsColumn() {
		dstID, overIdx, ok = b.Locate(target.WidgetID)
		if !ok {
			return b, DragUnresolved
		}
	} else if !dstID.Valid() {
		return b, DragUnresolved
	}

	if srcID != dstID && !ColumnHasCapacity(b, dstID) {
		return b, DragRejectedFull
	}

	si, di := srcID.index(), dstID.index()
	active := b.Columns[si].Items[srcIdx]
	remaining := slices.Delete(slices.Clone(b.Columns[si].Items), srcIdx, srcIdx+1)

	dst := remaining
	if srcID != dstID {
		dst = slices.Clone(b.Columns[di].Items)
	}
	insertAt := len(dst)
	switch {
	case target.IsColumn():
	case srcID == dstID:
		// Within a column the widget takes the sibling's current slot, so
		// Below has no effect.
		insertAt = overIdx
	default:
		insertAt = overIdx
		if target.Below {
			insertAt++
		}
	}
	if srcID == dstID && insertAt == srcIdx {
		return b, DragUnchanged
	}

	b.Columns[di].Items = slices.Insert(dst, insertAt, active)
	if srcID != dstID {
		b.Columns[si].Items = remaining
	}
	return b, DragMoved
}

// DragSession tracks one drag gesture from grab to release or cancel.
// The zero value is idle.
type DragSession struct {
	activeID   string
	originCol  ColumnID
	originIdx  int
	lastResult DragOutcome
}

// Active returns the dragged widget id while a gesture is in progress.
func (s *DragSession) Active() (string, bool) {
	return s.activeID, s.activeID != ""
}

// Origin returns where the active widget was grabbed.
func (s *DragSession) Origin() (ColumnID, int) {
	return s.originCol, s.originIdx
}

// LastOutcome returns the result of the most recent Over or End step.
func (s *DragSession) LastOutcome() DragOutcome {
	return s.lastResult
}

// Begin grabs widgetID on b.
func (s *DragSession) Begin(b Board, widgetID string) error {
	if s.activeID != "" {
		return ErrDragAlreadyActive
	}
	widgetID = strings.TrimSpace(widgetID)
	colID, idx, ok := b.Locate(widgetID)
	if !ok {
		return ErrWidgetNotFound
	}
	s.activeID = widgetID
	s.originCol = colID
	s.originIdx = idx
	s.lastResult = DragUnchanged
	return nil
}

// Over applies a live reflow step. It is a no-op while idle.
func (s *DragSession) Over(b Board, target DropTarget) (Board, DragOutcome) {
	if s.activeID == "" {
		return b, DragUnresolved
	}
	next, outcome := b.DragOver(s.activeID, target)
	s.lastResult = outcome
	return next, outcome
}

// End commits the drag and returns the session to idle whether or not the
// widget moved.
func (s *DragSession) End(b Board, target DropTarget) (Board, DragOutcome) {
	if s.activeID == "" {
		return b, DragUnresolved
	}
	next, outcome := b.DragEnd(s.activeID, target)
	s.reset()
	s.lastResult = outcome
	return next, outcome
}

// Cancel abandons the gesture and puts the widget back where it was grabbed.
// If the widget has since been removed, or its origin column filled up, the
// board is returned as is; the widget is never dropped or duplicated.
func (s *DragSession) Cancel(b Board) Board {
	if s.activeID == "" {
		return b
	}
	activeID, originCol, originIdx := s.activeID, s.originCol, s.originIdx
	s.reset()

	colID, idx, ok := b.Locate(activeID)
	if !ok {
		return b
	}
	if colID == originCol && idx == originIdx {
		return b
	}
	if colID != originCol && !ColumnHasCapacity(b, originCol) {
		return b
	}
	si, oi := colID.index(), originCol.index()
	active := b.Columns[si].Items[idx]
	b.Columns[si].Items = slices.Delete(slices.Clone(b.Columns[si].Items), idx, idx+1)
	origin := slices.Clone(b.Columns[oi].Items)
	b.Columns[oi].Items = slices.Insert(origin, min(originIdx, len(origin)), active)
	return b
}

func (s *DragSession) reset() {
	s.activeID = ""
	s.originCol = ""
	s.originIdx = 0
}
