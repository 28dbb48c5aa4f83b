package tui

import (
	"math"

	"github.com/evanschultz/widgethub/internal/domain"
)

// Screen geometry shared by rendering and mouse hit testing.
const (
	boardTop       = 2 // header line and one blank line
	footerHeight   = 3 // status line plus the bordered help line
	minBoardHeight = 8
	minColumnCells = 12
	autoCardRows   = 4
	minCardRows    = 3
	fallbackWidth  = 120
	fallbackHeight = 30
)

// widgetRect is one widget card on screen, in absolute rows.
type widgetRect struct {
	id     string
	top    int
	height int
}

// columnRect is one column box on screen. left and width include the border.
type columnRect struct {
	id      domain.ColumnID
	left    int
	width   int
	top     int
	height  int
	widgets []widgetRect
}

// areaTop is the first row below the column title.
func (c columnRect) areaTop() int {
	return c.top + 2
}

// areaHeight is the number of rows available to widget cards.
func (c columnRect) areaHeight() int {
	return max(1, c.height-3)
}

// screenSize falls back to a fixed size before the first WindowSizeMsg.
func (m Model) screenSize() (int, int) {
	w, h := m.width, m.height
	if w <= 0 {
		w = fallbackWidth
	}
	if h <= 0 {
		h = fallbackHeight
	}
	return w, h
}

// boardHeight returns the outer height of every column box.
func (m Model) boardHeight() int {
	_, h := m.screenSize()
	return max(minBoardHeight, h-boardTop-footerHeight)
}

// columnRects lays the three columns out left to right. Each takes its width
// percentage of the terminal; narrow columns keep a usable minimum.
func (m Model) columnRects() []columnRect {
	total, _ := m.screenSize()
	height := m.boardHeight()
	out := make([]columnRect, 0, len(domain.ColumnIDs()))
	x := 0
	for _, id := range domain.ColumnIDs() {
		col := m.board.Column(id)
		rect := columnRect{
			id:     id,
			left:   x,
			width:  max(minColumnCells, total*col.Width/100),
			top:    boardTop,
			height: height,
		}
		rect.widgets = cardRects(m.board.Layout(id), rect)
		out = append(out, rect)
		x += rect.width
	}
	return out
}

// cardRects turns a column layout into card rows. Percent slots scale to the
// widget area; auto slots get a fixed card height.
func cardRects(layout domain.ColumnLayout, rect columnRect) []widgetRect {
	areaHeight := rect.areaHeight()
	rows := make([]int, len(layout.Slots))
	used := 0
	for i, slot := range layout.Slots {
		r := autoCardRows
		if !slot.Auto {
			r = max(minCardRows, int(math.Round(float64(areaHeight)*slot.HeightPercent/100)))
		}
		rows[i] = r
		used += r
	}

	offset := 0
	if len(rows) == 1 {
		switch layout.Align {
		case domain.PositionMiddle:
			offset = max(0, (areaHeight-used)/2)
		case domain.PositionBottom:
			offset = max(0, areaHeight-used)
		}
	}

	out := make([]widgetRect, 0, len(rows))
	y := rect.areaTop() + offset
	for i, slot := range layout.Slots {
		out = append(out, widgetRect{id: slot.WidgetID, top: y, height: rows[i]})
		y += rows[i]
	}
	return out
}

// dropTargetAt resolves a screen cell to a drop target. Cells over a card
// target that widget, with below set in its lower half; other cells inside a
// column target the column itself.
func (m Model) dropTargetAt(x, y int) (domain.DropTarget, bool) {
	for _, col := range m.columnRects() {
		if x < col.left || x >= col.left+col.width {
			continue
		}
		if y < col.top || y >= col.top+col.height {
			return domain.DropTarget{}, false
		}
		for _, w := range col.widgets {
			if y >= w.top && y < w.top+w.height {
				return domain.WidgetTarget(w.id, y-w.top >= w.height/2), true
			}
		}
		return domain.ColumnTarget(col.id), true
	}
	return domain.DropTarget{}, false
}

// cellAt returns the column index and widget index under a screen cell.
// widgetIdx is -1 when the cell is inside a column but not on a card.
func (m Model) cellAt(x, y int) (colIdx, widgetIdx int, ok bool) {
	for ci, col := range m.columnRects() {
		if x < col.left || x >= col.left+col.width || y < col.top || y >= col.top+col.height {
			continue
		}
		for wi, w := range col.widgets {
			if y >= w.top && y < w.top+w.height {
				return ci, wi, true
			}
		}
		return ci, -1, true
	}
	return 0, -1, false
}
