package domain

// WidgetSlot describes how much of its column a widget is rendered with.
// Auto slots size to content.
type WidgetSlot struct {
	WidgetID      string
	HeightPercent float64
	Auto          bool
}

// ColumnLayout is the render plan for one column.
type ColumnLayout struct {
	ColumnID    ColumnID
	Width       int
	Slots       []WidgetSlot
	Align       PositionPreference
	HeightTotal int
	Invalid     bool
}

// Layout computes the render plan for column id. Widgets with a custom height
// keep it; the rest split the column evenly for up to three widgets and size
// to content beyond that. A sole widget without a custom height is aligned by
// its position preference.
func (b Board) Layout(id ColumnID) ColumnLayout {
	col := b.Column(id)
	out := ColumnLayout{
		ColumnID:    col.ID,
		Width:       col.Width,
		Slots:       make([]WidgetSlot, 0, len(col.Items)),
		Align:       PositionTop,
		HeightTotal: col.CustomHeightTotal(),
	}
	out.Invalid = out.HeightTotal > MaxHeightBudget

	shared, auto := sharedHeight(len(col.Items))
	for _, w := range col.Items {
		slot := WidgetSlot{WidgetID: w.ID}
		switch {
		case w.HasCustomHeight():
			slot.HeightPercent = float64(w.CustomHeight)
		case auto:
			slot.Auto = true
		default:
			slot.HeightPercent = shared
		}
		out.Slots = append(out.Slots, slot)
	}
	if len(col.Items) == 1 && !col.Items[0].HasCustomHeight() {
		out.Align = col.Items[0].PositionPreference.Alignment()
		out.Slots[0] = WidgetSlot{WidgetID: col.Items[0].ID, Auto: true}
	}
	return out
}

func sharedHeight(count int) (float64, bool) {
	switch count {
	case 1:
		return 100, false
	case 2:
		return 50, false
	case 3:
		return 33.33, false
	default:
		return 0, true
	}
}
