package domain

// Budget ceilings, in percent.
const (
	MaxHeightBudget = 100
	MaxWidthBudget  = 100
)

// ColumnHasCapacity reports whether column id can accept another widget.
func ColumnHasCapacity(b Board, id ColumnID) bool {
	if !id.Valid() {
		return false
	}
	return len(b.Column(id).Items) < b.MaxWidgetsPerColumn
}

// HeightBudgetValid reports whether the custom heights in column id fit in 100%.
// A column without custom heights is always valid.
func HeightBudgetValid(b Board, id ColumnID) bool {
	return b.Column(id).CustomHeightTotal() <= MaxHeightBudget
}

// WidthBudgetValid reports whether the proposed widths fit in 100%.
func WidthBudgetValid(widths ColumnWidths) bool {
	return widths.Sum() <= MaxWidthBudget
}

// InvalidColumns lists the columns whose custom heights exceed the budget.
func (b Board) InvalidColumns() []ColumnID {
	var out []ColumnID
	for _, id := range columnOrder {
		if !HeightBudgetValid(b, id) {
			out = append(out, id)
		}
	}
	return out
}

// Valid reports whether every column is within its height budget.
func (b Board) Valid() bool {
	return len(b.InvalidColumns()) == 0
}
