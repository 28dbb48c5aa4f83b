package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/evanschultz/widgethub/internal/domain"
)

// SnapshotStorageKey is the key the board document is stored under.
const SnapshotStorageKey = "widgethub-config"

// Snapshot is the persisted, exported and imported board document.
type Snapshot struct {
	Columns             map[domain.ColumnID][]SnapshotWidget `json:"columns"`
	ColumnWidths        SnapshotColumnWidths                 `json:"columnWidths"`
	Background          SnapshotBackground                   `json:"background"`
	Blur                int                                  `json:"blur"`
	IsEditing           bool                                 `json:"isEditing"`
	MaxWidgetsPerColumn int                                  `json:"maxWidgetsPerColumn"`
}

// SnapshotWidget represents one widget record in a snapshot.
type SnapshotWidget struct {
	ID                 string          `json:"id"`
	Type               string          `json:"type"`
	PositionPreference string          `json:"positionPreference,omitempty"`
	CustomHeight       int             `json:"customHeight,omitempty"`
	Settings           domain.Settings `json:"settings"`
}

// SnapshotColumnWidths holds the per-column width percentages.
type SnapshotColumnWidths struct {
	Left   int `json:"left"`
	Middle int `json:"middle"`
	Right  int `json:"right"`
}

// SnapshotBackground represents the styling background.
type SnapshotBackground struct {
	ActiveType string `json:"activeType"`
	ImageValue string `json:"imageValue"`
	ColorValue string `json:"colorValue"`
}

// SnapshotFromBoard converts a board into its document form.
func SnapshotFromBoard(b domain.Board) Snapshot {
	snap := Snapshot{
		Columns: make(map[domain.ColumnID][]SnapshotWidget, len(b.Columns)),
		ColumnWidths: SnapshotColumnWidths{
			Left:   b.Column(domain.ColumnLeft).Width,
			Middle: b.Column(domain.ColumnMiddle).Width,
			Right:  b.Column(domain.ColumnRight).Width,
		},
		Background: SnapshotBackground{
			ActiveType: string(b.Background.ActiveType),
			ImageValue: b.Background.ImageValue,
			ColorValue: b.Background.ColorValue,
		},
		Blur:                b.Blur,
		IsEditing:           b.IsEditing,
		MaxWidgetsPerColumn: b.MaxWidgetsPerColumn,
	}
	for _, col := range b.Columns {
		items := make([]SnapshotWidget, 0, len(col.Items))
		for _, w := range col.Items {
			items = append(items, snapshotWidgetFromDomain(w))
		}
		snap.Columns[col.ID] = items
	}
	return snap
}

// EncodeSnapshot renders b as an indented JSON document.
func EncodeSnapshot(b domain.Board) ([]byte, error) {
	data, err := json.MarshalIndent(SnapshotFromBoard(b), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeImport parses a user-supplied document. It must carry columns and
// background; the result replaces the board wholesale, with hardcoded defaults
// only for optional fields that are absent. Any invalid content rejects the
// whole document.
func DecodeImport(data []byte) (domain.Board, error) {
	raw, err := parseStoredSnapshot(data)
	if err != nil {
		return domain.Board{}, err
	}
	if raw.Columns == nil {
		return domain.Board{}, fmt.Errorf("%w: columns is required", ErrInvalidSnapshot)
	}
	if raw.Background == nil {
		return domain.Board{}, fmt.Errorf("%w: background is required", ErrInvalidSnapshot)
	}

	b := domain.DefaultBoard()
	for key := range raw.Columns {
		if _, err := domain.ParseColumnID(key); err != nil {
			return domain.Board{}, fmt.Errorf("%w: unknown column %q", ErrInvalidSnapshot, key)
		}
	}
	for i, id := range domain.ColumnIDs() {
		items := make([]domain.Widget, 0, len(raw.Columns[string(id)]))
		for idx, sw := range raw.Columns[string(id)] {
			w, err := sw.toDomain()
			if err != nil {
				return domain.Board{}, fmt.Errorf("%w: columns.%s[%d]: %w", ErrInvalidSnapshot, id, idx, err)
			}
			items = append(items, w)
		}
		b.Columns[i].Items = items
	}

	if raw.ColumnWidths != nil {
		widths, err := raw.ColumnWidths.toDomain()
		if err != nil {
			return domain.Board{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
		}
		for i, id := range domain.ColumnIDs() {
			b.Columns[i].Width = widths.Get(id)
		}
	}
	b.Background = raw.Background.merge(domain.Background{})
	if raw.Blur != nil {
		b.Blur = roundInt(*raw.Blur)
	}
	if raw.IsEditing != nil {
		b.IsEditing = *raw.IsEditing
	}
	if raw.MaxWidgetsPerColumn != nil {
		b.MaxWidgetsPerColumn = roundInt(*raw.MaxWidgetsPerColumn)
	}

	if err := b.Validate(); err != nil {
		return domain.Board{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return b, nil
}

// DecodeStored parses a previously persisted document on top of defaults. Each
// absent or unusable field falls back to its default on its own, so snapshots
// written by older versions still load. Entries that had to be dropped or
// repaired are reported as warnings.
func DecodeStored(data []byte, defaults domain.Board) (domain.Board, []string, error) {
	raw, err := parseStoredSnapshot(data)
	if err != nil {
		return domain.Board{}, nil, err
	}

	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	b := defaults
	seen := map[string]struct{}{}
	for key := range raw.Columns {
		if _, err := domain.ParseColumnID(key); err != nil {
			warn("dropped unknown column %q", key)
		}
	}
	for i, id := range domain.ColumnIDs() {
		items := make([]domain.Widget, 0, len(raw.Columns[string(id)]))
		for idx, sw := range raw.Columns[string(id)] {
			w, err := sw.toDomain()
			if errors.Is(err, domain.ErrInvalidHeight) {
				warn("cleared custom height of %s", sw.ID)
				sw.CustomHeight = nil
				w, err = sw.toDomain()
			}
			if err != nil {
				warn("dropped columns.%s[%d]: %v", id, idx, err)
				continue
			}
			if _, dup := seen[w.ID]; dup {
				warn("dropped duplicate widget %s in %s", w.ID, id)
				continue
			}
			seen[w.ID] = struct{}{}
			items = append(items, w)
		}
		b.Columns[i].Items = items
	}

	if raw.ColumnWidths != nil {
		widths, err := raw.ColumnWidths.toDomain()
		switch {
		case err != nil:
			warn("ignored column widths: %v", err)
		case !domain.WidthBudgetValid(widths):
			warn("ignored column widths summing to %d", widths.Sum())
		default:
			for i, id := range domain.ColumnIDs() {
				b.Columns[i].Width = widths.Get(id)
			}
		}
	}
	if raw.Background != nil {
		bg := raw.Background.merge(defaults.Background)
		if err := bg.Validate(); err != nil {
			warn("ignored background: %v", err)
		} else {
			b.Background = bg
		}
	}
	if raw.Blur != nil {
		if blur := roundInt(*raw.Blur); blur >= 0 && blur <= domain.MaxBlur {
			b.Blur = blur
		} else {
			warn("ignored blur %d", blur)
		}
	}
	if raw.IsEditing != nil {
		b.IsEditing = *raw.IsEditing
	}
	if raw.MaxWidgetsPerColumn != nil {
		n := roundInt(*raw.MaxWidgetsPerColumn)
		if n >= domain.MinWidgetsPerColumnLimit && n <= domain.MaxWidgetsPerColumnLimit {
			b.MaxWidgetsPerColumn = n
		} else {
			warn("ignored maxWidgetsPerColumn %d", n)
		}
	}

	if fullest := b.FullestColumnCount(); fullest > b.MaxWidgetsPerColumn {
		if fullest <= domain.MaxWidgetsPerColumnLimit {
			warn("raised maxWidgetsPerColumn from %d to %d", b.MaxWidgetsPerColumn, fullest)
			b.MaxWidgetsPerColumn = fullest
		} else {
			for i := range b.Columns {
				if extra := len(b.Columns[i].Items) - b.MaxWidgetsPerColumn; extra > 0 {
					warn("dropped %d widgets over capacity in %s", extra, b.Columns[i].ID)
					b.Columns[i].Items = slices.Clone(b.Columns[i].Items[:b.MaxWidgetsPerColumn])
				}
			}
		}
	}
	return b, warnings, nil
}

type storedSnapshot struct {
	Columns             map[string][]storedWidget `json:"columns"`
	ColumnWidths        *storedColumnWidths       `json:"columnWidths"`
	Background          *storedBackground         `json:"background"`
	Blur                *float64                  `json:"blur"`
	IsEditing           *bool                     `json:"isEditing"`
	MaxWidgetsPerColumn *float64                  `json:"maxWidgetsPerColumn"`
}

type storedWidget struct {
	ID                 string         `json:"id"`
	Type               string         `json:"type"`
	PositionPreference string         `json:"positionPreference"`
	CustomHeight       *float64       `json:"customHeight"`
	Settings           map[string]any `json:"settings"`
}

type storedColumnWidths struct {
	Left   *float64 `json:"left"`
	Middle *float64 `json:"middle"`
	Right  *float64 `json:"right"`
}

type storedBackground struct {
	ActiveType *string `json:"activeType"`
	ImageValue *string `json:"imageValue"`
	ColorValue *string `json:"colorValue"`
}

func parseStoredSnapshot(data []byte) (storedSnapshot, error) {
	var raw storedSnapshot
	if len(strings.TrimSpace(string(data))) == 0 {
		return raw, fmt.Errorf("%w: empty document", ErrInvalidSnapshot)
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return storedSnapshot{}, fmt.Errorf("%w: decode: %w", ErrInvalidSnapshot, err)
	}
	return raw, nil
}

func (w storedWidget) toDomain() (domain.Widget, error) {
	widget, err := domain.NewWidget(w.ID, domain.WidgetKind(w.Type))
	if err != nil {
		return domain.Widget{}, err
	}
	pref, err := domain.ParsePositionPreference(w.PositionPreference)
	if err != nil {
		return domain.Widget{}, err
	}
	widget.PositionPreference = pref
	if w.CustomHeight != nil {
		height := roundInt(*w.CustomHeight)
		if height < 0 || height > domain.MaxHeightBudget {
			return domain.Widget{}, domain.ErrInvalidHeight
		}
		widget.CustomHeight = height
	}
	if w.Settings != nil {
		widget.Settings = domain.Settings(w.Settings)
	}
	return widget, nil
}

func (w storedColumnWidths) toDomain() (domain.ColumnWidths, error) {
	fields := []struct {
		name string
		v    *float64
	}{{"left", w.Left}, {"middle", w.Middle}, {"right", w.Right}}
	values := make([]int, 0, len(fields))
	for _, f := range fields {
		if f.v == nil {
			return domain.ColumnWidths{}, fmt.Errorf("columnWidths.%s is required", f.name)
		}
		v := roundInt(*f.v)
		if v < 0 || v > domain.MaxWidthBudget {
			return domain.ColumnWidths{}, fmt.Errorf("columnWidths.%s out of range: %d", f.name, v)
		}
		values = append(values, v)
	}
	return domain.ColumnWidths{Left: values[0], Middle: values[1], Right: values[2]}, nil
}

func (b storedBackground) merge(base domain.Background) domain.Background {
	if b.ActiveType != nil {
		base.ActiveType = domain.BackgroundType(strings.ToLower(strings.TrimSpace(*b.ActiveType)))
	}
	if b.ImageValue != nil {
		base.ImageValue = *b.ImageValue
	}
	if b.ColorValue != nil {
		base.ColorValue = *b.ColorValue
	}
	return base
}

func snapshotWidgetFromDomain(w domain.Widget) SnapshotWidget {
	return SnapshotWidget{
		ID:                 w.ID,
		Type:               string(w.Kind),
		PositionPreference: string(w.PositionPreference),
		CustomHeight:       w.CustomHeight,
		Settings:           w.Settings.Clone(),
	}
}

func roundInt(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return -1
	}
	return int(math.Round(v))
}
