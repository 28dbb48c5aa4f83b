package domain

import (
	"maps"
	"slices"
	"strings"
)

// WidgetKind identifies which widget implementation renders a record.
type WidgetKind string

// WidgetKind values accepted on the board.
const (
	WidgetKindTime        WidgetKind = "time"
	WidgetKindDate        WidgetKind = "date"
	WidgetKindTodo        WidgetKind = "todo"
	WidgetKindYouTube     WidgetKind = "youtube"
	WidgetKindPomodoro    WidgetKind = "pomodoro"
	WidgetKindWeather     WidgetKind = "weather"
	WidgetKindSpotify     WidgetKind = "spotify"
	WidgetKindSpotifyMini WidgetKind = "spotify-mini"
	WidgetKindWaterLog    WidgetKind = "waterlog"
	WidgetKindSpacer      WidgetKind = "spacer"
)

var validWidgetKinds = []WidgetKind{
	WidgetKindTime,
	WidgetKindDate,
	WidgetKindTodo,
	WidgetKindYouTube,
	WidgetKindPomodoro,
	WidgetKindWeather,
	WidgetKindWaterLog,
	WidgetKindSpotify,
	WidgetKindSpotifyMini,
	WidgetKindSpacer,
}

// WidgetKinds returns every supported kind in picker order.
func WidgetKinds() []WidgetKind {
	return slices.Clone(validWidgetKinds)
}

// NormalizeWidgetKind trims and lowercases a raw kind value.
func NormalizeWidgetKind(raw string) WidgetKind {
	return WidgetKind(strings.TrimSpace(strings.ToLower(raw)))
}

// Valid reports whether the kind belongs to the closed set.
func (k WidgetKind) Valid() bool {
	return slices.Contains(validWidgetKinds, k)
}

// PositionPreference controls vertical alignment of a sole widget.
type PositionPreference string

// PositionPreference values.
const (
	PositionTop    PositionPreference = "top"
	PositionMiddle PositionPreference = "middle"
	PositionBottom PositionPreference = "bottom"
	PositionAuto   PositionPreference = "auto"
)

// ParsePositionPreference validates a raw preference. Empty input means unset.
func ParsePositionPreference(raw string) (PositionPreference, error) {
	pref := PositionPreference(strings.TrimSpace(strings.ToLower(raw)))
	switch pref {
	case "", PositionTop, PositionMiddle, PositionBottom, PositionAuto:
		return pref, nil
	default:
		return "", ErrInvalidPosition
	}
}

// Alignment resolves the preference to a concrete alignment, defaulting to top.
func (p PositionPreference) Alignment() PositionPreference {
	switch p {
	case PositionMiddle, PositionBottom:
		return p
	default:
		return PositionTop
	}
}

// Settings is the opaque per-widget key/value bag. The board never mutates a
// Settings value in place; merges always produce a new map.
type Settings map[string]any

// Clone returns a shallow copy of the bag.
func (s Settings) Clone() Settings {
	if s == nil {
		return Settings{}
	}
	return maps.Clone(s)
}

// Merge returns a new bag with partial laid over s. Keys absent from partial
// are preserved.
func (s Settings) Merge(partial Settings) Settings {
	out := s.Clone()
	maps.Copy(out, partial)
	return out
}

// Widget represents one record placed in a column.
type Widget struct {
	ID                 string
	Kind               WidgetKind
	PositionPreference PositionPreference
	CustomHeight       int
	Settings           Settings
}

// NewWidget constructs a widget with empty settings.
func NewWidget(id string, kind WidgetKind) (Widget, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Widget{}, ErrInvalidID
	}
	kind = NormalizeWidgetKind(string(kind))
	if !kind.Valid() {
		return Widget{}, ErrInvalidWidgetKind
	}
	return Widget{
		ID:       id,
		Kind:     kind,
		Settings: Settings{},
	}, nil
}

// HasCustomHeight reports whether the widget claims an explicit share of the column.
func (w Widget) HasCustomHeight() bool {
	return w.CustomHeight > 0
}

func validCustomHeight(percent int) bool {
	return percent >= 0 && percent <= MaxHeightBudget
}
