// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidRequest reports malformed or out-of-range transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrConflict reports requests the current board cannot accept, such as a full
// column or an exhausted width budget.
var ErrConflict = errors.New("conflict")

// BoardService is the board surface shared by the HTTP and MCP adapters.
type BoardService interface {
	GetBoard(context.Context) (BoardView, error)
	AddWidget(context.Context, AddWidgetRequest) (AddWidgetResult, error)
	RemoveWidget(context.Context, string) (RemoveWidgetResult, error)
	UpdateWidget(context.Context, UpdateWidgetRequest) (BoardView, error)
	SetColumnWidth(context.Context, SetColumnWidthRequest) (BoardView, error)
	MoveWidget(context.Context, MoveWidgetRequest) (MoveWidgetResult, error)
	UpdateSettings(context.Context, UpdateSettingsRequest) (BoardView, error)
	ExportSnapshot(context.Context) ([]byte, error)
	ImportSnapshot(context.Context, []byte) (BoardView, error)
	ListActivity(context.Context, int) ([]ActivityEntry, error)
}

// BoardView is the transport shape of the whole board, including its layout.
type BoardView struct {
	Revision            uint64         `json:"revision"`
	Columns             []ColumnView   `json:"columns"`
	MaxWidgetsPerColumn int            `json:"maxWidgetsPerColumn"`
	IsEditing           bool           `json:"isEditing"`
	Blur                int            `json:"blur"`
	Background          BackgroundView `json:"background"`
	WidthTotal          int            `json:"widthTotal"`
}

// ColumnView describes one column and its render plan.
type ColumnView struct {
	ID          string       `json:"id"`
	Width       int          `json:"width"`
	Align       string       `json:"align"`
	HeightTotal int          `json:"heightTotal"`
	Invalid     bool         `json:"invalid"`
	Full        bool         `json:"full"`
	Widgets     []WidgetView `json:"widgets"`
}

// WidgetView describes one widget and its resolved height.
type WidgetView struct {
	ID                 string         `json:"id"`
	Type               string         `json:"type"`
	PositionPreference string         `json:"positionPreference,omitempty"`
	CustomHeight       int            `json:"customHeight,omitempty"`
	Settings           map[string]any `json:"settings"`
	HeightPercent      float64        `json:"heightPercent,omitempty"`
	AutoHeight         bool           `json:"autoHeight,omitempty"`
}

// BackgroundView mirrors the stored background fields.
type BackgroundView struct {
	ActiveType string `json:"activeType"`
	ImageValue string `json:"imageValue"`
	ColorValue string `json:"colorValue"`
}

// AddWidgetRequest asks for a new widget of Kind.
type AddWidgetRequest struct {
	Kind string `json:"kind"`
}

// AddWidgetResult reports where the new widget was placed.
type AddWidgetResult struct {
	Widget WidgetView `json:"widget"`
	Column string     `json:"column"`
	Board  BoardView  `json:"board"`
}

// RemoveWidgetResult reports whether anything was removed.
type RemoveWidgetResult struct {
	Removed bool      `json:"removed"`
	Board   BoardView `json:"board"`
}

// UpdateWidgetRequest carries optional per-widget changes.
type UpdateWidgetRequest struct {
	ID                 string         `json:"-"`
	CustomHeight       *int           `json:"customHeight,omitempty"`
	PositionPreference *string        `json:"positionPreference,omitempty"`
	Settings           map[string]any `json:"settings,omitempty"`
}

// SetColumnWidthRequest sets one column width in percent.
type SetColumnWidthRequest struct {
	Column string `json:"-"`
	Width  int    `json:"width"`
}

// MoveWidgetRequest drops WidgetID onto a column or next to another widget.
// TargetWidgetID wins over Column when both are set.
type MoveWidgetRequest struct {
	WidgetID       string `json:"widgetId"`
	Column         string `json:"column,omitempty"`
	TargetWidgetID string `json:"targetWidgetId,omitempty"`
	Below          bool   `json:"below,omitempty"`
}

// MoveWidgetResult reports the reflow outcome.
type MoveWidgetResult struct {
	Outcome string    `json:"outcome"`
	Board   BoardView `json:"board"`
}

// UpdateSettingsRequest carries optional board-level changes.
type UpdateSettingsRequest struct {
	MaxWidgetsPerColumn *int            `json:"maxWidgetsPerColumn,omitempty"`
	Blur                *int            `json:"blur,omitempty"`
	Background          *BackgroundView `json:"background,omitempty"`
	IsEditing           *bool           `json:"isEditing,omitempty"`
}

// ActivityEntry is one activity ledger row.
type ActivityEntry struct {
	ID         string            `json:"id"`
	Operation  string            `json:"operation"`
	WidgetID   string            `json:"widgetId,omitempty"`
	Column     string            `json:"column,omitempty"`
	Source     string            `json:"source"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}
