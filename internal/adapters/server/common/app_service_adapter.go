package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/evanschultz/widgethub/internal/app"
	"github.com/evanschultz/widgethub/internal/domain"
)

// AppServiceAdapter maps transport contracts onto app.Service board APIs.
type AppServiceAdapter struct {
	service *app.Service
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

// GetBoard returns the current board.
func (a *AppServiceAdapter) GetBoard(_ context.Context) (BoardView, error) {
	if err := a.ready(); err != nil {
		return BoardView{}, err
	}
	return a.view(a.service.Board()), nil
}

// AddWidget places one new widget in the first column with room.
func (a *AppServiceAdapter) AddWidget(ctx context.Context, in AddWidgetRequest) (AddWidgetResult, error) {
	if err := a.ready(); err != nil {
		return AddWidgetResult{}, err
	}
	kind := domain.NormalizeWidgetKind(in.Kind)
	if !kind.Valid() {
		return AddWidgetResult{}, fmt.Errorf("add widget: %w", errors.Join(ErrInvalidRequest, domain.ErrInvalidWidgetKind, fmt.Errorf("unknown kind %q", in.Kind)))
	}
	board, widget, err := a.service.AddWidget(ctx, kind)
	if err != nil {
		return AddWidgetResult{}, mapAppError("add widget", err)
	}
	col, _, _ := board.Locate(widget.ID)
	view := a.view(board)
	out := AddWidgetResult{Column: string(col), Board: view}
	for _, c := range view.Columns {
		for _, w := range c.Widgets {
			if w.ID == widget.ID {
				out.Widget = w
			}
		}
	}
	return out, nil
}

// RemoveWidget deletes one widget; unknown ids are reported, not rejected.
func (a *AppServiceAdapter) RemoveWidget(ctx context.Context, widgetID string) (RemoveWidgetResult, error) {
	if err := a.ready(); err != nil {
		return RemoveWidgetResult{}, err
	}
	widgetID = strings.TrimSpace(widgetID)
	if widgetID == "" {
		return RemoveWidgetResult{}, fmt.Errorf("remove widget: %w", errors.Join(ErrInvalidRequest, domain.ErrInvalidID))
	}
	board, removed, err := a.service.RemoveWidget(ctx, widgetID)
	if err != nil {
		return RemoveWidgetResult{}, mapAppError("remove widget", err)
	}
	return RemoveWidgetResult{Removed: removed, Board: a.view(board)}, nil
}

// UpdateWidget applies height, position and settings changes together.
func (a *AppServiceAdapter) UpdateWidget(ctx context.Context, in UpdateWidgetRequest) (BoardView, error) {
	if err := a.ready(); err != nil {
		return BoardView{}, err
	}
	update := app.UpdateWidgetInput{
		CustomHeight: in.CustomHeight,
		Settings:     domain.Settings(in.Settings),
	}
	if in.PositionPreference != nil {
		pref, err := domain.ParsePositionPreference(*in.PositionPreference)
		if err != nil {
			return BoardView{}, mapAppError("update widget", err)
		}
		update.PositionPreference = &pref
	}
	board, err := a.service.UpdateWidget(ctx, strings.TrimSpace(in.ID), update)
	if err != nil {
		return BoardView{}, mapAppError("update widget", err)
	}
	return a.view(board), nil
}

// SetColumnWidth changes one column width.
func (a *AppServiceAdapter) SetColumnWidth(ctx context.Context, in SetColumnWidthRequest) (BoardView, error) {
	if err := a.ready(); err != nil {
		return BoardView{}, err
	}
	col, err := domain.ParseColumnID(in.Column)
	if err != nil {
		return BoardView{}, mapAppError("set column width", err)
	}
	board, err := a.service.SetColumnWidth(ctx, col, in.Width)
	if err != nil {
		return BoardView{}, mapAppError("set column width", err)
	}
	return a.view(board), nil
}

// MoveWidget performs one complete drag.
func (a *AppServiceAdapter) MoveWidget(ctx context.Context, in MoveWidgetRequest) (MoveWidgetResult, error) {
	if err := a.ready(); err != nil {
		return MoveWidgetResult{}, err
	}
	widgetID := strings.TrimSpace(in.WidgetID)
	if widgetID == "" {
		return MoveWidgetResult{}, fmt.Errorf("move widget: %w", errors.Join(ErrInvalidRequest, errors.New("widgetId is required")))
	}
	var target domain.DropTarget
	switch {
	case strings.TrimSpace(in.TargetWidgetID) != "":
		target = domain.WidgetTarget(strings.TrimSpace(in.TargetWidgetID), in.Below)
	case strings.TrimSpace(in.Column) != "":
		col, err := domain.ParseColumnID(in.Column)
		if err != nil {
			return MoveWidgetResult{}, mapAppError("move widget", err)
		}
		target = domain.ColumnTarget(col)
	default:
		return MoveWidgetResult{}, fmt.Errorf("move widget: %w", errors.Join(ErrInvalidRequest, errors.New("column or targetWidgetId is required")))
	}
	board, outcome, err := a.service.MoveWidget(ctx, widgetID, target)
	if err != nil {
		return MoveWidgetResult{}, mapAppError("move widget", err)
	}
	return MoveWidgetResult{Outcome: outcome.String(), Board: a.view(board)}, nil
}

// UpdateSettings applies board-level settings together.
func (a *AppServiceAdapter) UpdateSettings(ctx context.Context, in UpdateSettingsRequest) (BoardView, error) {
	if err := a.ready(); err != nil {
		return BoardView{}, err
	}
	update := app.UpdatePreferencesInput{
		MaxWidgetsPerColumn: in.MaxWidgetsPerColumn,
		Blur:                in.Blur,
		Editing:             in.IsEditing,
	}
	if in.Background != nil {
		update.Background = &domain.Background{
			ActiveType: domain.BackgroundType(in.Background.ActiveType),
			ImageValue: in.Background.ImageValue,
			ColorValue: in.Background.ColorValue,
		}
	}
	board, err := a.service.UpdatePreferences(ctx, update)
	if err != nil {
		return BoardView{}, mapAppError("update settings", err)
	}
	return a.view(board), nil
}

// ExportSnapshot returns the board as a portable JSON document.
func (a *AppServiceAdapter) ExportSnapshot(ctx context.Context) ([]byte, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	data, err := a.service.ExportSnapshot(ctx)
	if err != nil {
		return nil, mapAppError("export snapshot", err)
	}
	return data, nil
}

// ImportSnapshot replaces the board with a JSON document.
func (a *AppServiceAdapter) ImportSnapshot(ctx context.Context, data []byte) (BoardView, error) {
	if err := a.ready(); err != nil {
		return BoardView{}, err
	}
	board, err := a.service.ImportSnapshot(ctx, data)
	if err != nil {
		return BoardView{}, mapAppError("import snapshot", err)
	}
	return a.view(board), nil
}

// ListActivity returns the newest activity entries first.
func (a *AppServiceAdapter) ListActivity(ctx context.Context, limit int) ([]ActivityEntry, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, fmt.Errorf("list activity: %w", errors.Join(ErrInvalidRequest, errors.New("limit must be >= 0")))
	}
	events, err := a.service.ListActivity(ctx, limit)
	if err != nil {
		return nil, mapAppError("list activity", err)
	}
	out := make([]ActivityEntry, 0, len(events))
	for _, event := range events {
		out = append(out, ActivityEntry{
			ID:         event.ID,
			Operation:  string(event.Operation),
			WidgetID:   event.WidgetID,
			Column:     string(event.ColumnID),
			Source:     event.Source,
			Metadata:   event.Metadata,
			OccurredAt: event.OccurredAt,
		})
	}
	return out, nil
}

func (a *AppServiceAdapter) ready() error {
	if a == nil || a.service == nil {
		return errors.New("app service adapter is not configured")
	}
	return nil
}

func (a *AppServiceAdapter) view(board domain.Board) BoardView {
	return NewBoardView(board, a.service.Revision())
}

// NewBoardView converts a board and its layout into the transport shape.
func NewBoardView(board domain.Board, revision uint64) BoardView {
	out := BoardView{
		Revision:            revision,
		Columns:             make([]ColumnView, 0, len(board.Columns)),
		MaxWidgetsPerColumn: board.MaxWidgetsPerColumn,
		IsEditing:           board.IsEditing,
		Blur:                board.Blur,
		Background: BackgroundView{
			ActiveType: string(board.Background.ActiveType),
			ImageValue: board.Background.ImageValue,
			ColorValue: board.Background.ColorValue,
		},
		WidthTotal: board.Widths().Sum(),
	}
	for _, col := range board.Columns {
		layout := board.Layout(col.ID)
		cv := ColumnView{
			ID:          string(col.ID),
			Width:       col.Width,
			Align:       string(layout.Align),
			HeightTotal: layout.HeightTotal,
			Invalid:     layout.Invalid,
			Full:        !domain.ColumnHasCapacity(board, col.ID),
			Widgets:     make([]WidgetView, 0, len(col.Items)),
		}
		for i, w := range col.Items {
			settings := map[string]any(w.Settings.Clone())
			cv.Widgets = append(cv.Widgets, WidgetView{
				ID:                 w.ID,
				Type:               string(w.Kind),
				PositionPreference: string(w.PositionPreference),
				CustomHeight:       w.CustomHeight,
				Settings:           settings,
				HeightPercent:      layout.Slots[i].HeightPercent,
				AutoHeight:         layout.Slots[i].Auto,
			})
		}
		out.Columns = append(out.Columns, cv)
	}
	return out
}

// mapAppError maps app and domain errors into transport error classes.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, app.ErrNotFound), errors.Is(err, domain.ErrWidgetNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, domain.ErrCapacityBelowUsage),
		errors.Is(err, domain.ErrWidthBudgetExceeded),
		errors.Is(err, domain.ErrHeightBudgetInvalid),
		errors.Is(err, domain.ErrDuplicateWidgetID),
		errors.Is(err, app.ErrDragInProgress):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrConflict, err))
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidColumnID),
		errors.Is(err, domain.ErrInvalidWidgetKind),
		errors.Is(err, domain.ErrInvalidPosition),
		errors.Is(err, domain.ErrInvalidHeight),
		errors.Is(err, domain.ErrInvalidWidth),
		errors.Is(err, domain.ErrInvalidCapacity),
		errors.Is(err, domain.ErrInvalidBlur),
		errors.Is(err, domain.ErrInvalidBackground),
		errors.Is(err, app.ErrInvalidSnapshot):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
