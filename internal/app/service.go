package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/evanschultz/widgethub/internal/domain"
)

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	// Defaults is the board used when nothing is stored and as the base that
	// stored snapshots are merged onto.
	Defaults domain.Board
	Logger   Logger
	// EventIDs names activity ledger entries. Nil shares the widget id
	// generator.
	EventIDs IDGenerator
}

// Service owns the live board. Every operation is an atomic replacement of the
// board value under one lock, followed by a fire-and-forget save.
type Service struct {
	repo      Repository
	idGen     IDGenerator
	eventIDs  IDGenerator
	clock     Clock
	logger    Logger
	defaults  domain.Board
	persister *Persister

	mu        sync.Mutex
	board     domain.Board
	loaded    bool
	drag      domain.DragSession
	lastSaved []byte
	revision  uint64
	listeners map[chan struct{}]struct{}
}

// NewService constructs a service and starts its background persister.
func NewService(repo Repository, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if cfg.EventIDs == nil {
		cfg.EventIDs = idGen
	}
	if clock == nil {
		clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	defaults := cfg.Defaults
	if defaults.Columns[0].ID == "" {
		defaults = domain.DefaultBoard()
	}
	if err := defaults.Validate(); err != nil {
		cfg.Logger.Warn("invalid board defaults, using built-in defaults", "err", err)
		defaults = domain.DefaultBoard()
	}

	return &Service{
		repo:      repo,
		idGen:     idGen,
		eventIDs:  cfg.EventIDs,
		clock:     clock,
		logger:    cfg.Logger,
		defaults:  defaults,
		persister: NewPersister(repo, cfg.Logger),
		listeners: map[chan struct{}]struct{}{},
	}
}

// Load reads the stored snapshot once at startup. A missing or unreadable
// snapshot falls back to defaults; only storage failures are returned.
func (s *Service) Load(ctx context.Context) (domain.Board, error) {
	board := s.defaults
	data, err := s.repo.LoadSnapshot(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		s.logger.Info("no saved board, starting from defaults")
		data = nil
	case err != nil:
		return domain.Board{}, fmt.Errorf("load snapshot: %w", err)
	default:
		decoded, warnings, decodeErr := DecodeStored(data, s.defaults)
		if decodeErr != nil {
			s.logger.Warn("stored board unreadable, starting from defaults", "err", decodeErr)
		} else {
			board = decoded
		}
		for _, warning := range warnings {
			s.logger.Warn("stored board repaired", "detail", warning)
		}
		s.logger.Info("board loaded", "widgets", board.WidgetCount())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.board = board
	s.loaded = true
	s.lastSaved = data
	s.drag = domain.DragSession{}
	s.bumpLocked()
	return board, nil
}

// Board returns the current board.
func (s *Service) Board() domain.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board
}

// Revision increments on every board replacement.
func (s *Service) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// PersistError returns the last background write failure.
func (s *Service) PersistError() error {
	return s.persister.LastError()
}

// Subscribe returns a channel that receives after every board replacement and
// a func that releases it. Notifications coalesce.
func (s *Service) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.listeners[ch] = struct{}{}
	s.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, ch)
			s.mu.Unlock()
		})
	}
}

// CapacityNotice is the user-facing text for a board with no free column.
func CapacityNotice(maxPerColumn int) string {
	return fmt.Sprintf("All columns are full (max %d per column)", maxPerColumn)
}

// AddWidget places a new widget of kind in the first column with room.
func (s *Service) AddWidget(ctx context.Context, kind domain.WidgetKind) (domain.Board, domain.Widget, error) {
	widget, err := domain.NewWidget(s.idGen(), kind)
	if err != nil {
		return domain.Board{}, domain.Widget{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return domain.Board{}, domain.Widget{}, ErrBoardNotLoaded
	}
	next, col, err := s.board.AddWidget(widget)
	if errors.Is(err, domain.ErrCapacityExceeded) {
		s.logger.Info("add widget rejected", "kind", widget.Kind, "reason", "capacity")
		return s.board, domain.Widget{}, fmt.Errorf("%w: %s", err, CapacityNotice(s.board.MaxWidgetsPerColumn))
	}
	if err != nil {
		return s.board, domain.Widget{}, err
	}
	event := s.newEvent(ctx, domain.ChangeOperationAdd, widget.ID, col, map[string]string{"kind": string(widget.Kind)})
	return s.commitLocked(next, event), widget, nil
}

// RemoveWidget deletes a widget. Removing an unknown id is a no-op.
func (s *Service) RemoveWidget(ctx context.Context, widgetID string) (domain.Board, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return domain.Board{}, false, ErrBoardNotLoaded
	}
	col, _, _ := s.board.Locate(widgetID)
	next, removed := s.board.RemoveWidget(widgetID)
	if !removed {
		return s.board, false, nil
	}
	event := s.newEvent(ctx, domain.ChangeOperationRemove, widgetID, col, nil)
	return s.commitLocked(next, event), true, nil
}

// UpdateWidgetInput holds the optional widget fields to change together.
type UpdateWidgetInput struct {
	CustomHeight       *int
	PositionPreference *domain.PositionPreference
	Settings           domain.Settings
}

// UpdateWidget applies height, position and settings changes atomically. The
// height budget is not enforced; see domain.Board.InvalidColumns.
func (s *Service) UpdateWidget(ctx context.Context, widgetID string, in UpdateWidgetInput) (domain.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return domain.Board{}, ErrBoardNotLoaded
	}
	col, _, ok := s.board.Locate(widgetID)
	if !ok {
		return s.board, domain.ErrWidgetNotFound
	}

	next := s.board
	meta := map[string]string{}
	var err error
	if in.CustomHeight != nil {
		if next, _, err = next.SetWidgetHeight(widgetID, *in.CustomHeight); err != nil {
			return s.board, err
		}
		meta["custom_height"] = strconv.Itoa(*in.CustomHeight)
	}
	if in.PositionPreference != nil {
		if next, _, err = next.SetWidgetPosition(widgetID, *in.PositionPreference); err != nil {
			return s.board, err
		}
		meta["position_preference"] = string(*in.PositionPreference)
	}
	if len(in.Settings) > 0 {
		next, _ = next.MergeWidgetSettings(widgetID, in.Settings)
		meta["settings_keys"] = strconv.Itoa(len(in.Settings))
	}
	if len(meta) == 0 {
		return s.board, nil
	}
	event := s.newEvent(ctx, domain.ChangeOperationUpdate, widgetID, col, meta)
	return s.commitLocked(next, event), nil
}

// SetWidgetHeight sets or, with 0, clears a widget's custom height.
func (s *Service) SetWidgetHeight(ctx context.Context, widgetID string, percent int) (domain.Board, error) {
	return s.UpdateWidget(ctx, widgetID, UpdateWidgetInput{CustomHeight: &percent})
}

// SetWidgetPosition replaces a widget's position preference.
func (s *Service) SetWidgetPosition(ctx context.Context, widgetID string, pref domain.PositionPreference) (domain.Board, error) {
	return s.UpdateWidget(ctx, widgetID, UpdateWidgetInput{PositionPreference: &pref})
}

// UpdateWidgetSettings shallow-merges partial into a widget's settings.
func (s *Service) UpdateWidgetSettings(ctx context.Context, widgetID string, partial domain.Settings) (domain.Board, error) {
	return s.UpdateWidget(ctx, widgetID, UpdateWidgetInput{Settings: partial})
}

// SetColumnWidth changes one column width within the shared 100% budget.
func (s *Service) SetColumnWidth(ctx context.Context, col domain.ColumnID, percent int) (domain.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return domain.Board{}, ErrBoardNotLoaded
	}
	next, err := s.board.SetColumnWidth(col, percent)
	if err != nil {
		return s.board, err
	}
	event := s.newEvent(ctx, domain.ChangeOperationResize, "", col, map[string]string{"width": strconv.Itoa(percent)})
	return s.commitLocked(next, event), nil
}

// UpdatePreferencesInput holds board-level settings to change together.
type UpdatePreferencesInput struct {
	MaxWidgetsPerColumn *int
	Blur                *int
	Background          *domain.Background
	Editing             *bool
}

// UpdatePreferences applies board-level settings atomically; any invalid value
// rejects the whole update.
func (s *Service) UpdatePreferences(ctx context.Context, in UpdatePreferencesInput) (domain.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return domain.Board{}, ErrBoardNotLoaded
	}
	return s.updatePreferencesLocked(ctx, in)
}

func (s *Service) updatePreferencesLocked(ctx context.Context, in UpdatePreferencesInput) (domain.Board, error) {
	next := s.board
	meta := map[string]string{}
	var err error
	if in.MaxWidgetsPerColumn != nil {
		if next, err = next.SetMaxWidgetsPerColumn(*in.MaxWidgetsPerColumn); err != nil {
			return s.board, err
		}
		meta["max_widgets_per_column"] = strconv.Itoa(*in.MaxWidgetsPerColumn)
	}
	if in.Blur != nil {
		if next, err = next.SetBlur(*in.Blur); err != nil {
			return s.board, err
		}
		meta["blur"] = strconv.Itoa(*in.Blur)
	}
	if in.Background != nil {
		if next, err = next.SetBackground(*in.Background); err != nil {
			return s.board, err
		}
		meta["background"] = string(next.Background.ActiveType)
	}
	if in.Editing != nil {
		if next, err = next.SetEditing(*in.Editing); err != nil {
			return s.board, err
		}
		meta["editing"] = strconv.FormatBool(*in.Editing)
	}
	if len(meta) == 0 {
		return s.board, nil
	}
	event := s.newEvent(ctx, domain.ChangeOperationPreference, "", "", meta)
	return s.commitLocked(next, event), nil
}

// ToggleEditing flips edit mode. Leaving edit mode fails while any column
// breaks the height budget.
func (s *Service) ToggleEditing(ctx context.Context) (domain.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return domain.Board{}, ErrBoardNotLoaded
	}
	editing := !s.board.IsEditing
	return s.updatePreferencesLocked(ctx, UpdatePreferencesInput{Editing: &editing})
}

// ActiveDrag returns the widget being dragged, if any.
func (s *Service) ActiveDrag() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drag.Active()
}

// BeginDrag grabs a widget.
func (s *Service) BeginDrag(_ context.Context, widgetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrBoardNotLoaded
	}
	return s.drag.Begin(s.board, widgetID)
}

// DragOver applies a live reflow step for the active drag.
func (s *Service) DragOver(_ context.Context, target domain.DropTarget) (domain.Board, domain.DragOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, outcome := s.drag.Over(s.board, target)
	if outcome != domain.DragMoved {
		return s.board, outcome
	}
	return s.commitLocked(next), outcome
}

// EndDrag commits the active drag and records a move when the widget ended up
// somewhere other than where it was grabbed.
func (s *Service) EndDrag(ctx context.Context, target domain.DropTarget) (domain.Board, domain.DragOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	activeID, ok := s.drag.Active()
	if !ok {
		return s.board, domain.DragUnresolved
	}
	fromCol, fromIdx := s.drag.Origin()
	next, outcome := s.drag.End(s.board, target)

	var events []domain.ChangeEvent
	if toCol, toIdx, found := next.Locate(activeID); found && (toCol != fromCol || toIdx != fromIdx) {
		events = append(events, s.newEvent(ctx, domain.ChangeOperationMove, activeID, toCol, map[string]string{
			"from_column": string(fromCol),
			"from_index":  strconv.Itoa(fromIdx),
			"to_index":    strconv.Itoa(toIdx),
		}))
	}
	if outcome == domain.DragMoved {
		return s.commitLocked(next, events...), outcome
	}
	for _, event := range events {
		s.persister.Record(event)
	}
	return s.board, outcome
}

// CancelDrag abandons the active drag and returns the widget to its grab slot.
func (s *Service) CancelDrag(_ context.Context) domain.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drag.Active(); !ok {
		return s.board
	}
	return s.commitLocked(s.drag.Cancel(s.board))
}

// MoveWidget performs a complete drag in one step, for callers without a
// pointer. Unresolvable ids and full target columns are reported as errors.
func (s *Service) MoveWidget(ctx context.Context, widgetID string, target domain.DropTarget) (domain.Board, domain.DragOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return domain.Board{}, domain.DragUnresolved, ErrBoardNotLoaded
	}
	if active, dragging := s.drag.Active(); dragging && active == widgetID {
		return s.board, domain.DragUnchanged, ErrDragInProgress
	}
	fromCol, fromIdx, ok := s.board.Locate(widgetID)
	if !ok {
		return s.board, domain.DragUnresolved, domain.ErrWidgetNotFound
	}

	next, outcome := s.board.DragEnd(widgetID, target)
	switch outcome {
	case domain.DragUnresolved:
		if target.IsColumn() {
			return s.board, outcome, domain.ErrInvalidColumnID
		}
		return s.board, outcome, domain.ErrWidgetNotFound
	case domain.DragRejectedFull:
		return s.board, outcome, fmt.Errorf("%w: target column is full (max %d per column)", domain.ErrCapacityExceeded, s.board.MaxWidgetsPerColumn)
	case domain.DragUnchanged:
		return s.board, outcome, nil
	}
	toCol, toIdx, _ := next.Locate(widgetID)
	event := s.newEvent(ctx, domain.ChangeOperationMove, widgetID, toCol, map[string]string{
		"from_column": string(fromCol),
		"from_index":  strconv.Itoa(fromIdx),
		"to_index":    strconv.Itoa(toIdx),
	})
	return s.commitLocked(next, event), outcome, nil
}

// ExportSnapshot renders the current board as a JSON document.
func (s *Service) ExportSnapshot(_ context.Context) ([]byte, error) {
	return EncodeSnapshot(s.Board())
}

// ImportSnapshot replaces the board wholesale with a user-supplied document.
// Invalid documents leave the board untouched.
func (s *Service) ImportSnapshot(ctx context.Context, data []byte) (domain.Board, error) {
	board, err := DecodeImport(data)
	if err != nil {
		s.logger.Warn("import rejected", "err", err)
		return s.Board(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	s.drag = domain.DragSession{}
	event := s.newEvent(ctx, domain.ChangeOperationImport, "", "", map[string]string{"widgets": strconv.Itoa(board.WidgetCount())})
	s.logger.Info("board imported", "widgets", board.WidgetCount())
	return s.commitLocked(board, event), nil
}

// ListActivity returns the newest activity entries first. Queued entries are
// written before the ledger is read.
func (s *Service) ListActivity(ctx context.Context, limit int) ([]domain.ChangeEvent, error) {
	if err := s.persister.Flush(ctx); err != nil && !errors.Is(err, ErrPersisterClosed) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn("activity flush failed", "err", err)
	}
	return s.repo.ListChangeEvents(ctx, limit)
}

// Reload re-reads storage after another process wrote to it. It skips while
// this service has writes in flight or a drag is active, and when the stored
// document is the one this service last wrote.
func (s *Service) Reload(ctx context.Context) (domain.Board, bool, error) {
	if !s.persister.Idle() {
		return s.Board(), false, nil
	}
	data, err := s.repo.LoadSnapshot(ctx)
	if errors.Is(err, ErrNotFound) {
		return s.Board(), false, nil
	}
	if err != nil {
		return s.Board(), false, fmt.Errorf("reload snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if bytes.Equal(data, s.lastSaved) {
		return s.board, false, nil
	}
	// A commit may have landed while the snapshot was read.
	if !s.persister.Idle() {
		return s.board, false, nil
	}
	if _, dragging := s.drag.Active(); dragging {
		s.logger.Debug("reload skipped during drag")
		return s.board, false, nil
	}
	board, warnings, err := DecodeStored(data, s.defaults)
	if err != nil {
		return s.board, false, err
	}
	for _, warning := range warnings {
		s.logger.Warn("reloaded board repaired", "detail", warning)
	}
	s.board = board
	s.loaded = true
	s.lastSaved = data
	s.bumpLocked()
	return board, true, nil
}

// WatchStore reloads the board whenever the repository reports an external
// write, until ctx is done.
func (s *Service) WatchStore(ctx context.Context) error {
	watcher, ok := s.repo.(ChangeWatcher)
	if !ok {
		return ErrWatchUnsupported
	}
	changes, err := watcher.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch storage: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			if _, reloaded, err := s.Reload(ctx); err != nil {
				s.logger.Warn("reload after storage change failed", "err", err)
			} else if reloaded {
				s.logger.Info("board reloaded from storage")
			}
		}
	}
}

// Close flushes pending writes.
func (s *Service) Close(ctx context.Context) error {
	return s.persister.Close(ctx)
}

func (s *Service) commitLocked(next domain.Board, events ...domain.ChangeEvent) domain.Board {
	s.board = next
	data, err := EncodeSnapshot(next)
	if err != nil {
		s.logger.Error("encode snapshot failed", "err", err)
	} else {
		s.lastSaved = data
	}
	for _, event := range events {
		s.persister.Record(event)
	}
	if err == nil {
		s.persister.Save(data)
	}
	s.bumpLocked()
	return next
}

func (s *Service) bumpLocked() {
	s.revision++
	for ch := range s.listeners {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Service) newEvent(ctx context.Context, op domain.ChangeOperation, widgetID string, col domain.ColumnID, meta map[string]string) domain.ChangeEvent {
	return domain.ChangeEvent{
		ID:         s.eventIDs(),
		Operation:  op,
		WidgetID:   widgetID,
		ColumnID:   col,
		Source:     SourceFromContext(ctx),
		Metadata:   meta,
		OccurredAt: s.clock().UTC(),
	}
}
