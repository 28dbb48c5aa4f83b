package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidSnapshot  = errors.New("invalid snapshot")
	ErrPersisterClosed  = errors.New("persister closed")
	ErrWatchUnsupported = errors.New("storage backend does not support watching")
	ErrDragInProgress   = errors.New("drag in progress")
	ErrBoardNotLoaded   = errors.New("board not loaded")
)
