package domain

import "errors"

var (
	ErrInvalidID           = errors.New("invalid id")
	ErrInvalidColumnID     = errors.New("invalid column id")
	ErrInvalidWidgetKind   = errors.New("invalid widget kind")
	ErrInvalidPosition     = errors.New("invalid position preference")
	ErrInvalidHeight       = errors.New("invalid custom height")
	ErrInvalidWidth        = errors.New("invalid column width")
	ErrInvalidCapacity     = errors.New("invalid max widgets per column")
	ErrInvalidBlur         = errors.New("invalid blur radius")
	ErrInvalidBackground   = errors.New("invalid background")
	ErrDuplicateWidgetID   = errors.New("duplicate widget id")
	ErrWidgetNotFound      = errors.New("widget not found")
	ErrCapacityExceeded    = errors.New("capacity exceeded")
	ErrCapacityBelowUsage  = errors.New("capacity below current usage")
	ErrWidthBudgetExceeded = errors.New("width budget exceeded")
	ErrHeightBudgetInvalid = errors.New("height budget invalid")
	ErrDragNotActive       = errors.New("no drag in progress")
	ErrDragAlreadyActive   = errors.New("drag already in progress")
)
