package app

import (
	"context"

	"github.com/evanschultz/widgethub/internal/domain"
)

// Repository stores the single board snapshot document and the activity ledger.
// LoadSnapshot returns ErrNotFound when nothing has been saved yet.
type Repository interface {
	LoadSnapshot(context.Context) ([]byte, error)
	SaveSnapshot(context.Context, []byte) error
	AppendChangeEvent(context.Context, domain.ChangeEvent) error
	ListChangeEvents(context.Context, int) ([]domain.ChangeEvent, error)
}

// ChangeWatcher is implemented by repositories that can report writes made by
// other processes. Each receive on the returned channel means "reload".
type ChangeWatcher interface {
	Watch(context.Context) (<-chan struct{}, error)
}
