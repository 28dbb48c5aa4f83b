package app

import (
	"context"
	"sync"
	"time"

	"github.com/evanschultz/widgethub/internal/domain"
)

const defaultSaveTimeout = 5 * time.Second

// Persister writes snapshots and activity events on a background goroutine so
// callers never wait on storage. Pending snapshots coalesce: only the newest
// one is written. Events are written in order before the snapshot.
type Persister struct {
	repo        Repository
	logger      Logger
	saveTimeout time.Duration

	mu       sync.Mutex
	snapshot []byte
	dirty    bool
	events   []domain.ChangeEvent
	saving   bool
	lastErr  error
	closed   bool

	wake    chan struct{}
	flushes chan chan error
	quit    chan struct{}
	done    chan struct{}
}

// NewPersister starts the background writer.
func NewPersister(repo Repository, logger Logger) *Persister {
	if logger == nil {
		logger = discardLogger()
	}
	p := &Persister{
		repo:        repo,
		logger:      logger,
		saveTimeout: defaultSaveTimeout,
		wake:        make(chan struct{}, 1),
		flushes:     make(chan chan error),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	go p.run()
	return p
}

// Save queues data as the newest snapshot and returns immediately.
func (p *Persister) Save(data []byte) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.snapshot = data
	p.dirty = true
	p.mu.Unlock()
	p.signal()
}

// Record queues an activity event and returns immediately.
func (p *Persister) Record(event domain.ChangeEvent) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.events = append(p.events, event)
	p.mu.Unlock()
	p.signal()
}

// Idle reports whether nothing is queued or being written.
func (p *Persister) Idle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.dirty && !p.saving && len(p.events) == 0
}

// LastError returns the most recent write failure, if any.
func (p *Persister) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Flush blocks until everything queued before the call has been written.
func (p *Persister) Flush(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case p.flushes <- reply:
	case <-p.done:
		return ErrPersisterClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes pending writes and stops the background writer. Saves queued
// after Close are dropped.
func (p *Persister) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	err := p.Flush(ctx)
	close(p.quit)
	select {
	case <-p.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

func (p *Persister) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Persister) run() {
	defer close(p.done)
	for {
		select {
		case <-p.quit:
			return
		case <-p.wake:
			p.drain()
		case reply := <-p.flushes:
			reply <- p.drain()
		}
	}
}

// drain writes queued events then the newest snapshot. With nothing queued it
// reports the outcome of the previous write.
func (p *Persister) drain() error {
	p.mu.Lock()
	events := p.events
	p.events = nil
	data, dirty := p.snapshot, p.dirty
	p.dirty = false
	if !dirty && len(events) == 0 {
		err := p.lastErr
		p.mu.Unlock()
		return err
	}
	p.saving = true
	p.mu.Unlock()

	var firstErr error
	ctx, cancel := context.WithTimeout(context.Background(), p.saveTimeout)
	defer cancel()
	for _, event := range events {
		if err := p.repo.AppendChangeEvent(ctx, event); err != nil {
			p.logger.Error("append change event failed", "operation", event.Operation, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if dirty {
		if err := p.repo.SaveSnapshot(ctx, data); err != nil {
			p.logger.Error("save snapshot failed", "bytes", len(data), "err", err)
			if firstErr == nil {
				firstErr = err
			}
		} else {
			p.logger.Debug("snapshot saved", "bytes", len(data))
		}
	}

	p.mu.Lock()
	p.saving = false
	p.lastErr = firstErr
	p.mu.Unlock()
	return firstErr
}
