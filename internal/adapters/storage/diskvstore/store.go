// Package diskvstore keeps the board document and activity ledger as flat
// files under one directory.
package diskvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/peterbourgon/diskv/v3"

	"github.com/evanschultz/widgethub/internal/adapters/storage/fswatch"
	"github.com/evanschultz/widgethub/internal/app"
	"github.com/evanschultz/widgethub/internal/domain"
)

const (
	keySep         = "~"
	boardPrefix    = "board"
	eventPrefix    = "events"
	eventKeyLayout = "20060102T150405.000000000Z"

	// MaxEvents bounds the ledger; older entries are erased on append.
	MaxEvents = 500

	defaultEventLimit = 50
)

// Store implements app.Repository on diskv.
type Store struct {
	d        *diskv.Diskv
	basePath string
}

// Open creates a Store rooted at dir.
func Open(dir string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("diskv dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create diskv dir: %w", err)
	}
	return &Store{d: diskv.New(diskv.Options{
		BasePath:          dir,
		TempDir:           filepath.Join(dir, ".tmp"),
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      1024 * 1024, // 1MB
	}), basePath: dir}, nil
}

// BasePath returns the store directory.
func (s *Store) BasePath() string {
	return s.basePath
}

func boardKey() string {
	return boardPrefix + keySep + app.SnapshotStorageKey
}

// LoadSnapshot returns the stored board document or app.ErrNotFound. Reads
// bypass the cache so writes from other processes are seen.
func (s *Store) LoadSnapshot(_ context.Context) ([]byte, error) {
	rc, err := s.d.ReadStream(boardKey(), true)
	if errors.Is(err, os.ErrNotExist) {
		return nil, app.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load board snapshot: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("load board snapshot: %w", err)
	}
	return data, nil
}

// SaveSnapshot replaces the stored board document.
func (s *Store) SaveSnapshot(_ context.Context, data []byte) error {
	if err := s.d.Write(boardKey(), data); err != nil {
		return fmt.Errorf("save board snapshot: %w", err)
	}
	return nil
}

type storedEvent struct {
	ID         string            `json:"id"`
	Operation  string            `json:"operation"`
	WidgetID   string            `json:"widget_id,omitempty"`
	ColumnID   string            `json:"column_id,omitempty"`
	Source     string            `json:"source"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// AppendChangeEvent writes one ledger record and trims the oldest beyond
// MaxEvents.
func (s *Store) AppendChangeEvent(ctx context.Context, event domain.ChangeEvent) error {
	at := event.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()
	source := strings.TrimSpace(event.Source)
	if source == "" {
		source = app.SourceLocal
	}
	data, err := json.Marshal(storedEvent{
		ID:         event.ID,
		Operation:  string(event.Operation),
		WidgetID:   event.WidgetID,
		ColumnID:   string(event.ColumnID),
		Source:     source,
		Metadata:   event.Metadata,
		OccurredAt: at,
	})
	if err != nil {
		return fmt.Errorf("encode change event: %w", err)
	}
	if err := s.d.Write(eventKey(at, event.ID), data); err != nil {
		return fmt.Errorf("write change event: %w", err)
	}

	keys := s.eventKeys(ctx)
	for _, key := range keys[min(len(keys), MaxEvents):] {
		if err := s.d.Erase(key); err != nil {
			return fmt.Errorf("trim change events: %w", err)
		}
	}
	return nil
}

// ListChangeEvents returns the newest activity entries first.
func (s *Store) ListChangeEvents(ctx context.Context, limit int) ([]domain.ChangeEvent, error) {
	if limit <= 0 {
		limit = defaultEventLimit
	}
	keys := s.eventKeys(ctx)
	out := make([]domain.ChangeEvent, 0, min(limit, len(keys)))
	for _, key := range keys {
		if len(out) == limit {
			break
		}
		data, err := s.d.Read(key)
		if err != nil {
			return nil, fmt.Errorf("read change event %s: %w", key, err)
		}
		var stored storedEvent
		if err := json.Unmarshal(data, &stored); err != nil {
			return nil, fmt.Errorf("decode change event %s: %w", key, err)
		}
		metadata := stored.Metadata
		if metadata == nil {
			metadata = map[string]string{}
		}
		out = append(out, domain.ChangeEvent{
			ID:         stored.ID,
			Operation:  domain.ChangeOperation(stored.Operation),
			WidgetID:   stored.WidgetID,
			ColumnID:   domain.ColumnID(stored.ColumnID),
			Source:     stored.Source,
			Metadata:   metadata,
			OccurredAt: stored.OccurredAt.UTC(),
		})
	}
	return out, nil
}

// Watch notifies on writes to the board document made by any process.
func (s *Store) Watch(ctx context.Context) (<-chan struct{}, error) {
	return fswatch.Watch(ctx, filepath.Join(s.basePath, boardPrefix), func(name string) bool {
		return name == app.SnapshotStorageKey
	}, fswatch.DefaultQuiet)
}

// eventKeys lists ledger keys newest first.
func (s *Store) eventKeys(ctx context.Context) []string {
	keys := make([]string, 0)
	for key := range s.d.Keys(ctx.Done()) {
		if strings.HasPrefix(key, eventPrefix+keySep) {
			keys = append(keys, key)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys
}

func eventKey(at time.Time, id string) string {
	return eventPrefix + keySep + at.UTC().Format(eventKeyLayout) + "-" + sanitizeKeyPart(id)
}

func sanitizeKeyPart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "event"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}

func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.Split(s, keySep)
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	return strings.Join(append(append([]string{}, pathKey.Path...), pathKey.FileName), keySep)
}
