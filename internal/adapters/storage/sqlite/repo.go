package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanschultz/widgethub/internal/adapters/storage/fswatch"
	"github.com/evanschultz/widgethub/internal/app"
	"github.com/evanschultz/widgethub/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// defaultEventLimit caps activity listings when callers pass no limit.
const defaultEventLimit = 50

// Repository stores the board document and activity ledger in one sqlite file.
type Repository struct {
	db   *sql.DB
	path string
}

// Open opens (and migrates) the database at path.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db, path: path}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, "file::memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	// Every pooled connection would otherwise get its own empty database.
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path, empty for in-memory databases.
func (r *Repository) Path() string {
	return r.path
}

func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA busy_timeout = 5000;`,
		`CREATE TABLE IF NOT EXISTS board_snapshots (
			storage_key TEXT PRIMARY KEY,
			document TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS change_events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL DEFAULT '',
			operation TEXT NOT NULL,
			widget_id TEXT NOT NULL DEFAULT '',
			column_id TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT 'local',
			metadata_json TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_change_events_created_at ON change_events(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// LoadSnapshot returns the stored board document or app.ErrNotFound.
func (r *Repository) LoadSnapshot(ctx context.Context) ([]byte, error) {
	var document string
	err := r.db.QueryRowContext(ctx, `
		SELECT document FROM board_snapshots WHERE storage_key = ?
	`, app.SnapshotStorageKey).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, app.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load board snapshot: %w", err)
	}
	return []byte(document), nil
}

// SaveSnapshot replaces the stored board document.
func (r *Repository) SaveSnapshot(ctx context.Context, data []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO board_snapshots(storage_key, document, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(storage_key) DO UPDATE SET
			document = excluded.document,
			updated_at = excluded.updated_at
	`, app.SnapshotStorageKey, string(data), ts(time.Now()))
	if err != nil {
		return fmt.Errorf("save board snapshot: %w", err)
	}
	return nil
}

// AppendChangeEvent inserts an activity ledger record.
func (r *Repository) AppendChangeEvent(ctx context.Context, event domain.ChangeEvent) error {
	metadataJSON, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("encode change event metadata: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO change_events(id, operation, widget_id, column_id, source, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID,
		string(event.Operation),
		event.WidgetID,
		string(event.ColumnID),
		chooseSource(event.Source),
		string(metadataJSON),
		ts(normalizeEventTS(event.OccurredAt)),
	)
	if err != nil {
		return fmt.Errorf("insert change event: %w", err)
	}
	return nil
}

// ListChangeEvents returns the newest activity entries first.
func (r *Repository) ListChangeEvents(ctx context.Context, limit int) ([]domain.ChangeEvent, error) {
	if limit <= 0 {
		limit = defaultEventLimit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, operation, widget_id, column_id, source, metadata_json, created_at
		FROM change_events
		ORDER BY created_at DESC, seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ChangeEvent, 0)
	for rows.Next() {
		var (
			event       domain.ChangeEvent
			opRaw       string
			columnRaw   string
			metadataRaw string
			createdRaw  string
		)
		if err := rows.Scan(&event.ID, &opRaw, &event.WidgetID, &columnRaw, &event.Source, &metadataRaw, &createdRaw); err != nil {
			return nil, err
		}
		event.Operation = domain.ChangeOperation(strings.TrimSpace(strings.ToLower(opRaw)))
		event.ColumnID = domain.ColumnID(columnRaw)
		event.OccurredAt = parseTS(createdRaw)
		if strings.TrimSpace(metadataRaw) == "" || metadataRaw == "null" {
			metadataRaw = "{}"
		}
		if err := json.Unmarshal([]byte(metadataRaw), &event.Metadata); err != nil {
			return nil, fmt.Errorf("decode change_events.metadata_json: %w", err)
		}
		if event.Metadata == nil {
			event.Metadata = map[string]string{}
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

// Watch notifies on writes to the database file made by any process.
func (r *Repository) Watch(ctx context.Context) (<-chan struct{}, error) {
	if r.path == "" {
		return nil, app.ErrWatchUnsupported
	}
	base := filepath.Base(r.path)
	return fswatch.Watch(ctx, filepath.Dir(r.path), func(name string) bool {
		return strings.HasPrefix(name, base)
	}, fswatch.DefaultQuiet)
}

func chooseSource(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return app.SourceLocal
	}
	return source
}

// normalizeEventTS ensures event timestamps are always populated and UTC-normalized.
func normalizeEventTS(in time.Time) time.Time {
	if in.IsZero() {
		return time.Now().UTC()
	}
	return in.UTC()
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}
