package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mitchellh/go-homedir"

	"github.com/evanschultz/widgethub/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/widgethub.db", "/tmp/widgethub-store")
	if cfg.Storage.Backend != StorageBackendSQLite || cfg.Storage.SQLitePath != "/tmp/widgethub.db" {
		t.Fatalf("unexpected storage config %#v", cfg.Storage)
	}
	if cfg.Board.MaxWidgetsPerColumn != domain.DefaultMaxWidgetsPerColumn {
		t.Fatalf("unexpected max widgets %d", cfg.Board.MaxWidgetsPerColumn)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	board, err := cfg.BoardDefaults()
	if err != nil {
		t.Fatalf("BoardDefaults() error = %v", err)
	}
	if board.Widths() != domain.DefaultColumnWidths() || board.WidgetCount() != 0 {
		t.Fatalf("unexpected default board %#v", board)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/widgethub.db", "/tmp/store")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.SQLitePath != defaults.Storage.SQLitePath {
		t.Fatalf("expected default db path, got %q", cfg.Storage.SQLitePath)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[storage]
backend = "diskv"
diskv_dir = "/custom/store"

[board]
max_widgets_per_column = 5
blur = 0
background_color = "#000000"

[board.column_widths]
left = 30
middle = 40
right = 30

[logging]
level = "debug"

[keys]
add_widget = "n"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path, Default("/tmp/default.db", "/tmp/default-store"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.Backend != StorageBackendDiskv || cfg.StoragePath() != "/custom/store" {
		t.Fatalf("unexpected storage %#v", cfg.Storage)
	}
	if cfg.Keys.AddWidget != "n" || cfg.Keys.ToggleEdit != "e" {
		t.Fatalf("unexpected keys %#v", cfg.Keys)
	}
	board, err := cfg.BoardDefaults()
	if err != nil {
		t.Fatalf("BoardDefaults() error = %v", err)
	}
	if board.MaxWidgetsPerColumn != 5 || board.Blur != 0 || board.Background.ColorValue != "#000000" {
		t.Fatalf("unexpected board defaults %#v", board)
	}
	if got := board.Widths(); got.Left != 30 || got.Middle != 40 || got.Right != 30 {
		t.Fatalf("unexpected widths %#v", got)
	}
}

func TestLoadExpandsHomeDir(t *testing.T) {
	home, err := homedir.Dir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[storage]\nsqlite_path = \"~/widgethub/board.db\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	cfg, err := Load(path, Default("/tmp/default.db", "/tmp/store"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if want := filepath.Join(home, "widgethub", "board.db"); cfg.Storage.SQLitePath != want {
		t.Fatalf("expected %q, got %q", want, cfg.Storage.SQLitePath)
	}
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
		wantIs  error
	}{
		{name: "backend", mutate: func(c *Config) { c.Storage.Backend = "redis" }, wantErr: "storage.backend"},
		{name: "sqlite path", mutate: func(c *Config) { c.Storage.SQLitePath = " " }, wantErr: "storage.sqlite_path"},
		{name: "diskv dir", mutate: func(c *Config) {
			c.Storage.Backend = StorageBackendDiskv
			c.Storage.DiskvDir = ""
		}, wantErr: "storage.diskv_dir"},
		{name: "width budget", mutate: func(c *Config) { c.Board.ColumnWidths.Middle = 80 }, wantIs: domain.ErrWidthBudgetExceeded},
		{name: "capacity", mutate: func(c *Config) { c.Board.MaxWidgetsPerColumn = 11 }, wantIs: domain.ErrInvalidCapacity},
		{name: "blur", mutate: func(c *Config) { c.Board.Blur = 41 }, wantIs: domain.ErrInvalidBlur},
		{name: "log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "logging.level"},
		{name: "endpoint", mutate: func(c *Config) { c.Server.APIEndpoint = "api" }, wantErr: "server.api_endpoint"},
		{name: "duplicate key", mutate: func(c *Config) { c.Keys.Export = "a" }, wantErr: "duplicates"},
		{name: "empty key", mutate: func(c *Config) { c.Keys.Help = "" }, wantErr: "keys.help"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default("/tmp/widgethub.db", "/tmp/store")
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if tc.wantIs != nil && !errors.Is(err, tc.wantIs) {
				t.Fatalf("expected %v, got %v", tc.wantIs, err)
			}
			if tc.wantErr != "" && !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected %q in %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadRejectsMalformedToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[storage\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := Load(path, Default("/tmp/widgethub.db", "/tmp/store")); err == nil || !strings.Contains(err.Error(), "decode toml") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := EnsureConfigDir(path); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	if info, err := os.Stat(filepath.Dir(path)); err != nil || !info.IsDir() {
		t.Fatalf("expected config dir, got %v", err)
	}
}
