package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/evanschultz/widgethub/internal/domain"
)

// StorageBackend names a snapshot repository implementation.
type StorageBackend string

const (
	StorageBackendSQLite StorageBackend = "sqlite"
	StorageBackendDiskv  StorageBackend = "diskv"
)

type Config struct {
	Storage StorageConfig `toml:"storage"`
	Board   BoardConfig   `toml:"board"`
	Logging LoggingConfig `toml:"logging"`
	Server  ServerConfig  `toml:"server"`
	Keys    KeyConfig     `toml:"keys"`
}

type StorageConfig struct {
	Backend    StorageBackend `toml:"backend"`
	SQLitePath string         `toml:"sqlite_path"`
	DiskvDir   string         `toml:"diskv_dir"`
}

// BoardConfig seeds a board when nothing has been saved yet.
type BoardConfig struct {
	MaxWidgetsPerColumn int               `toml:"max_widgets_per_column"`
	ColumnWidths        ColumnWidthConfig `toml:"column_widths"`
	Blur                int               `toml:"blur"`
	BackgroundColor     string            `toml:"background_color"`
}

type ColumnWidthConfig struct {
	Left   int `toml:"left"`
	Middle int `toml:"middle"`
	Right  int `toml:"right"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

// DevFileConfig controls the extra logfmt sink used in dev mode.
type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type ServerConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

type KeyConfig struct {
	ToggleEdit string `toml:"toggle_edit"`
	AddWidget  string `toml:"add_widget"`
	Grab       string `toml:"grab"`
	Activity   string `toml:"activity"`
	Export     string `toml:"export"`
	Help       string `toml:"help"`
}

func Default(dbPath, storeDir string) Config {
	widths := domain.DefaultColumnWidths()
	return Config{
		Storage: StorageConfig{
			Backend:    StorageBackendSQLite,
			SQLitePath: dbPath,
			DiskvDir:   storeDir,
		},
		Board: BoardConfig{
			MaxWidgetsPerColumn: domain.DefaultMaxWidgetsPerColumn,
			ColumnWidths: ColumnWidthConfig{
				Left:   widths.Left,
				Middle: widths.Middle,
				Right:  widths.Right,
			},
			Blur:            domain.DefaultBlur,
			BackgroundColor: domain.DefaultBackgroundColor,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".widgethub/log",
			},
		},
		Server: ServerConfig{
			HTTPBind:    "127.0.0.1:5437",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Keys: KeyConfig{
			ToggleEdit: "e",
			AddWidget:  "a",
			Grab:       "space",
			Activity:   "g",
			Export:     "y",
			Help:       "?",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}
	if err := cfg.expandPaths(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// expandPaths resolves a leading ~ in configured file locations.
func (c *Config) expandPaths() error {
	for _, field := range []struct {
		name string
		dst  *string
	}{
		{"storage.sqlite_path", &c.Storage.SQLitePath},
		{"storage.diskv_dir", &c.Storage.DiskvDir},
		{"logging.dev_file.dir", &c.Logging.DevFile.Dir},
	} {
		expanded, err := homedir.Expand(strings.TrimSpace(*field.dst))
		if err != nil {
			return fmt.Errorf("expand %s: %w", field.name, err)
		}
		*field.dst = expanded
	}
	return nil
}

func (c Config) Validate() error {
	switch StorageBackend(strings.TrimSpace(strings.ToLower(string(c.Storage.Backend)))) {
	case StorageBackendSQLite:
		if strings.TrimSpace(c.Storage.SQLitePath) == "" {
			return errors.New("storage.sqlite_path is required for the sqlite backend")
		}
	case StorageBackendDiskv:
		if strings.TrimSpace(c.Storage.DiskvDir) == "" {
			return errors.New("storage.diskv_dir is required for the diskv backend")
		}
	default:
		return fmt.Errorf("invalid storage.backend: %q", c.Storage.Backend)
	}

	if _, err := c.BoardDefaults(); err != nil {
		return err
	}

	if _, err := log.ParseLevel(strings.TrimSpace(c.Logging.Level)); err != nil {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	if strings.TrimSpace(c.Server.HTTPBind) == "" {
		return errors.New("server.http_bind is required")
	}
	for name, endpoint := range map[string]string{
		"server.api_endpoint": c.Server.APIEndpoint,
		"server.mcp_endpoint": c.Server.MCPEndpoint,
	} {
		if endpoint = strings.TrimSpace(endpoint); endpoint != "" && !strings.HasPrefix(endpoint, "/") {
			return fmt.Errorf("%s must start with /: %q", name, endpoint)
		}
	}

	seen := map[string]string{}
	for name, binding := range map[string]string{
		"keys.toggle_edit": c.Keys.ToggleEdit,
		"keys.add_widget":  c.Keys.AddWidget,
		"keys.grab":        c.Keys.Grab,
		"keys.activity":    c.Keys.Activity,
		"keys.export":      c.Keys.Export,
		"keys.help":        c.Keys.Help,
	} {
		if binding == "" {
			return fmt.Errorf("%s is required", name)
		}
		if other, ok := seen[binding]; ok {
			return fmt.Errorf("%s duplicates %s: %q", name, other, binding)
		}
		seen[binding] = name
	}

	return nil
}

// BoardDefaults builds the empty board used when no snapshot exists.
func (c Config) BoardDefaults() (domain.Board, error) {
	widths := domain.ColumnWidths{
		Left:   c.Board.ColumnWidths.Left,
		Middle: c.Board.ColumnWidths.Middle,
		Right:  c.Board.ColumnWidths.Right,
	}
	board := domain.NewBoard(widths, c.Board.MaxWidgetsPerColumn)
	board, err := board.SetBlur(c.Board.Blur)
	if err != nil {
		return domain.Board{}, fmt.Errorf("board.blur: %w", err)
	}
	bg := domain.DefaultBackground()
	if color := strings.TrimSpace(c.Board.BackgroundColor); color != "" {
		bg.ColorValue = color
	}
	if board, err = board.SetBackground(bg); err != nil {
		return domain.Board{}, fmt.Errorf("board.background_color: %w", err)
	}
	if err := board.Validate(); err != nil {
		return domain.Board{}, fmt.Errorf("board defaults: %w", err)
	}
	return board, nil
}

// StoragePath returns the location the configured backend writes to.
func (c Config) StoragePath() string {
	if StorageBackend(strings.ToLower(string(c.Storage.Backend))) == StorageBackendDiskv {
		return c.Storage.DiskvDir
	}
	return c.Storage.SQLitePath
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
