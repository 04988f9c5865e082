package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"
)

type Backend string

const (
	BackendMemory Backend = "memory"
	BackendSQLite Backend = "sqlite"
)

type Config struct {
	Storage  StorageConfig  `toml:"storage"`
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
	Grid     GridConfig     `toml:"grid"`
	Keys     KeyConfig      `toml:"keys"`
}

type StorageConfig struct {
	Backend Backend `toml:"backend"` // memory | sqlite
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

// DevFileConfig controls the logfmt sink written in dev mode.
type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type GridConfig struct {
	Title           string `toml:"title"`
	SaveLatency     string `toml:"save_latency"`
	TimestampLayout string `toml:"timestamp_layout"`
	DefaultIcon     string `toml:"default_icon"`
	ViewMode        string `toml:"view_mode"` // table | grid
	SidebarOpen     bool   `toml:"sidebar_open"`
	AutoSave        bool   `toml:"auto_save"`
	ConfirmDelete   bool   `toml:"confirm_delete"`
}

type KeyConfig struct {
	NewRecord      string `toml:"new_record"`
	ToggleSelect   string `toml:"toggle_select"`
	OpenDetail     string `toml:"open_detail"`
	CopyAction     string `toml:"copy_action"`
	DeleteSelected string `toml:"delete_selected"`
	ActivityLog    string `toml:"activity_log"`
}

var validIcons = []string{"🔵", "🟡", "⚪", "🟢", "🔴"}

func Default(dbPath string) Config {
	return Config{
		Storage: StorageConfig{
			Backend: BackendMemory,
		},
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".enrichgrid/log",
			},
		},
		Grid: GridConfig{
			Title:           "Name of the File",
			SaveLatency:     "1s",
			TimestampLayout: "1/2/2006, 3:04:05 PM",
			DefaultIcon:     "🔵",
			ViewMode:        "table",
			SidebarOpen:     true,
			AutoSave:        true,
			ConfirmDelete:   true,
		},
		Keys: KeyConfig{
			NewRecord:      "n",
			ToggleSelect:   "space",
			OpenDetail:     "enter",
			CopyAction:     "y",
			DeleteSelected: "d",
			ActivityLog:    "g",
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

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendSQLite:
		if strings.TrimSpace(c.Database.Path) == "" {
			return errors.New("database path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("invalid storage.backend: %q", c.Storage.Backend)
	}

	if _, err := charmLog.ParseLevel(strings.TrimSpace(c.Logging.Level)); err != nil {
		return fmt.Errorf("invalid logging.level %q: %w", c.Logging.Level, err)
	}
	if c.Logging.DevFile.Enabled && strings.TrimSpace(c.Logging.DevFile.Dir) == "" {
		return errors.New("logging.dev_file.dir is required when dev_file is enabled")
	}

	if _, err := c.Grid.SaveLatencyDuration(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Grid.TimestampLayout) == "" {
		return errors.New("grid.timestamp_layout is required")
	}
	icon := strings.TrimSpace(c.Grid.DefaultIcon)
	if icon != "" && !slices.Contains(validIcons, icon) {
		return fmt.Errorf("invalid grid.default_icon: %q", c.Grid.DefaultIcon)
	}
	switch strings.TrimSpace(strings.ToLower(c.Grid.ViewMode)) {
	case "", "table", "grid":
	default:
		return fmt.Errorf("invalid grid.view_mode: %q", c.Grid.ViewMode)
	}

	return nil
}

// SaveLatencyDuration parses grid.save_latency. Empty means no delay.
func (g GridConfig) SaveLatencyDuration() (time.Duration, error) {
	raw := strings.TrimSpace(g.SaveLatency)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid grid.save_latency %q: %w", g.SaveLatency, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("grid.save_latency must be >= 0, got %s", d)
	}
	return d, nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
