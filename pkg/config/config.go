// Package config loads vselect settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/Dicklesworthstone/vselect/pkg/filter"
	"github.com/Dicklesworthstone/vselect/pkg/model"
	"github.com/Dicklesworthstone/vselect/pkg/viewport"

	"gopkg.in/yaml.v3"
)

// Config is the full application configuration
type Config struct {
	Select Select `yaml:"select"`
	Source Source `yaml:"source"`
	Store  Store  `yaml:"store"`
	Log    Log    `yaml:"log"`
}

// Select configures one select component
type Select struct {
	// ID names the field; used as the persistence key
	ID string `yaml:"id"`

	model.FieldSelector `yaml:",inline"`

	Placeholder   string        `yaml:"placeholder"`
	DefaultOption *model.Option `yaml:"default_option"`
	Multiple      bool          `yaml:"multiple"`
	AllowClear    bool          `yaml:"allow_clear"`
	MatchMode     filter.Mode   `yaml:"match_mode"`

	Virtualize          bool          `yaml:"virtualize"`
	VirtualizeThreshold int           `yaml:"virtualize_threshold"`
	SearchDebounce      time.Duration `yaml:"search_debounce"`
	InitialDisplayCap   int           `yaml:"initial_display_cap"`
	RowHeight           int           `yaml:"row_height"`
	Buffer              int           `yaml:"buffer"`
	ScrollThreshold     int           `yaml:"scroll_threshold"`

	// Width is the closed input width; FocusWidth overrides it while focused
	Width      int `yaml:"width"`
	FocusWidth int `yaml:"focus_width"`
	// Height is the number of list lines shown while open
	Height int `yaml:"height"`

	TapSlop    int           `yaml:"tap_slop"`
	TapMaxHold time.Duration `yaml:"tap_max_hold"`
	BlurGrace  time.Duration `yaml:"blur_grace"`

	LabelCacheSize int `yaml:"label_cache_size"`
}

// Source configures where options come from
type Source struct {
	Path     string        `yaml:"path"`
	Format   string        `yaml:"format"` // "jsonl", "yaml" or "" to infer from the extension
	Watch    bool          `yaml:"watch"`
	Debounce time.Duration `yaml:"debounce"`
}

// Store configures the SQLite catalogue and selection history
type Store struct {
	Path string `yaml:"path"`
	// Driver is "sqlite3" (cgo) or "sqlite" (pure Go)
	Driver string `yaml:"driver"`
	// Catalogue loads options from the named catalogue instead of Source
	Catalogue string `yaml:"catalogue"`
}

// Log configures logging
type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Select: DefaultSelect(),
		Source: Source{Debounce: 250 * time.Millisecond},
		Store:  Store{Driver: "sqlite3"},
		Log:    Log{Level: "info"},
	}
}

// DefaultSelect returns defaults for one select
func DefaultSelect() Select {
	return Select{
		ID:                  "select",
		Placeholder:         "Select...",
		MatchMode:           filter.ModeContains,
		AllowClear:          true,
		Virtualize:          true,
		VirtualizeThreshold: viewport.DefaultVirtualizeThreshold,
		SearchDebounce:      filter.DefaultDebounce,
		InitialDisplayCap:   200,
		RowHeight:           1,
		Buffer:              viewport.DefaultBuffer,
		ScrollThreshold:     viewport.DefaultScrollThreshold,
		Width:               40,
		Height:              10,
		TapSlop:             1,
		TapMaxHold:          400 * time.Millisecond,
		BlurGrace:           150 * time.Millisecond,
		LabelCacheSize:      20000,
	}
}

// Dir returns the configuration directory
func Dir() string {
	if override := os.Getenv("VSELECT_CONFIG_DIR"); override != "" {
		return override
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vselect"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "vselect")
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "vselect")
	default:
		return filepath.Join(home, ".config", "vselect")
	}
}

// DefaultPath is the config file read when no path is given
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultStorePath is the SQLite file used when none is configured
func DefaultStorePath() string {
	return filepath.Join(Dir(), "vselect.db")
}

// Load reads path over the defaults. A missing default config file is not an
// error; a missing explicit path is.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for impossible values
func (c Config) Validate() error {
	if err := c.Select.Validate(); err != nil {
		return err
	}
	switch c.Store.Driver {
	case "", "sqlite3", "sqlite":
	default:
		return fmt.Errorf("store.driver must be sqlite3 or sqlite, got %q", c.Store.Driver)
	}
	switch c.Source.Format {
	case "", "jsonl", "yaml":
	default:
		return fmt.Errorf("source.format must be jsonl or yaml, got %q", c.Source.Format)
	}
	return nil
}

// Validate checks one select's settings
func (s Select) Validate() error {
	if s.MatchMode != "" && !s.MatchMode.IsValid() {
		return fmt.Errorf("select.match_mode %q is not contains or fuzzy", s.MatchMode)
	}
	if s.RowHeight < 1 {
		return fmt.Errorf("select.row_height must be at least 1, got %d", s.RowHeight)
	}
	checks := []struct {
		name  string
		value int
	}{
		{"buffer", s.Buffer},
		{"initial_display_cap", s.InitialDisplayCap},
		{"virtualize_threshold", s.VirtualizeThreshold},
		{"scroll_threshold", s.ScrollThreshold},
		{"width", s.Width},
		{"focus_width", s.FocusWidth},
		{"tap_slop", s.TapSlop},
		{"label_cache_size", s.LabelCacheSize},
	}
	for _, c := range checks {
		if c.value < 0 {
			return fmt.Errorf("select.%s cannot be negative, got %d", c.name, c.value)
		}
	}
	if s.Height < 1 {
		return fmt.Errorf("select.height must be at least 1, got %d", s.Height)
	}
	if s.SearchDebounce < 0 || s.TapMaxHold < 0 || s.BlurGrace < 0 {
		return errors.New("select durations cannot be negative")
	}
	if s.DefaultOption != nil {
		if err := s.DefaultOption.Validate(); err != nil {
			return fmt.Errorf("select.default_option: %w", err)
		}
	}
	return nil
}
