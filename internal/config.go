package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Review ReviewConfig      `yaml:"review"`
	Events EventsConfig      `yaml:"events"`
	Inbox  InboxConfig       `yaml:"inbox"`
	Seed   SeedConfig        `yaml:"seed"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Review.Validate(); err != nil {
		return fmt.Errorf("review: %w", err)
	}
	if err := c.Events.Validate(); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	return c.Inbox.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// ReviewConfig holds review scheduling defaults.
type ReviewConfig struct {
	// DefaultIntervalDays applies when a set-review request omits days.
	DefaultIntervalDays int `yaml:"default_interval_days"`
	// DueLimit caps due-review listings that do not pass a limit. 0 means no cap.
	DueLimit int `yaml:"due_limit"`
}

// Validate validates the review configuration.
func (c *ReviewConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultIntervalDays, validation.Required, validation.Min(1)),
		validation.Field(&c.DueLimit, validation.Min(0)),
	)
}

// EventsConfig holds SSE settings.
type EventsConfig struct {
	// Throttle is the minimum gap between two tags.updated events.
	Throttle time.Duration `yaml:"throttle"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Throttle, validation.Min(time.Duration(0))),
	)
}

// InboxConfig holds the import directory settings. An empty Path disables
// the importer.
type InboxConfig struct {
	Path string `yaml:"path"`
	// ArchiveDir is relative to Path. Empty deletes imported files.
	ArchiveDir string `yaml:"archive_dir"`
}

// Enabled reports whether an inbox directory is configured.
func (c *InboxConfig) Enabled() bool {
	return c.Path != ""
}

// Validate validates the inbox configuration.
func (c *InboxConfig) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.ArchiveDir, validation.By(func(any) error {
			if c.ArchiveDir == "" {
				return nil
			}
			clean := filepath.Clean(c.ArchiveDir)
			if filepath.IsAbs(clean) || clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
				return errors.New("must be a sub-directory of the inbox path")
			}
			return nil
		})),
	)
	if err != nil {
		return fmt.Errorf("inbox: %w", err)
	}
	return nil
}

// SeedConfig controls sample data loading.
type SeedConfig struct {
	// OnStart seeds an empty store when the server starts.
	OnStart bool `yaml:"on_start"`
	// Path points to a YAML file of entries. Empty uses the built-in samples.
	Path string `yaml:"path"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./mnemo.db",
		},
		Review: ReviewConfig{
			DefaultIntervalDays: 1,
			DueLimit:            20,
		},
		Events: EventsConfig{
			Throttle: 2 * time.Second,
		},
		Inbox: InboxConfig{
			ArchiveDir: ".imported",
		},
	}
}
