// Package config holds the application configuration model and its
// YAML-based load/save behavior, including first-run config creation and
// 0600 permissions.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FeedConfig describes a single calendar subscription source.
type FeedConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label shown in the UI.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// UrgencyConfig tunes the triage classifier.
type UrgencyConfig struct {
	// HorizonDays is how many days ahead a due date still counts as urgent.
	// Overdue is always urgent.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// ImportantMin is the lowest priority treated as important:
	// "low", "medium" or "high".
	ImportantMin string `yaml:"important_min" json:"important_min"`
}

// LayoutConfig tunes the day-grid geometry.
type LayoutConfig struct {
	// MinHeightPercent is the smallest rendered block height.
	MinHeightPercent float64 `yaml:"min_height_percent" json:"min_height_percent"`

	// EventMinutes and TaskMinutes are the assumed durations for items
	// that do not carry one.
	EventMinutes int `yaml:"default_event_minutes" json:"default_event_minutes"`
	TaskMinutes  int `yaml:"default_task_minutes" json:"default_task_minutes"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA display timezone (e.g. "Europe/Berlin").
	// Empty means the system timezone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart controls which weekday opens the week view. Supported
	// values:
	//   - "monday" (default)
	//   - "sunday"
	WeekStart string `yaml:"week_start" json:"week_start"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// for the periodic feed refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays is how many future days feeds and recurring tasks are
	// materialized for.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// TasksFile is the task snapshot JSON maintained by the companion app.
	TasksFile string `yaml:"tasks_file" json:"tasks_file"`

	// Feeds is the list of subscribed calendar sources.
	Feeds []FeedConfig `yaml:"feeds" json:"feeds"`

	// Urgency and Layout tune the triage board and the day grid.
	Urgency UrgencyConfig `yaml:"urgency" json:"urgency"`
	Layout  LayoutConfig  `yaml:"layout" json:"layout"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "",
		WeekStart:   "monday",
		RefreshCron: "*/15 * * * *",
		HorizonDays: 7,
		TasksFile:   "/var/lib/daygrid/tasks.json",
		Feeds:       []FeedConfig{},
		Urgency: UrgencyConfig{
			HorizonDays:  2,
			ImportantMin: "medium",
		},
		Layout: LayoutConfig{
			MinHeightPercent: 1.4,
			EventMinutes:     60,
			TaskMinutes:      30,
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	// WeekStart default & validation.
	switch c.WeekStart {
	case "monday", "sunday":
		// ok
	case "":
		c.WeekStart = "monday"
	default:
		// Unknown value; fall back to monday to avoid surprising layouts.
		c.WeekStart = "monday"
	}

	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 7
	}
	if c.TasksFile == "" {
		c.TasksFile = "/var/lib/daygrid/tasks.json"
	}
	if c.Feeds == nil {
		c.Feeds = []FeedConfig{}
	}

	if c.Urgency.HorizonDays <= 0 {
		c.Urgency.HorizonDays = 2
	}
	if c.Urgency.ImportantMin == "" {
		c.Urgency.ImportantMin = "medium"
	}

	if c.Layout.MinHeightPercent <= 0 {
		c.Layout.MinHeightPercent = 1.4
	}
	if c.Layout.EventMinutes <= 0 {
		c.Layout.EventMinutes = 60
	}
	if c.Layout.TaskMinutes <= 0 {
		c.Layout.TaskMinutes = 30
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".daygrid-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Set permissions to 0600 on temp file before rename.
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	// Rename over the target path.
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the package-level
// Save function:
//
//	cfg, _ := config.Load(path)
//	// ... mutate cfg ...
//	if err := cfg.Save(path); err != nil { ... }
func (c *Config) Save(path string) error {
	return Save(path, c)
}
