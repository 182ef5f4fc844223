package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// NotionConfig holds credentials and connection settings for the Notion API.
type NotionConfig struct {
	// Token is the integration token sent as a Bearer credential.
	Token string `yaml:"token" json:"-"`
	// DatabaseID identifies the database (used by the -check mode).
	DatabaseID string `yaml:"database_id" json:"database_id"`
	// DataSourceID identifies the data source whose records become events.
	DataSourceID string `yaml:"data_source_id" json:"data_source_id"`
	// Version is the Notion-Version header value.
	Version string `yaml:"version" json:"version"`
	// TimeoutSeconds bounds every API call.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// Timeout returns TimeoutSeconds as a duration.
func (n NotionConfig) Timeout() time.Duration {
	return time.Duration(n.TimeoutSeconds) * time.Second
}

// PropertyConfig maps the record properties the transform reads.
// Defaults match the "DnB Events" database schema.
type PropertyConfig struct {
	Title string `yaml:"title" json:"title"`
	ID    string `yaml:"id" json:"id"`
	Date  string `yaml:"date" json:"date"`
}

// CalendarConfig controls the produced document.
type CalendarConfig struct {
	// ProdID is the PRODID header value.
	ProdID string `yaml:"prodid" json:"prodid"`
	// Filename is the output file name inside the output directory.
	Filename string `yaml:"filename" json:"filename"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for serve mode.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
}

// Config is the top-level application configuration.
type Config struct {
	Notion     NotionConfig   `yaml:"notion" json:"notion"`
	Properties PropertyConfig `yaml:"properties" json:"properties"`
	Calendar   CalendarConfig `yaml:"calendar" json:"calendar"`

	// RefreshCron is a cron-style schedule (e.g. "*/15 * * * *") for
	// periodic regeneration. Empty means run once and exit.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Listen, if non-empty, enables the HTTP serve mode exposing the
	// generated calendar for subscription.
	Listen string `yaml:"listen" json:"listen"`

	// BasicAuth, if non-nil, protects serve-mode endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	// SkipMalformed logs and skips records the transform rejects instead
	// of aborting the run. Default is fail-fast.
	SkipMalformed bool `yaml:"skip_malformed" json:"skip_malformed"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Notion: NotionConfig{
			Version:        "2025-09-03",
			TimeoutSeconds: 15,
		},
		Properties: PropertyConfig{
			Title: "Event Name",
			ID:    "ID",
			Date:  "Date",
		},
		Calendar: CalendarConfig{
			ProdID:   "-//DnB Events//Subscribed Calendar//EN",
			Filename: "calendar.ics",
		},
	}
}

// Normalize fills in missing/zero values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Notion.Version == "" {
		c.Notion.Version = def.Notion.Version
	}
	if c.Notion.TimeoutSeconds <= 0 {
		c.Notion.TimeoutSeconds = def.Notion.TimeoutSeconds
	}
	if c.Properties.Title == "" {
		c.Properties.Title = def.Properties.Title
	}
	if c.Properties.ID == "" {
		c.Properties.ID = def.Properties.ID
	}
	if c.Properties.Date == "" {
		c.Properties.Date = def.Properties.Date
	}
	if c.Calendar.ProdID == "" {
		c.Calendar.ProdID = def.Calendar.ProdID
	}
	if c.Calendar.Filename == "" {
		c.Calendar.Filename = def.Calendar.Filename
	}
}

// ApplyEnv overlays credentials from the process environment. Environment
// values win over file values so that tokens never need to live on disk.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("NOTION_TOKEN"); v != "" {
		c.Notion.Token = v
	}
	if v := os.Getenv("NOTION_DATABASE_ID"); v != "" {
		c.Notion.DatabaseID = v
	}
	if v := os.Getenv("NOTION_DATASOURCE_ID"); v != "" {
		c.Notion.DataSourceID = v
	}
}

// Validate checks that the credentials required for a fetch are present.
func (c *Config) Validate() error {
	if c.Notion.Token == "" {
		return errors.New("notion token is empty (set NOTION_TOKEN or notion.token)")
	}
	if c.Notion.DatabaseID == "" {
		return errors.New("notion database id is empty (set NOTION_DATABASE_ID or notion.database_id)")
	}
	if c.Notion.DataSourceID == "" {
		return errors.New("notion data source id is empty (set NOTION_DATASOURCE_ID or notion.data_source_id)")
	}
	return nil
}

// Load loads configuration from the given YAML path and overlays the
// environment.
//
// Behavior:
//   - path == "": defaults + environment only.
//   - file does not exist: same as empty path. Credentials come from the
//     environment, so a missing file is not an error and no default file
//     is written.
//   - file exists: YAML unmarshal, normalize, then environment overlay.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		case errors.Is(err, fs.ErrNotExist):
			// fall through to defaults
		default:
			return nil, err
		}
	}

	cfg.Normalize()
	cfg.ApplyEnv()

	return cfg, nil
}
