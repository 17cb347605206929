package schema

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// dashboardKeys are the YAML sections that together define a dashboard.
var dashboardKeys = []string{"fields", "filters", "kpis", "summaries", "charts", "detail"}

// Load reads a YAML config over Default. An empty path or a missing file
// yields the defaults. A file that sets any dashboard section (fields,
// filters, kpis, summaries, charts, detail) replaces the whole default
// dashboard; sections it leaves out stay empty. Runtime settings such as
// header_row, source, server and logging keep their defaults when unset.
// Environment overrides apply last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, errors.Wrap(err, "failed to read config")
		default:
			var top map[string]interface{}
			if err := yaml.Unmarshal(data, &top); err != nil {
				return nil, errors.Wrap(err, "failed to parse config")
			}
			for _, k := range dashboardKeys {
				if _, ok := top[k]; ok {
					cfg.clearDashboard()
					break
				}
			}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrap(err, "failed to parse config")
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) clearDashboard() {
	c.Fields = nil
	c.Filters = nil
	c.KPIs = nil
	c.Summaries = nil
	c.Charts = nil
	c.Detail = nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "failed to load %s", f)
		}
	}
	return nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "failed to create config directory")
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write config")
	}
	return nil
}

// applyEnvOverrides applies PROGDASH_* environment variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PROGDASH_SOURCE"); v != "" {
		c.Source.Path = v
	}
	if v := os.Getenv("PROGDASH_SOURCE_KIND"); v != "" {
		c.Source.Kind = strings.ToLower(v)
	}
	if v := os.Getenv("PROGDASH_SHEETS"); v != "" {
		c.Source.Sheets = strings.Split(v, ",")
	}
	if v := os.Getenv("PROGDASH_DSN"); v != "" {
		c.Source.DSN = v
	}
	if v := os.Getenv("PROGDASH_QUERY"); v != "" {
		c.Source.Query = v
	}
	if v := os.Getenv("PROGDASH_HEADER_ROW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.HeaderRow = n
		}
	}
	if v := os.Getenv("PROGDASH_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("PROGDASH_REFRESH_SCHEDULE"); v != "" {
		c.Server.RefreshSchedule = v
	}
	if v := os.Getenv("PROGDASH_WATCH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Server.Watch = b
		}
	}
	if v := os.Getenv("PROGDASH_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

// GetSessionTTL returns the idle session lifetime, 2h if unset or invalid.
func (c *Config) GetSessionTTL() time.Duration {
	d, err := time.ParseDuration(c.Server.SessionTTL)
	if err != nil || d <= 0 {
		return 2 * time.Hour
	}
	return d
}

// GetLocation returns the time zone for scheduled refreshes, UTC if unset.
func (c *Config) GetLocation() *time.Location {
	if c.Server.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Server.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
