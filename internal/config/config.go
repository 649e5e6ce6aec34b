// Package config loads tracker settings from a YAML (or JSON) file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rwtracker/internal/feed"
	"github.com/roach88/rwtracker/internal/notify"
)

// Environment variables that override file settings.
const (
	EnvDatabase     = "RWTRACKER_DATABASE"
	EnvSMTPPassword = "RWTRACKER_SMTP_PASSWORD"
)

// Config is the complete tracker configuration.
type Config struct {
	Database        string            `yaml:"database"`
	PollingInterval time.Duration     `yaml:"-"` // file key polling_interval, see fileConfig
	Feed            feed.Config       `yaml:"feed"`
	SMTP            notify.SMTPConfig `yaml:"smtp"`
	Engine          EngineConfig      `yaml:"engine"`
	Metrics         MetricsConfig     `yaml:"metrics"`
}

// EngineConfig tunes the match engine.
type EngineConfig struct {
	Parallelism int `yaml:"parallelism"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Listen is the address for /metrics, e.g. ":9090". Empty disables it.
	Listen string `yaml:"listen"`
}

// legacyConfig is the flat key layout of older JSON config files.
type legacyConfig struct {
	AdminEmail   string `yaml:"admin_email"`
	SMTPFrom     string `yaml:"smtp_from"`
	SMTPServer   string `yaml:"smtp_server"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
}

// fileConfig is the layout of a config file: the nested sections, the flat
// legacy keys, and polling_interval as a duration string or whole seconds.
type fileConfig struct {
	Config          `yaml:",inline"`
	Legacy          legacyConfig `yaml:",inline"`
	PollingInterval *interval    `yaml:"polling_interval"`
}

// interval decodes "15m" style durations, and bare integers as seconds.
type interval time.Duration

func (d *interval) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!int" {
		secs, err := strconv.ParseInt(n.Value, 10, 64)
		if err != nil {
			return fmt.Errorf("polling_interval: %w", err)
		}
		*d = interval(time.Duration(secs) * time.Second)
		return nil
	}

	var s string
	if err := n.Decode(&s); err != nil {
		return fmt.Errorf("polling_interval: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("polling_interval: %w", err)
	}
	*d = interval(v)
	return nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Database:        "rwtracker.db",
		PollingInterval: time.Hour,
		Feed:            feed.DefaultConfig(),
		SMTP: notify.SMTPConfig{
			Port: 587,
		},
		Engine: EngineConfig{
			Parallelism: 1,
		},
	}
}

// Load reads the file at path over the defaults. An empty path returns the
// defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(expandHome(path))
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	fc := fileConfig{Config: *c}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	*c = fc.Config
	if fc.PollingInterval != nil {
		c.PollingInterval = time.Duration(*fc.PollingInterval)
	}
	c.foldLegacy(fc.Legacy)
	return nil
}

// foldLegacy copies flat keys into the smtp section where it is unset.
func (c *Config) foldLegacy(l legacyConfig) {
	setIfEmpty(&c.SMTP.AdminEmail, l.AdminEmail)
	setIfEmpty(&c.SMTP.From, l.SMTPFrom)
	setIfEmpty(&c.SMTP.Server, l.SMTPServer)
	setIfEmpty(&c.SMTP.User, l.SMTPUser)
	setIfEmpty(&c.SMTP.Password, l.SMTPPassword)
	if l.SMTPPort != 0 {
		c.SMTP.Port = l.SMTPPort
	}
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDatabase); v != "" {
		c.Database = v
	}
	if v := os.Getenv(EnvSMTPPassword); v != "" {
		c.SMTP.Password = v
	}
}

// Validate checks settings every command depends on. SMTP settings are
// checked separately by commands that send mail.
func (c *Config) Validate() error {
	var errs []error
	if c.Database == "" {
		errs = append(errs, errors.New("database path is required"))
	}
	if c.PollingInterval <= 0 {
		errs = append(errs, fmt.Errorf("polling_interval must be positive, got %s", c.PollingInterval))
	}
	if c.Engine.Parallelism < 1 {
		errs = append(errs, fmt.Errorf("engine.parallelism must be at least 1, got %d", c.Engine.Parallelism))
	}
	if c.Feed.Retries < 0 {
		errs = append(errs, fmt.Errorf("feed.retries must not be negative, got %d", c.Feed.Retries))
	}
	return errors.Join(errs...)
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
