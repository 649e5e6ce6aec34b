package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rwtracker/internal/feed"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "rwtracker.db", cfg.Database)
	assert.Equal(t, time.Hour, cfg.PollingInterval)
	assert.Equal(t, feed.DefaultBaseURL, cfg.Feed.BaseURL)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, 1, cfg.Engine.Parallelism)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
database: /var/lib/rwtracker/data.db
polling_interval: 15m
feed:
  base_url: https://mirror.example
  retries: 5
smtp:
  server: smtp.example.org
  port: 2525
  user: alerts
  password: hunter2
  from: alerts@example.org
  admin_email: soc@example.org
engine:
  parallelism: 4
metrics:
  listen: ":9090"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/rwtracker/data.db", cfg.Database)
	assert.Equal(t, 15*time.Minute, cfg.PollingInterval)
	assert.Equal(t, "https://mirror.example", cfg.Feed.BaseURL)
	assert.Equal(t, 5, cfg.Feed.Retries)
	assert.Equal(t, 30*time.Second, cfg.Feed.Timeout, "unset keys keep defaults")
	assert.Equal(t, "smtp.example.org", cfg.SMTP.Server)
	assert.Equal(t, 2525, cfg.SMTP.Port)
	assert.Equal(t, "soc@example.org", cfg.SMTP.AdminEmail)
	assert.Equal(t, 4, cfg.Engine.Parallelism)
	assert.Equal(t, ":9090", cfg.Metrics.Listen)
}

func TestLoad_LegacyJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"admin_email": "admin@example.org",
		"smtp_from": "tracker@example.org",
		"smtp_server": "mail.example.org",
		"smtp_port": 465,
		"smtp_user": "tracker",
		"smtp_password": "pw"
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.org", cfg.SMTP.AdminEmail)
	assert.Equal(t, "tracker@example.org", cfg.SMTP.From)
	assert.Equal(t, "mail.example.org", cfg.SMTP.Server)
	assert.Equal(t, 465, cfg.SMTP.Port)
	assert.Equal(t, "tracker", cfg.SMTP.User)
	assert.Equal(t, "pw", cfg.SMTP.Password)
	assert.NoError(t, cfg.SMTP.Validate())
}

func TestLoad_NestedWinsOverLegacy(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
smtp_server: legacy.example.org
smtp:
  server: nested.example.org
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "nested.example.org", cfg.SMTP.Server)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvDatabase, "/tmp/env.db")
	t.Setenv(EnvSMTPPassword, "from-env")

	path := writeConfig(t, "config.yaml", "database: file.db\nsmtp:\n  password: from-file\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.Database)
	assert.Equal(t, "from-env", cfg.SMTP.Password)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, "empty.yaml", "\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoad_Malformed(t *testing.T) {
	_, err := Load(writeConfig(t, "bad.yaml", "polling_interval: [oops"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid.yaml", "polling_interval: -1s\nengine:\n  parallelism: 0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "polling_interval")
	assert.Contains(t, err.Error(), "parallelism")
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	_, err := Load(writeConfig(t, "typo.yaml", "databse: typo.db\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
	assert.Contains(t, err.Error(), "databse")

	_, err = Load(writeConfig(t, "typo-nested.yaml", "smtp:\n  sever: smtp.example.org\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sever")
}

func TestLoad_PollingIntervalSeconds(t *testing.T) {
	cfg, err := Load(writeConfig(t, "seconds.yaml", "polling_interval: 3600\n"))
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.PollingInterval)

	cfg, err = Load(writeConfig(t, "seconds.json", `{"polling_interval": 900, "smtp_server": "mail.example.org"}`))
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.PollingInterval)
	assert.Equal(t, "mail.example.org", cfg.SMTP.Server)
}

func TestLoad_PollingIntervalInvalid(t *testing.T) {
	_, err := Load(writeConfig(t, "bad-interval.yaml", "polling_interval: soon\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "polling_interval")

	_, err = Load(writeConfig(t, "zero-interval.yaml", "polling_interval: 0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "polling_interval must be positive")
}

func TestLoad_CommentsOnly(t *testing.T) {
	cfg, err := Load(writeConfig(t, "comments.yaml", "# nothing configured yet\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "cfg.yaml"), expandHome("~/cfg.yaml"))
	assert.Equal(t, "/etc/cfg.yaml", expandHome("/etc/cfg.yaml"))
}
