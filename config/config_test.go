package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Store:     StoreConfig{Type: "postgres", URL: "postgres://localhost:5432/pay", Table: "payment_attempt", Timeout: time.Second},
		Generator: GeneratorConfig{EnumPolicy: "canonical"},
		Log:       LogConfig{Path: "attemptgen.log", Level: "info"},
		API:       APIConfig{Port: "5555"},
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Type)
	assert.Equal(t, "payment_attempt", cfg.Store.Table)
	assert.Equal(t, 30*time.Second, cfg.Store.Timeout)
	assert.Equal(t, "canonical", cfg.Generator.EnumPolicy)
	assert.Zero(t, cfg.Generator.Seed)
	assert.Equal(t, "attemptgen", cfg.Metrics.Job)
	assert.Equal(t, "5555", cfg.API.Port)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attemptgen.yaml")
	yaml := `
store:
  type: mysql
  url: tcp(localhost:3306)/pay
  table: attempts
  timeout: 5s
generator:
  seed: 42
  enum_policy: uniform
log:
  level: debug
metrics:
  statsd_addr: 127.0.0.1:8125
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("ATTEMPTGEN_STORE_USERNAME", "app")
	t.Setenv("ATTEMPTGEN_STORE_PASSWORD", "secret")
	t.Setenv("ATTEMPTGEN_API_PORT", "8080")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Store.Type)
	assert.Equal(t, "attempts", cfg.Store.Table)
	assert.Equal(t, 5*time.Second, cfg.Store.Timeout)
	assert.Equal(t, uint64(42), cfg.Generator.Seed)
	assert.Equal(t, "uniform", cfg.Generator.EnumPolicy)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "attemptgen.log", cfg.Log.Path)
	assert.Equal(t, "127.0.0.1:8125", cfg.Metrics.StatsdAddr)
	assert.Equal(t, "app", cfg.Store.Username)
	assert.Equal(t, "secret", cfg.Store.Password)
	assert.Equal(t, "8080", cfg.API.Port)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown store", func(c *Config) { c.Store.Type = "cassandra" }},
		{"missing table", func(c *Config) { c.Store.Table = "" }},
		{"missing url", func(c *Config) { c.Store.URL = "" }},
		{"negative timeout", func(c *Config) { c.Store.Timeout = -time.Second }},
		{"bad policy", func(c *Config) { c.Generator.EnumPolicy = "random" }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"missing port", func(c *Config) { c.API.Port = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGeneratorPolicyNames(t *testing.T) {
	for _, name := range []string{"canonical", "uniform", "Uniform", " CANONICAL ", ""} {
		gc := GeneratorConfig{EnumPolicy: name}
		assert.NoError(t, gc.Validate(), "policy %q", name)
	}
	gc := GeneratorConfig{EnumPolicy: "sometimes"}
	assert.ErrorContains(t, gc.Validate(), "enum policy")
}

func TestStoreConfigEmbeddedDatabases(t *testing.T) {
	for _, typ := range []string{"sqlite", "adbc-duckdb"} {
		sc := StoreConfig{Type: typ, Table: "t"}
		assert.NoError(t, sc.Validate(), typ)
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		sc   StoreConfig
		want string
	}{
		{"no credentials", StoreConfig{URL: "postgres://db:5432/pay"}, "postgres://db:5432/pay"},
		{"user only", StoreConfig{URL: "postgres://db:5432/pay", Username: "app"}, "postgres://app@db:5432/pay"},
		{"user and password", StoreConfig{URL: "postgres://db:5432/pay", Username: "app", Password: "p@ss"}, "postgres://app:p%40ss@db:5432/pay"},
		{"url wins", StoreConfig{URL: "postgres://root@db/pay", Username: "app"}, "postgres://root@db/pay"},
		{"not a url", StoreConfig{URL: "tcp(db:3306)/pay", Username: "app"}, "tcp(db:3306)/pay"},
		{"at sign in query", StoreConfig{URL: "postgres://h/db?application_name=a@b", Username: "app", Password: "s"}, "postgres://app:s@h/db?application_name=a@b"},
		{"at sign in path", StoreConfig{URL: "sqlserver://h:1433/team@pay", Username: "sa"}, "sqlserver://sa@h:1433/team@pay"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sc.DSN())
		})
	}
}
