package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/TFMV/attemptgen/pkg/randr"
)

// EnvPrefix namespaces environment overrides, e.g. ATTEMPTGEN_STORE_URL.
const EnvPrefix = "ATTEMPTGEN"

// --- Configuration Structs ---

type StoreConfig struct {
	Type       string        `mapstructure:"type" yaml:"type"`
	URL        string        `mapstructure:"url" yaml:"url,omitempty"`
	Username   string        `mapstructure:"username" yaml:"username,omitempty"`
	Password   string        `mapstructure:"password" yaml:"password,omitempty"`
	DriverPath string        `mapstructure:"driver_path" yaml:"driver_path,omitempty"`
	Table      string        `mapstructure:"table" yaml:"table"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type GeneratorConfig struct {
	// Seed of zero draws from the operating system.
	Seed       uint64 `mapstructure:"seed" yaml:"seed,omitempty"`
	EnumPolicy string `mapstructure:"enum_policy" yaml:"enum_policy"`
}

type LogConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Level string `mapstructure:"level" yaml:"level"`
}

type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url" yaml:"pushgateway_url,omitempty"`
	Job            string `mapstructure:"job" yaml:"job"`
	StatsdAddr     string `mapstructure:"statsd_addr" yaml:"statsd_addr,omitempty"`
}

type APIConfig struct {
	Port string `mapstructure:"port" yaml:"port"`
}

type Config struct {
	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	Generator GeneratorConfig `mapstructure:"generator" yaml:"generator"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	API       APIConfig       `mapstructure:"api" yaml:"api"`
}

var defaults = map[string]any{
	"store.type":              "sqlite",
	"store.url":               "",
	"store.username":          "",
	"store.password":          "",
	"store.driver_path":       "",
	"store.table":             "payment_attempt",
	"store.timeout":           "30s",
	"generator.seed":          0,
	"generator.enum_policy":   "canonical",
	"log.path":                "attemptgen.log",
	"log.level":               "info",
	"metrics.pushgateway_url": "",
	"metrics.job":             "attemptgen",
	"metrics.statsd_addr":     "",
	"api.port":                "5555",
}

// StoreTypes lists the accepted values of store.type.
var StoreTypes = []string{"postgres", "sqlite", "mysql", "mssql", "adbc-postgres", "adbc-duckdb"}

// --- Load Configuration ---

// LoadConfig reads the YAML file at configPath, when given, then applies
// ATTEMPTGEN_* environment overrides on top of the defaults.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// --- Validation Functions ---

// validate is a helper function to reduce repetition.
func validate(condition bool, format string, a ...any) error {
	if !condition {
		return fmt.Errorf(format, a...)
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store validation failed: %w", err)
	}
	if err := c.Generator.Validate(); err != nil {
		return fmt.Errorf("generator validation failed: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log validation failed: %w", err)
	}
	return c.API.Validate()
}

func (sc *StoreConfig) Validate() error {
	if err := validate(slices.Contains(StoreTypes, sc.Type), "unknown store type %q (want one of %s)", sc.Type, strings.Join(StoreTypes, ", ")); err != nil {
		return err
	}
	if err := validate(sc.Table != "", "table name is required"); err != nil {
		return err
	}
	if err := validate(sc.Timeout >= 0, "timeout must not be negative"); err != nil {
		return err
	}
	switch sc.Type {
	case "sqlite", "adbc-duckdb":
		// An empty url means an in-memory database.
		return nil
	default:
		return validate(sc.URL != "", "url is required for %s", sc.Type)
	}
}

func (gc *GeneratorConfig) Validate() error {
	_, err := randr.ParseEnumPolicy(gc.EnumPolicy)
	return err
}

func (lc *LogConfig) Validate() error {
	switch strings.ToLower(lc.Level) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("unknown log level %q", lc.Level)
	}
}

func (ac *APIConfig) Validate() error {
	return validate(ac.Port != "", "api port is required")
}

// DSN returns the store url with username and password applied. Credentials
// that are already part of the url win; driver-specific DSNs that are not
// URLs are returned as given.
func (sc *StoreConfig) DSN() string {
	if sc.Username == "" || !strings.Contains(sc.URL, "://") {
		return sc.URL
	}
	u, err := url.Parse(sc.URL)
	if err != nil || u.User != nil || u.Host == "" {
		return sc.URL
	}
	u.User = url.User(sc.Username)
	if sc.Password != "" {
		u.User = url.UserPassword(sc.Username, sc.Password)
	}
	return u.String()
}
