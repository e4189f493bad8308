// Package config loads runtime settings from an optional .env file, an optional
// config.yaml and EFINANCE_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key when read from the environment,
// e.g. EFINANCE_GCP_PROJECT.
const EnvPrefix = "EFINANCE"

// Store backends.
const (
	StoreBigQuery = "bigquery"
	StoreMemory   = "memory"
)

// Config holds every setting the commands need.
type Config struct {
	Port         int    `mapstructure:"port"`
	Store        string `mapstructure:"store"`
	GCPProject   string `mapstructure:"gcp_project"`
	BQDataset    string `mapstructure:"bq_dataset"`
	GCSBucket    string `mapstructure:"gcs_bucket"`
	CORSOrigins  string `mapstructure:"cors_origins"`
	LogLevel     string `mapstructure:"log_level"`
	LogFormat    string `mapstructure:"log_format"`
	NotionToken  string `mapstructure:"notion_token"`
	DateDayFirst bool   `mapstructure:"date_day_first"`
}

var defaults = map[string]interface{}{
	"port":           8080,
	"store":          StoreMemory,
	"gcp_project":    "",
	"bq_dataset":     "finance",
	"gcs_bucket":     "",
	"cors_origins":   "*",
	"log_level":      "info",
	"log_format":     "console",
	"notion_token":   "",
	"date_day_first": true,
}

// Options controls where Load looks for files. Zero values use ".env" and the
// working directory.
type Options struct {
	EnvFile     string
	ConfigPaths []string
}

// Load reads the configuration. Missing .env and config.yaml files are not errors.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("Load: read %s: %w", envFile, err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	paths := opts.ConfigPaths
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("Load: read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("Load: decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StoreBigQuery:
		if c.GCPProject == "" {
			return fmt.Errorf("Validate: gcp_project is required when store=%s", StoreBigQuery)
		}
		if c.BQDataset == "" {
			return fmt.Errorf("Validate: bq_dataset is required when store=%s", StoreBigQuery)
		}
	default:
		return fmt.Errorf("Validate: unknown store %q", c.Store)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("Validate: port %d out of range", c.Port)
	}
	return nil
}

// AllowedOrigins splits the comma-separated CORS origin list.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
