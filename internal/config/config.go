// Package config provides application configuration loaded from an optional
// YAML document, overridden by environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Reports  ReportsConfig  `mapstructure:"reports"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DatabaseConfig selects the database and how its schema is managed.
type DatabaseConfig struct {
	Path       string `mapstructure:"path"`
	Name       string `mapstructure:"name"`
	Driver     string `mapstructure:"driver"` // sqlite or postgres
	DSN        string `mapstructure:"dsn"`    // postgres only
	Migrations bool   `mapstructure:"migrations"`
	Debug      bool   `mapstructure:"debug"`
	Seed       bool   `mapstructure:"seed"`
}

// ReportsConfig controls where generated documents are written.
type ReportsConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	ShopName  string `mapstructure:"shop_name"`
	Currency  string `mapstructure:"currency"`
}

// LoggingConfig controls the log level and the rotating log file.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// File returns the sqlite database file path.
func (d DatabaseConfig) File() string {
	return filepath.Join(d.Path, d.Name)
}

var levelAliases = map[string]logrus.Level{
	"debug":    logrus.DebugLevel,
	"info":     logrus.InfoLevel,
	"warn":     logrus.WarnLevel,
	"warning":  logrus.WarnLevel,
	"error":    logrus.ErrorLevel,
	"critical": logrus.FatalLevel,
	"fatal":    logrus.FatalLevel,
}

// LogrusLevel maps the configured level name, accepting WARNING and CRITICAL.
func (l LoggingConfig) LogrusLevel() (logrus.Level, error) {
	lvl, ok := levelAliases[strings.ToLower(strings.TrimSpace(l.Level))]
	if !ok {
		return logrus.InfoLevel, fmt.Errorf("unknown logging.level %q", l.Level)
	}
	return lvl, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "data")
	v.SetDefault("database.name", "car_management.db")
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.migrations", false)
	v.SetDefault("database.debug", false)
	v.SetDefault("database.seed", false)
	v.SetDefault("reports.output_dir", "reports")
	v.SetDefault("reports.shop_name", "Car Management System")
	v.SetDefault("reports.currency", "GHS")
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.file", filepath.Join("logs", "app.log"))
	v.SetDefault("logging.max_size_mb", 1)
	v.SetDefault("logging.max_backups", 5)
}

func bindEnvVariables(v *viper.Viper) {
	_ = v.BindEnv("database.dsn", "DATABASE_DSN")
	_ = v.BindEnv("database.debug", "DB_DEBUG")
	_ = v.BindEnv("database.migrations", "MIGRATIONS")
	_ = v.BindEnv("database.seed", "DB_SEED")
}

// Load reads path, or config.yml from . or ./configs when path is empty.
// A missing file leaves the defaults in place; a malformed one is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the application cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Database.Name) == "" {
			return errors.New("database.name must not be empty")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			return errors.New("database.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if _, err := c.Logging.LogrusLevel(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Reports.OutputDir) == "" {
		return errors.New("reports.output_dir must not be empty")
	}
	return nil
}
