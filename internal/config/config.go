package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

const (
	appName = "gantt"

	DefaultLogLevel   = "info"
	DefaultDateFormat = "02/01/2006"
	DefaultChartDays  = 42
)

// Config holds the user settings
type Config struct {
	DataDir    string `toml:"data_dir"`
	DBPath     string `toml:"db_path"`
	LogLevel   string `toml:"log_level"`
	DateFormat string `toml:"date_format"`
	ChartDays  int    `toml:"chart_days"`
}

// Env is the environment overlay; empty values leave the file settings alone
type Env struct {
	DataDir    string `envconfig:"DATA_DIR"`
	DBPath     string `envconfig:"DB_PATH"`
	LogLevel   string `envconfig:"LOG_LEVEL"`
	DateFormat string `envconfig:"DATE_FORMAT"`
	ChartDays  int    `envconfig:"CHART_DAYS"`
}

const namespace = "GANTT"

// Load builds the configuration in priority order:
// 1. Defaults
// 2. Config file (path, or the user config file when path is empty)
// 3. GANTT_* environment variables
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = UserConfigFile()
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("loading env: %w", err)
	}
	cfg.apply(env)

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in settings with the data directory under
// XDG_DATA_HOME
func Default() (*Config, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return &Config{
		DataDir:    filepath.Join(dataDir, appName),
		LogLevel:   DefaultLogLevel,
		DateFormat: DefaultDateFormat,
		ChartDays:  DefaultChartDays,
	}, nil
}

// UserConfigFile returns $XDG_CONFIG_HOME/gantt/config.toml, or "" when no
// config directory can be determined
func UserConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName, "config.toml")
}

func (c *Config) apply(env Env) {
	if env.DataDir != "" {
		c.DataDir = env.DataDir
	}
	if env.DBPath != "" {
		c.DBPath = env.DBPath
	}
	if env.LogLevel != "" {
		c.LogLevel = env.LogLevel
	}
	if env.DateFormat != "" {
		c.DateFormat = env.DateFormat
	}
	if env.ChartDays != 0 {
		c.ChartDays = env.ChartDays
	}
}

func (c *Config) finalize() error {
	if c.DataDir == "" {
		return errors.New("data_dir must not be empty")
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, appName+".db")
	}
	if c.DateFormat == "" {
		c.DateFormat = DefaultDateFormat
	}
	if c.ChartDays <= 0 {
		return fmt.Errorf("chart_days must be positive, got %d", c.ChartDays)
	}
	return nil
}

// LogPath is where the terminal UI writes its log
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, appName+".log")
}
