// Package config loads taskmgr configuration from defaults, an optional TOML
// file and TASKMGR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the data directory.
const FileName = "taskmgr.toml"

// EnvPrefix prefixes environment overrides, e.g. TASKMGR_DATA_DIR or
// TASKMGR_DAEMON_REPAIR.
const EnvPrefix = "TASKMGR"

// Config is the resolved configuration.
type Config struct {
	DataDir       string `mapstructure:"data_dir" json:"data_dir" yaml:"data_dir"`
	Database      string `mapstructure:"database" json:"database" yaml:"database"`
	MirrorDir     string `mapstructure:"mirror_dir" json:"mirror_dir" yaml:"mirror_dir"`
	VerifyContent bool   `mapstructure:"verify_content" json:"verify_content" yaml:"verify_content"`

	Log       LogConfig       `mapstructure:"log" json:"log" yaml:"log"`
	Daemon    DaemonConfig    `mapstructure:"daemon" json:"daemon" yaml:"daemon"`
	Dashboard DashboardConfig `mapstructure:"dashboard" json:"dashboard" yaml:"dashboard"`

	// File is the config file that was read, empty if none.
	File string `mapstructure:"-" json:"file,omitempty" yaml:"file,omitempty"`
}

// LogConfig controls the log sink.
type LogConfig struct {
	File       string `mapstructure:"file" json:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" json:"max_age_days" yaml:"max_age_days"`
	Verbose    bool   `mapstructure:"verbose" json:"verbose" yaml:"verbose"`
}

// DaemonConfig controls the mirror audit daemon.
type DaemonConfig struct {
	AuditSchedule string        `mapstructure:"audit_schedule" json:"audit_schedule" yaml:"audit_schedule"`
	Debounce      time.Duration `mapstructure:"debounce" json:"debounce" yaml:"debounce"`
	Repair        bool          `mapstructure:"repair" json:"repair" yaml:"repair"`
}

// DashboardConfig controls the event feed server.
type DashboardConfig struct {
	Port int `mapstructure:"port" json:"port" yaml:"port"`
}

// Options selects where configuration comes from.
type Options struct {
	// File is an explicit config file. When set it must exist.
	File string

	// DataDir overrides data_dir from every other source.
	DataDir string
}

var defaults = map[string]any{
	"data_dir":              "./data",
	"database":              "",
	"mirror_dir":            "",
	"verify_content":        false,
	"log.file":              "",
	"log.max_size_mb":       10,
	"log.max_backups":       3,
	"log.max_age_days":      28,
	"log.verbose":           false,
	"daemon.audit_schedule": "@every 5m",
	"daemon.debounce":       "250ms",
	"daemon.repair":         false,
	"dashboard.port":        8080,
}

// Load resolves configuration. Precedence, highest first: Options.DataDir,
// environment, config file, defaults.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.DataDir != "" {
		v.Set("data_dir", opts.DataDir)
	}

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", opts.File, err)
		}
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		v.SetConfigType("toml")
		v.AddConfigPath(v.GetString("data_dir"))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data_dir cannot be empty")
	}
	if cfg.Database == "" {
		cfg.Database = filepath.Join(cfg.DataDir, "database.db")
	}
	if cfg.MirrorDir == "" {
		cfg.MirrorDir = cfg.DataDir
	}
	if cfg.Daemon.Debounce <= 0 {
		return nil, fmt.Errorf("daemon.debounce must be positive, got %v", cfg.Daemon.Debounce)
	}

	return &cfg, nil
}

// fileConfig is the on-disk TOML layout written by WriteDefault.
type fileConfig struct {
	DataDir       string `toml:"data_dir"`
	Database      string `toml:"database,omitempty"`
	MirrorDir     string `toml:"mirror_dir,omitempty"`
	VerifyContent bool   `toml:"verify_content"`

	Log struct {
		File       string `toml:"file,omitempty"`
		MaxSizeMB  int    `toml:"max_size_mb"`
		MaxBackups int    `toml:"max_backups"`
		MaxAgeDays int    `toml:"max_age_days"`
		Verbose    bool   `toml:"verbose"`
	} `toml:"log"`

	Daemon struct {
		AuditSchedule string `toml:"audit_schedule"`
		Debounce      string `toml:"debounce"`
		Repair        bool   `toml:"repair"`
	} `toml:"daemon"`

	Dashboard struct {
		Port int `toml:"port"`
	} `toml:"dashboard"`
}

// WriteDefault writes cfg as a TOML config file. It refuses to overwrite an
// existing file unless force is set.
func WriteDefault(path string, cfg *Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var fc fileConfig
	fc.DataDir = cfg.DataDir
	// Derived paths are left out so they follow data_dir.
	if cfg.Database != filepath.Join(cfg.DataDir, "database.db") {
		fc.Database = cfg.Database
	}
	if cfg.MirrorDir != cfg.DataDir {
		fc.MirrorDir = cfg.MirrorDir
	}
	fc.VerifyContent = cfg.VerifyContent
	fc.Log.File = cfg.Log.File
	fc.Log.MaxSizeMB = cfg.Log.MaxSizeMB
	fc.Log.MaxBackups = cfg.Log.MaxBackups
	fc.Log.MaxAgeDays = cfg.Log.MaxAgeDays
	fc.Log.Verbose = cfg.Log.Verbose
	fc.Daemon.AuditSchedule = cfg.Daemon.AuditSchedule
	fc.Daemon.Debounce = cfg.Daemon.Debounce.String()
	fc.Daemon.Repair = cfg.Daemon.Repair
	fc.Dashboard.Port = cfg.Dashboard.Port

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	if err := toml.NewEncoder(f).Encode(fc); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return f.Close()
}
