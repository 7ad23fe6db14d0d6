// Package config provides configuration management for skillup using Viper.
package config

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/thoreinstein/skillup/internal/paths"
)

// Config represents the top-level configuration structure.
type Config struct {
	Version int `mapstructure:"version" yaml:"version"`

	// ProjectScopes are extra project roots searched by the locator in
	// addition to the current working directory.
	ProjectScopes []string `mapstructure:"project_scopes" yaml:"project_scopes"`

	// Exclude lists file and directory name patterns skipped when hashing
	// artifact trees, merged with the built-in defaults.
	Exclude []string `mapstructure:"exclude" yaml:"exclude"`

	Backup BackupConfig `mapstructure:"backup" yaml:"backup"`
}

// BackupConfig holds backup-related settings.
type BackupConfig struct {
	// RetentionCount is the number of backups kept per artifact when pruning.
	RetentionCount int `mapstructure:"retention_count" yaml:"retention_count"`

	// Dir overrides the default backup root directory.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// DefaultRetentionCount is the default number of backups kept per artifact.
const DefaultRetentionCount = 5

// Init initializes Viper with defaults and search paths.
// Call this once at application startup before accessing config values.
func Init() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Search paths (in order of precedence)
	viper.AddConfigPath(".")
	viper.AddConfigPath(paths.ConfigDir())

	viper.SetEnvPrefix("SKILLUP")
	viper.AutomaticEnv()

	viper.SetDefault("version", 1)
	viper.SetDefault("backup.retention_count", DefaultRetentionCount)
	viper.SetDefault("backup.dir", paths.BackupRoot())
}

// DefaultConfigPath returns the path to the default config file.
func DefaultConfigPath() string {
	return filepath.Join(paths.ConfigDir(), "config.yaml")
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches the default locations and falls back to
// defaults when no file exists.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Only an error when the user asked for a specific file.
			if path != "" {
				return nil, errors.Wrapf(err, "config file not found at %s", path)
			}
		} else {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}

	return &cfg, nil
}

// Excludes returns the effective manifest exclude list: built-in defaults
// plus any configured extras.
func (c *Config) Excludes() []string {
	return append(paths.DefaultExcludes(), c.Exclude...)
}

// Retention returns the effective backup retention count.
func (c *Config) Retention() int {
	if c.Backup.RetentionCount > 0 {
		return c.Backup.RetentionCount
	}
	return DefaultRetentionCount
}

// BackupDir returns the effective backup root directory.
func (c *Config) BackupDir() string {
	if c.Backup.Dir != "" {
		return c.Backup.Dir
	}
	return paths.BackupRoot()
}
