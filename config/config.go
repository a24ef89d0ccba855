// Package config loads the doctor's runtime configuration.
//
// The database path is an explicit value handed to every operation rather
// than a process-wide constant. Sources are layered: built-in defaults,
// then an optional sqlite-doctor.yaml, then SQLITE_DOCTOR_* environment
// variables, then command-line flags.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "SQLITE_DOCTOR_"

// Config holds everything the helper operations need.
type Config struct {
	// DBPath is the database file under diagnosis.
	DBPath string `koanf:"db_path"`
	// BackupDir receives timestamped copies of the database.
	BackupDir string `koanf:"backup_dir"`
	// LockTimeout bounds the lock probe. Kept short so a held lock is
	// reported quickly instead of being waited out.
	LockTimeout time.Duration `koanf:"lock_timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBPath:      "data/app.db",
		BackupDir:   "backups",
		LockTimeout: 500 * time.Millisecond,
	}
}

// findConfigFile picks the config file to use.
// Priority: explicit path > sqlite-doctor.yaml > sqlite-doctor.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"sqlite-doctor.yaml", "sqlite-doctor.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load builds the effective configuration. flags may be nil; configFile may
// be empty, in which case sqlite-doctor.yaml is used if present.
func Load(configFile string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	def := Default()
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"db_path":      def.DBPath,
		"backup_dir":   def.BackupDir,
		"lock_timeout": def.LockTimeout,
	}, "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(configFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	} else if configFile != "" {
		return Config{}, fmt.Errorf("config file %s not found", configFile)
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	if flags != nil {
		// Flag names use dashes (--backup-dir); config keys use underscores.
		// Only flags the user actually set may override lower layers.
		p := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		})
		if err := k.Load(p, nil); err != nil {
			return Config{}, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.DBPath == "" {
		return Config{}, fmt.Errorf("db_path must not be empty")
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = def.LockTimeout
	}
	return cfg, nil
}
