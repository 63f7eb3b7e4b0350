// Package config provides the process-wide viper configuration singleton:
// YAML config file discovery, MEMLAYER_-prefixed environment binding, and
// the engine's default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var v *viper.Viper

// Initialize sets up the viper singleton. Call once at process startup;
// safe to call again in tests with a fresh working directory.
func Initialize() error {
	v = viper.New()
	v.SetConfigType("yaml")

	configFileSet := false

	// 1. Walk up from CWD looking for .memlayer/config.yaml, so commands
	//    work from any subdirectory of a project.
	if cwd, err := os.Getwd(); err == nil {
		for dir := cwd; dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
			candidate := filepath.Join(dir, ".memlayer", "config.yaml")
			if _, err := os.Stat(candidate); err == nil {
				v.SetConfigFile(candidate)
				configFileSet = true
				break
			}
		}
	}

	// 2. XDG config dir (~/.config/memlayer/config.yaml).
	if !configFileSet {
		if configDir, err := os.UserConfigDir(); err == nil {
			candidate := filepath.Join(configDir, "memlayer", "config.yaml")
			if _, err := os.Stat(candidate); err == nil {
				v.SetConfigFile(candidate)
				configFileSet = true
			}
		}
	}

	// 3. Home directory fallback (~/.memlayer/config.yaml).
	if !configFileSet {
		if home, err := os.UserHomeDir(); err == nil {
			candidate := filepath.Join(home, ".memlayer", "config.yaml")
			if _, err := os.Stat(candidate); err == nil {
				v.SetConfigFile(candidate)
				configFileSet = true
			}
		}
	}

	v.SetEnvPrefix("MEMLAYER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("db-path", "")
	v.SetDefault("permissive", false)
	v.SetDefault("busy-timeout", "5s")
	v.SetDefault("artifact-snippet-bytes", 1024)
	v.SetDefault("debug", false)
	v.SetDefault("graph-accelerator-url", "")
	v.SetDefault("log-file", "")

	if configFileSet {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: reading %s: %w", v.ConfigFileUsed(), err)
		}
	}
	return nil
}

// ensure returns the singleton, initializing it with defaults-only
// (no config file) if Initialize was never called, so library callers
// never see a nil viper.
func ensure() *viper.Viper {
	if v == nil {
		_ = Initialize()
	}
	return v
}

func GetString(key string) string { return ensure().GetString(key) }
func GetBool(key string) bool     { return ensure().GetBool(key) }
func GetInt(key string) int       { return ensure().GetInt(key) }
func GetDuration(key string) time.Duration {
	return ensure().GetDuration(key)
}

// Set overrides a key for the remainder of the process (CLI flag binding).
func Set(key string, value any) { ensure().Set(key, value) }

// AllSettings returns every resolved key/value the singleton currently
// holds (defaults, config file, and env overrides merged), for `config
// show` to dump.
func AllSettings() map[string]any { return ensure().AllSettings() }

// FileUsed returns the path of the config file that was loaded, or "" if
// none was found.
func FileUsed() string { return ensure().ConfigFileUsed() }

// DBPath resolves the effective database path: the configured value, or
// "memlayer.db" next to the config file if one was found and no explicit
// path was set, or "memlayer.db" in the CWD otherwise.
func DBPath() string {
	if p := GetString("db-path"); p != "" {
		return p
	}
	if cfgFile := ensure().ConfigFileUsed(); cfgFile != "" {
		return filepath.Join(filepath.Dir(cfgFile), "memlayer.db")
	}
	return "memlayer.db"
}

// BusyTimeout parses the busy-timeout setting, defaulting to 5s on a
// malformed value rather than failing store startup.
func BusyTimeout() time.Duration {
	d := GetDuration("busy-timeout")
	if d <= 0 {
		return 5 * time.Second
	}
	return d
}
