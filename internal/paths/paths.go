// Package paths resolves configuration and data directory locations.
package paths

import (
	"os"
	"path/filepath"
)

// Hidden directory names for the two configuration scopes and the default
// sqlite data directory.
const (
	ConfigDirName      = ".tether"
	DefaultDataDirName = ".tether-db"
)

// Environment variable names for directory overrides.
const (
	EnvGlobalConfigDir = "TETHER_CONFIG_DIR"
	EnvDataDir         = "TETHER_DATA_DIR"
)

// homeDir can be overridden in tests.
var homeDir = os.UserHomeDir

// LocalConfigDir returns the project-relative configuration directory,
// $(CWD)/.tether.
func LocalConfigDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, ConfigDirName), nil
}

// GlobalConfigDir returns the user-wide configuration directory following
// the precedence chain: TETHER_CONFIG_DIR env > ~/.tether.
func GlobalConfigDir() (string, error) {
	if env := os.Getenv(EnvGlobalConfigDir); env != "" {
		return filepath.Abs(env)
	}
	home, err := homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDirName), nil
}

// ResolveDataDir returns the sqlite data directory following the precedence
// chain: flag > config value > TETHER_DATA_DIR env > $(CWD)/.tether-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}
