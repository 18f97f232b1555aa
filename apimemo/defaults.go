// Package apimemo holds application-wide defaults shared by the config, db and
// client packages.
package apimemo

import (
	"os"
	"path/filepath"
)

const (
	DefaultAppName = "apimemo"

	// DefaultCacheCapacity is the number of responses kept per client session.
	DefaultCacheCapacity = 5

	// DefaultOptionsFileName is the arrow-delimited API options file looked up
	// next to the YAML config.
	DefaultOptionsFileName = "api.conf"

	DefaultLedgerFileName = "ledger.db"
)

var (
	DefaultConfigPath = filepath.Join(userConfigDir(), DefaultAppName)
	DefaultDataDir    = filepath.Join(userDataDir(), DefaultAppName)
	DefaultLedgerPath = filepath.Join(DefaultDataDir, DefaultLedgerFileName)
)

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return os.TempDir()
}

func userDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share")
	}
	return os.TempDir()
}
