package store

import (
	"os"
	"path/filepath"
)

// ResolveDataDir turns the CLI's store-host argument into a directory
// the badger backend can open, creating it if necessary. A relative or
// absolute filesystem path is used as-is (the common case for a local
// manager process); an empty string falls back to the platform data
// directory under "kfchess".
func ResolveDataDir(storeHost string) (string, error) {
	dir := storeHost
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".local", "share", "kfchess", "db")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
