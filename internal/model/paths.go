package model

import (
	"os"
	"path/filepath"
)

// HomeDirName is the per-user directory holding config and cache
const HomeDirName = ".termslens"

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "termslens-cache")
	}
	return filepath.Join(home, HomeDirName, "cache")
}
