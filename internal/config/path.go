package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const EnvConfigDir = "NETHOP_CONFIG_DIR"

func Dir() string {
	if override := os.Getenv(EnvConfigDir); override != "" {
		return override
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".nethop"
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "nethop")
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "nethop")
	default:
		return filepath.Join(home, ".config", "nethop")
	}
}

func HistoryPath() string {
	return filepath.Join(Dir(), "history.json")
}
