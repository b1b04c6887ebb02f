package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadDotenv locates and loads a .env file into the process environment.
// It walks up from the working directory looking for .env, then falls back
// to ~/.env. Already-set variables are never overwritten. A missing file is
// not an error; credentials may come from the environment directly.
func LoadDotenv() {
	path := findDotenv()
	if path == "" {
		return
	}
	if err := godotenv.Load(path); err != nil {
		slog.Warn("failed to load .env", "path", path, "err", err)
		return
	}
	slog.Debug("loaded .env", "path", path)
}

// DotenvPath returns the .env file used for credential persistence: the
// discovered file if one exists, otherwise ~/.env (created on first write).
func DotenvPath() string {
	if path := findDotenv(); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".env"
	}
	return filepath.Join(home, ".env")
}

func findDotenv() string {
	dir, err := os.Getwd()
	if err == nil {
		for {
			candidate := filepath.Join(dir, ".env")
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	candidate := filepath.Join(home, ".env")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}
