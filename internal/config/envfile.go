// AngelaMos | 2026
// envfile.go

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvFileCandidates returns the dotenv locations searched at startup, in
// priority order. ENV_FILE, when set, is always tried first.
func EnvFileCandidates() []string {
	candidates := make([]string, 0, 8)

	if explicit := os.Getenv("ENV_FILE"); explicit != "" {
		candidates = append(candidates, explicit)
	}

	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates,
			filepath.Join(wd, "backend", "env"),
			filepath.Join(wd, "env"),
		)
	}

	return append(candidates,
		filepath.Join("backend", "env"),
		"env",
		filepath.Join("backend", ".env"),
		".env",
	)
}

// LoadEnvFile loads the first existing candidate into the process
// environment without overriding variables that are already set. It returns
// the path that was loaded, or "" when none of the candidates exist.
func LoadEnvFile(candidates []string) (string, error) {
	for _, path := range candidates {
		if !fileExists(path) {
			continue
		}

		if err := godotenv.Load(path); err != nil {
			return "", fmt.Errorf("parse %s: %w", path, err)
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return path, nil //nolint:nilerr // relative path is still useful
		}
		return abs, nil
	}

	return "", nil
}
