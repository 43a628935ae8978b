// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves the completion API key. Keys come from the
// environment (optionally seeded from a .env file) or from a directory of
// plain-text files where the filename is the key name and the trimmed file
// contents are the value.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// APIKeyEnv is the environment variable holding the PremAI API key.
	APIKeyEnv = "PREMAI_API_KEY"

	// APIKeyFile is the secrets-directory file holding the same key.
	APIKeyFile = "premai-api-key"
)

// LoadDotEnv adds the variables of the given .env files to the process
// environment. Variables that are already set win. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := entry.Name()

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// APIKey picks the first non-empty key from: explicit (flag or config),
// the PREMAI_API_KEY environment variable, then the loaded secrets files.
func APIKey(explicit string, loaded map[string]string) string {
	if v := strings.TrimSpace(explicit); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv(APIKeyEnv)); v != "" {
		return v
	}
	return loaded[APIKeyFile]
}
