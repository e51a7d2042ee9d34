package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// defaultDir is the subdirectory of the user's home holding runtime files.
const defaultDir = ".linkedlens"

// DefaultSettingsFile is the settings store file name inside ~/.linkedlens.
const DefaultSettingsFile = "settings.json"

// ResolvePath turns a configured file path into an absolute one. Absolute paths are used
// as is, a leading "~/" is expanded, and a bare file name (or an empty value, which means
// defaultFilename) is placed inside ~/.linkedlens.
func ResolvePath(configured, defaultFilename string) (string, error) {
	if filepath.IsAbs(configured) {
		return configured, nil
	}
	if configured != "" && strings.ContainsRune(configured, filepath.Separator) && !strings.HasPrefix(configured, "~") {
		abs, err := filepath.Abs(configured)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", configured, err)
		}
		return abs, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	if rest, ok := strings.CutPrefix(configured, "~/"); ok {
		return filepath.Join(home, rest), nil
	}

	name := configured
	if name == "" {
		name = defaultFilename
	}
	return filepath.Join(home, defaultDir, name), nil
}
