// Package config loads the crm configuration and resolves the paths it names.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath replaces a leading ~ with the home directory and expands $VAR references.
// The path is returned unchanged apart from that; relative paths stay relative.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}

	if rest, ok := strings.CutPrefix(path, "~"); ok && (rest == "" || strings.HasPrefix(rest, "/")) {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + rest
		}
	}

	return filepath.Clean(os.ExpandEnv(path))
}

// ResolvePath expands path and anchors it at baseDir when it is still relative.
// Settings files store credential paths relative to their own directory.
func ResolvePath(baseDir, path string) string {
	if path == "" {
		return ""
	}
	path = ExpandPath(path)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, filepath.FromSlash(path))
}
