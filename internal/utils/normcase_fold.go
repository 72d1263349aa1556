//go:build darwin || windows

package utils

import (
	"path/filepath"
	"strings"
)

// NormalizeCase returns a case-folded form of the path for comparisons on
// case-insensitive file systems (macOS, Windows).
func NormalizeCase(inputPath string) string {
	return strings.ToLower(filepath.Clean(inputPath))
}
