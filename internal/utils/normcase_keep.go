//go:build !darwin && !windows

package utils

import "path/filepath"

// NormalizeCase returns the cleaned path unchanged on case-sensitive file
// systems.
func NormalizeCase(inputPath string) string {
	return filepath.Clean(inputPath)
}
