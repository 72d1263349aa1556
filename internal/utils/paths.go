// Package utils contains general helper functions used across the scmls tool.
package utils

import (
	"fmt"
	"path/filepath"
)

// errorAbsolutePathFormat reports failure to resolve an absolute path.
const errorAbsolutePathFormat = "getting absolute path for %s: %w"

// CanonicalPath returns the canonical form of the provided path: absolute,
// with symlinks resolved, and with filesystem case normalized. Canonical
// forms are the sole basis for tracked-set membership comparisons, so every
// candidate path and every tracked entry must pass through this function
// before being compared.
//
// When symlink resolution fails, typically because the path or a symlink
// target does not exist, the case-normalized absolute path is returned
// instead. Such paths never match a resolved tracked set, which silently
// excludes dangling symlinks without raising an error.
func CanonicalPath(inputPath string) (string, error) {
	absolutePath, absolutePathError := filepath.Abs(inputPath)
	if absolutePathError != nil {
		return "", fmt.Errorf(errorAbsolutePathFormat, inputPath, absolutePathError)
	}
	resolvedPath, resolveError := filepath.EvalSymlinks(absolutePath)
	if resolveError != nil {
		return NormalizeCase(filepath.Clean(absolutePath)), nil
	}
	return NormalizeCase(resolvedPath), nil
}
