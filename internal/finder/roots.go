package finder

import (
	"os"
	"strings"

	"github.com/scmls/scmls/internal/utils"
)

// ParseIgnoredRoots splits a configured deny-list value on the platform list
// separator and case-normalizes each entry. Empty entries are dropped.
func ParseIgnoredRoots(configuredValue string) []string {
	if configuredValue == "" {
		return nil
	}
	rawEntries := strings.Split(configuredValue, string(os.PathListSeparator))
	normalizedEntries := make([]string, 0, len(rawEntries))
	for _, rawEntry := range rawEntries {
		trimmedEntry := strings.TrimSpace(rawEntry)
		if trimmedEntry == "" {
			continue
		}
		normalizedEntries = append(normalizedEntries, utils.NormalizeCase(trimmedEntry))
	}
	return normalizedEntries
}

// MatchIgnoredRoot returns the deny-list entry matching the case-normalized
// toplevel path, if any. The deny-list arrives as an explicit parameter;
// this predicate reads no ambient state.
func MatchIgnoredRoot(toplevelPath string, ignoredRoots []string) (string, bool) {
	normalizedToplevel := utils.NormalizeCase(toplevelPath)
	for _, ignoredRoot := range ignoredRoots {
		if ignoredRoot == normalizedToplevel {
			return ignoredRoot, true
		}
	}
	return "", false
}

// IsAcceptableRoot reports whether the toplevel path may be walked. An empty
// toplevel is never acceptable; otherwise the path is acceptable unless its
// case-normalized form appears in the deny-list.
func IsAcceptableRoot(toplevelPath string, ignoredRoots []string) bool {
	if toplevelPath == "" {
		return false
	}
	_, isIgnored := MatchIgnoredRoot(toplevelPath, ignoredRoots)
	return !isIgnored
}
