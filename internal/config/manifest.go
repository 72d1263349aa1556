// Package config loads application configuration and tracked-path manifests.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/scmls/scmls/internal/finder"
	"github.com/scmls/scmls/internal/utils"
)

const (
	// filesSectionHeader identifies the section listing tracked files and symlinks.
	filesSectionHeader = "[files]"
	// dirsSectionHeader identifies the section listing tracked directories.
	dirsSectionHeader = "[dirs]"
	// commentPrefix marks manifest lines that carry no entry.
	commentPrefix = "#"

	// errorOpenManifestFormat reports failure to open a manifest file.
	errorOpenManifestFormat = "opening manifest %s: %w"
	// errorScanManifestFormat reports failure while reading a manifest file.
	errorScanManifestFormat = "reading manifest %s: %w"
	// warningCloseFileFormat reports a failure to close a file handle.
	warningCloseFileFormat = "Warning: failed to close %s: %v\n"
)

// LoadTrackedManifest reads a tracked-path manifest and returns the tracked
// file and tracked directory sets in canonical form. A manifest is a plain
// text file with [files] and [dirs] sections; blank lines and lines starting
// with # are skipped, and entries before any section header belong to
// [files]. Relative entries are resolved against rootPath. Every entry is
// canonicalized through utils.CanonicalPath, so the finder's precondition
// that its sets hold canonical paths is met by construction; entries whose
// targets do not exist keep their case-normalized absolute form and simply
// never match.
func LoadTrackedManifest(manifestPath string, rootPath string) (finder.PathSet, finder.PathSet, error) {
	fileHandle, openFileError := os.Open(manifestPath)
	if openFileError != nil {
		return nil, nil, fmt.Errorf(errorOpenManifestFormat, manifestPath, openFileError)
	}
	defer func() {
		closeError := fileHandle.Close()
		if closeError != nil {
			fmt.Fprintf(os.Stderr, warningCloseFileFormat, manifestPath, closeError)
		}
	}()

	trackedFiles := finder.NewPathSet()
	trackedDirs := finder.NewPathSet()
	currentSectionHeader := filesSectionHeader
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		trimmedLine := strings.TrimSpace(scanner.Text())
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, commentPrefix) {
			continue
		}
		if strings.EqualFold(trimmedLine, filesSectionHeader) {
			currentSectionHeader = filesSectionHeader
			continue
		}
		if strings.EqualFold(trimmedLine, dirsSectionHeader) {
			currentSectionHeader = dirsSectionHeader
			continue
		}
		canonicalEntry, canonicalEntryError := canonicalManifestEntry(trimmedLine, rootPath)
		if canonicalEntryError != nil {
			return nil, nil, canonicalEntryError
		}
		if currentSectionHeader == dirsSectionHeader {
			trackedDirs.Add(canonicalEntry)
			continue
		}
		trackedFiles.Add(canonicalEntry)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, nil, fmt.Errorf(errorScanManifestFormat, manifestPath, scanError)
	}
	return trackedFiles, trackedDirs, nil
}

// canonicalManifestEntry resolves a manifest entry against the root being
// walked and returns its canonical form.
func canonicalManifestEntry(entryPath string, rootPath string) (string, error) {
	resolvedEntry := entryPath
	if !filepath.IsAbs(resolvedEntry) {
		resolvedEntry = filepath.Join(rootPath, resolvedEntry)
	}
	return utils.CanonicalPath(resolvedEntry)
}
