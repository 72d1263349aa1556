// Package finder enumerates the files a version-control system considers
// tracked beneath a root directory, following symlinked directories while
// excluding links into untracked territory and terminating symlink cycles.
package finder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/scmls/scmls/internal/utils"
)

const (
	// notebookFileSuffix is always excluded from results unless force mode is
	// active. Notebook files are routinely tracked yet are not expected to be
	// part of a source package.
	notebookFileSuffix = ".ipynb"

	// errorCanonicalRootFormat reports failure to canonicalize the root path.
	errorCanonicalRootFormat = "canonicalizing root %s: %w"
	// errorReadDirectoryFormat is used when a directory cannot be read.
	errorReadDirectoryFormat = "reading directory %s: %w"
)

// PathSet is a set of canonical path strings. Members must already be
// canonicalized through utils.CanonicalPath; the finder never re-derives
// them.
type PathSet map[string]struct{}

// NewPathSet constructs a PathSet containing the provided paths.
func NewPathSet(paths ...string) PathSet {
	pathSet := make(PathSet, len(paths))
	for _, currentPath := range paths {
		pathSet.Add(currentPath)
	}
	return pathSet
}

// Add inserts a path into the set.
func (pathSet PathSet) Add(path string) {
	pathSet[path] = struct{}{}
}

// Contains reports whether the path is a member of the set.
func (pathSet PathSet) Contains(path string) bool {
	_, isMember := pathSet[path]
	return isMember
}

// walkState holds the per-call traversal state. Each Find call owns its
// state exclusively, so independent calls are safe to run concurrently.
type walkState struct {
	trackedFiles  PathSet
	trackedDirs   PathSet
	forceAll      bool
	originalRoot  string
	canonicalRoot string
	visited       map[string]struct{}
	results       []string
}

// Find walks the directory tree rooted at rootPath and returns the paths
// that belong in a source package, each re-joined onto the caller's original
// root string. trackedFiles and trackedDirs must hold canonical paths
// (absolute, symlinks resolved, case normalized). With forceAll true the
// tracked sets are ignored and every file is listed; the notebook-suffix
// exclusion, the opaque treatment of non-escaping symlinked directories, and
// the cycle guard remain in effect regardless.
//
// Directory-read failures propagate to the caller unmodified; dangling
// symlinks are not errors and are silently excluded.
func Find(rootPath string, trackedFiles PathSet, trackedDirs PathSet, forceAll bool) ([]string, error) {
	canonicalRoot, canonicalRootError := utils.CanonicalPath(rootPath)
	if canonicalRootError != nil {
		return nil, fmt.Errorf(errorCanonicalRootFormat, rootPath, canonicalRootError)
	}

	state := &walkState{
		trackedFiles:  trackedFiles,
		trackedDirs:   trackedDirs,
		forceAll:      forceAll,
		originalRoot:  rootPath,
		canonicalRoot: canonicalRoot,
		visited:       make(map[string]struct{}),
		results:       []string{},
	}
	if walkError := state.walkDirectory(canonicalRoot); walkError != nil {
		return nil, walkError
	}
	return state.results, nil
}

// walkDirectory processes one directory. directoryPath preserves the symlink
// components of the route taken from the root; only the root itself is
// pre-resolved.
func (state *walkState) walkDirectory(directoryPath string) error {
	canonicalDirectory, canonicalDirectoryError := utils.CanonicalPath(directoryPath)
	if canonicalDirectoryError != nil {
		return canonicalDirectoryError
	}

	// A directory absent from the tracked set is skipped wholesale: no
	// children visited, no files emitted.
	if !state.forceAll && !state.trackedDirs.Contains(canonicalDirectory) {
		return nil
	}

	// A symlinked directory whose target does not escape the root is kept as
	// a single opaque entry and never traversed. Its content stays reachable
	// through the target's real location, and a link to an ancestor would
	// otherwise expand without bound. Escaping symlinks fall through to
	// ordinary processing.
	if isSymlink(directoryPath) && !escapesRoot(state.canonicalRoot, canonicalDirectory) {
		state.emit(directoryPath)
		return nil
	}

	// Symlink loop protection for cycles the opaque rule does not catch,
	// such as an escaping symlink whose target was already walked through
	// another path.
	if _, alreadyVisited := state.visited[canonicalDirectory]; alreadyVisited {
		return nil
	}

	directoryEntries, readDirectoryError := os.ReadDir(directoryPath)
	if readDirectoryError != nil {
		return fmt.Errorf(errorReadDirectoryFormat, directoryPath, readDirectoryError)
	}

	var subdirectoryNames []string
	var fileNames []string
	for _, directoryEntry := range directoryEntries {
		if isDirectoryEntry(directoryPath, directoryEntry) {
			subdirectoryNames = append(subdirectoryNames, directoryEntry.Name())
		} else {
			fileNames = append(fileNames, directoryEntry.Name())
		}
	}

	for _, fileName := range fileNames {
		if !state.forceAll && strings.HasSuffix(strings.ToLower(fileName), notebookFileSuffix) {
			continue
		}
		if !state.forceAll && linkNotTracked(directoryPath, fileName, state.trackedFiles) {
			continue
		}
		fullFilePath := filepath.Join(directoryPath, fileName)
		if state.forceAll {
			state.emit(fullFilePath)
			continue
		}
		canonicalFilePath, canonicalFileError := utils.CanonicalPath(fullFilePath)
		if canonicalFileError == nil && state.trackedFiles.Contains(canonicalFilePath) {
			state.emit(fullFilePath)
		}
	}

	state.visited[canonicalDirectory] = struct{}{}

	admittedSubdirectories := filterChildDirectories(directoryPath, subdirectoryNames, state.trackedFiles, state.forceAll)
	for _, subdirectoryName := range admittedSubdirectories {
		if walkError := state.walkDirectory(filepath.Join(directoryPath, subdirectoryName)); walkError != nil {
			return walkError
		}
	}

	return nil
}

// emit records a walked path relative to the canonical root, re-joined onto
// the original root string so results preserve the caller's path style.
func (state *walkState) emit(walkedPath string) {
	relativePath, relativePathError := filepath.Rel(state.canonicalRoot, walkedPath)
	if relativePathError != nil {
		return
	}
	state.results = append(state.results, filepath.Join(state.originalRoot, relativePath))
}

// filterChildDirectories returns the subdirectory names that remain after
// discarding symlinks whose canonical form is absent from trackedFiles. The
// input slice is never mutated.
func filterChildDirectories(directoryPath string, subdirectoryNames []string, trackedFiles PathSet, forceAll bool) []string {
	if forceAll {
		return subdirectoryNames
	}
	admitted := make([]string, 0, len(subdirectoryNames))
	for _, subdirectoryName := range subdirectoryNames {
		if linkNotTracked(directoryPath, subdirectoryName, trackedFiles) {
			continue
		}
		admitted = append(admitted, subdirectoryName)
	}
	return admitted
}

// linkNotTracked reports whether the named entry is a symlink whose
// canonical form is absent from trackedFiles. Non-symlink entries are never
// excluded by this rule.
func linkNotTracked(directoryPath string, entryName string, trackedFiles PathSet) bool {
	fullEntryPath := filepath.Join(directoryPath, entryName)
	if !isSymlink(fullEntryPath) {
		return false
	}
	canonicalEntryPath, canonicalEntryError := utils.CanonicalPath(fullEntryPath)
	if canonicalEntryError != nil {
		return true
	}
	return !trackedFiles.Contains(canonicalEntryPath)
}

// escapesRoot reports whether the canonical path lies outside the canonical
// root, meaning it is only reachable through a ..-prefixed relative path.
func escapesRoot(canonicalRoot string, canonicalPath string) bool {
	relativePath, relativePathError := filepath.Rel(canonicalRoot, canonicalPath)
	if relativePathError != nil {
		return true
	}
	return relativePath == ".." || strings.HasPrefix(relativePath, ".."+string(filepath.Separator))
}

// isSymlink reports whether the path itself is a symbolic link.
func isSymlink(path string) bool {
	pathInfo, lstatError := os.Lstat(path)
	return lstatError == nil && pathInfo.Mode()&os.ModeSymlink != 0
}

// isDirectoryEntry reports whether the entry should be treated as a
// directory for traversal. Symlinks count as directories when their target
// is a directory; dangling symlinks are treated as files.
func isDirectoryEntry(directoryPath string, directoryEntry os.DirEntry) bool {
	if directoryEntry.IsDir() {
		return true
	}
	if directoryEntry.Type()&os.ModeSymlink == 0 {
		return false
	}
	targetInfo, statError := os.Stat(filepath.Join(directoryPath, directoryEntry.Name()))
	return statError == nil && targetInfo.IsDir()
}
