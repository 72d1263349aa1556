package finder_test

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"github.com/scmls/scmls/internal/finder"
	"github.com/scmls/scmls/internal/utils"
)

// writeTestFile creates a file with placeholder content, failing the test on error.
func writeTestFile(testingHandle *testing.T, filePath string) {
	testingHandle.Helper()
	if writeError := os.WriteFile(filePath, []byte("content\n"), 0o644); writeError != nil {
		testingHandle.Fatalf("failed to write %s: %v", filePath, writeError)
	}
}

// makeDirectory creates a directory, failing the test on error.
func makeDirectory(testingHandle *testing.T, directoryPath string) {
	testingHandle.Helper()
	if makeDirError := os.MkdirAll(directoryPath, 0o755); makeDirError != nil {
		testingHandle.Fatalf("failed to create directory %s: %v", directoryPath, makeDirError)
	}
}

// makeSymlink creates a symbolic link, failing the test on error.
func makeSymlink(testingHandle *testing.T, targetPath string, linkPath string) {
	testingHandle.Helper()
	if symlinkError := os.Symlink(targetPath, linkPath); symlinkError != nil {
		testingHandle.Fatalf("failed to create symlink %s -> %s: %v", linkPath, targetPath, symlinkError)
	}
}

// canonical returns the canonical form of a path, failing the test on error.
func canonical(testingHandle *testing.T, inputPath string) string {
	testingHandle.Helper()
	canonicalPath, canonicalError := utils.CanonicalPath(inputPath)
	if canonicalError != nil {
		testingHandle.Fatalf("failed to canonicalize %s: %v", inputPath, canonicalError)
	}
	return canonicalPath
}

// sortedCopy returns a sorted copy of the provided paths.
func sortedCopy(paths []string) []string {
	copied := append([]string{}, paths...)
	sort.Strings(copied)
	return copied
}

// TestFindTrackedFileOnly verifies that only tracked files are listed.
func TestFindTrackedFileOnly(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "a.py"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "b.py"))

	trackedFiles := finder.NewPathSet(canonical(testingHandle, filepath.Join(rootDirectory, "a.py")))
	trackedDirs := finder.NewPathSet(canonical(testingHandle, rootDirectory))

	foundFiles, findError := finder.Find(rootDirectory, trackedFiles, trackedDirs, false)
	if findError != nil {
		testingHandle.Fatalf("Find failed: %v", findError)
	}
	expectedFiles := []string{filepath.Join(rootDirectory, "a.py")}
	if !reflect.DeepEqual(foundFiles, expectedFiles) {
		testingHandle.Fatalf("unexpected result: got %v want %v", foundFiles, expectedFiles)
	}
}

// TestFindPrunesUntrackedDirectory verifies that a directory absent from the
// tracked-directory set is skipped wholesale, even when it contains tracked files.
func TestFindPrunesUntrackedDirectory(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	subDirectory := filepath.Join(rootDirectory, "sub")
	makeDirectory(testingHandle, subDirectory)
	writeTestFile(testingHandle, filepath.Join(subDirectory, "c.py"))

	trackedFiles := finder.NewPathSet(canonical(testingHandle, filepath.Join(subDirectory, "c.py")))
	trackedDirs := finder.NewPathSet(canonical(testingHandle, rootDirectory))

	foundFiles, findError := finder.Find(rootDirectory, trackedFiles, trackedDirs, false)
	if findError != nil {
		testingHandle.Fatalf("Find failed: %v", findError)
	}
	if len(foundFiles) != 0 {
		testingHandle.Fatalf("expected empty result, got %v", foundFiles)
	}
}

// TestFindNotebookExclusion verifies that notebook files are excluded unless
// force mode is active, regardless of tracking.
func TestFindNotebookExclusion(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	notebookPath := filepath.Join(rootDirectory, "notebook.ipynb")
	writeTestFile(testingHandle, notebookPath)

	trackedFiles := finder.NewPathSet(canonical(testingHandle, notebookPath))
	trackedDirs := finder.NewPathSet(canonical(testingHandle, rootDirectory))

	foundFiles, findError := finder.Find(rootDirectory, trackedFiles, trackedDirs, false)
	if findError != nil {
		testingHandle.Fatalf("Find failed: %v", findError)
	}
	if len(foundFiles) != 0 {
		testingHandle.Fatalf("expected tracked notebook to be excluded, got %v", foundFiles)
	}

	forcedFiles, forcedError := finder.Find(rootDirectory, finder.NewPathSet(), finder.NewPathSet(), true)
	if forcedError != nil {
		testingHandle.Fatalf("Find failed in force mode: %v", forcedError)
	}
	expectedFiles := []string{notebookPath}
	if !reflect.DeepEqual(forcedFiles, expectedFiles) {
		testingHandle.Fatalf("unexpected force-mode result: got %v want %v", forcedFiles, expectedFiles)
	}
}

// TestFindNotebookExclusionIsCaseInsensitive verifies the suffix check ignores case.
func TestFindNotebookExclusionIsCaseInsensitive(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	notebookPath := filepath.Join(rootDirectory, "Notebook.IPYNB")
	writeTestFile(testingHandle, notebookPath)

	trackedFiles := finder.NewPathSet(canonical(testingHandle, notebookPath))
	trackedDirs := finder.NewPathSet(canonical(testingHandle, rootDirectory))

	foundFiles, findError := finder.Find(rootDirectory, trackedFiles, trackedDirs, false)
	if findError != nil {
		testingHandle.Fatalf("Find failed: %v", findError)
	}
	if len(foundFiles) != 0 {
		testingHandle.Fatalf("expected notebook to be excluded regardless of case, got %v", foundFiles)
	}
}

// TestFindForceModeListsEverything verifies that force mode lists every file
// with empty tracked sets.
func TestFindForceModeListsEverything(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "a.py"))
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "b.py"))
	subDirectory := filepath.Join(rootDirectory, "sub")
	makeDirectory(testingHandle, subDirectory)
	writeTestFile(testingHandle, filepath.Join(subDirectory, "c.py"))

	foundFiles, findError := finder.Find(rootDirectory, finder.NewPathSet(), finder.NewPathSet(), true)
	if findError != nil {
		testingHandle.Fatalf("Find failed: %v", findError)
	}
	expectedFiles := []string{
		filepath.Join(rootDirectory, "a.py"),
		filepath.Join(rootDirectory, "b.py"),
		filepath.Join(subDirectory, "c.py"),
	}
	if !reflect.DeepEqual(sortedCopy(foundFiles), sortedCopy(expectedFiles)) {
		testingHandle.Fatalf("unexpected result: got %v want %v", foundFiles, expectedFiles)
	}
}

// TestFindOpaqueSymlinkedDirectory verifies that a tracked symlinked
// directory whose target stays inside the root is listed as a single entry
// and never traversed.
func TestFindOpaqueSymlinkedDirectory(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	targetDirectory := filepath.Join(rootDirectory, "sub", "dir")
	makeDirectory(testingHandle, targetDirectory)
	trackedFilePath := filepath.Join(targetDirectory, "f.py")
	writeTestFile(testingHandle, trackedFilePath)
	linkPath := filepath.Join(rootDirectory, "sym")
	makeSymlink(testingHandle, filepath.Join("sub", "dir"), linkPath)

	trackedFiles := finder.NewPathSet(
		canonical(testingHandle, trackedFilePath),
		canonical(testingHandle, linkPath),
	)
	trackedDirs := finder.NewPathSet(
		canonical(testingHandle, rootDirectory),
		canonical(testingHandle, filepath.Join(rootDirectory, "sub")),
		canonical(testingHandle, targetDirectory),
	)

	foundFiles, findError := finder.Find(rootDirectory, trackedFiles, trackedDirs, false)
	if findError != nil {
		testingHandle.Fatalf("Find failed: %v", findError)
	}
	expectedFiles := []string{trackedFilePath, linkPath}
	if !reflect.DeepEqual(foundFiles, expectedFiles) {
		testingHandle.Fatalf("unexpected result: got %v want %v", foundFiles, expectedFiles)
	}
}

// TestFindCycleTermination verifies that a symlink pointing back to an
// ancestor terminates the walk without duplicating entries.
func TestFindCycleTermination(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "a.py"))
	subDirectory := filepath.Join(rootDirectory, "sub")
	makeDirectory(testingHandle, subDirectory)
	loopLinkPath := filepath.Join(subDirectory, "loop")
	makeSymlink(testingHandle, "..", loopLinkPath)

	foundFiles, findError := finder.Find(rootDirectory, finder.NewPathSet(), finder.NewPathSet(), true)
	if findError != nil {
		testingHandle.Fatalf("Find failed: %v", findError)
	}
	expectedFiles := []string{
		filepath.Join(rootDirectory, "a.py"),
		loopLinkPath,
	}
	if !reflect.DeepEqual(sortedCopy(foundFiles), sortedCopy(expectedFiles)) {
		testingHandle.Fatalf("unexpected result: got %v want %v", foundFiles, expectedFiles)
	}

	seenEntries := make(map[string]struct{})
	for _, foundFile := range foundFiles {
		if _, duplicated := seenEntries[foundFile]; duplicated {
			testingHandle.Fatalf("duplicate entry %s in %v", foundFile, foundFiles)
		}
		seenEntries[foundFile] = struct{}{}
	}
}

// TestFindUntrackedSymlinkExcluded verifies that file and directory symlinks
// whose canonical targets are absent from the tracked sets are excluded.
func TestFindUntrackedSymlinkExcluded(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "real.py"))
	makeSymlink(testingHandle, "real.py", filepath.Join(rootDirectory, "link.py"))
	subDirectory := filepath.Join(rootDirectory, "d")
	makeDirectory(testingHandle, subDirectory)
	writeTestFile(testingHandle, filepath.Join(subDirectory, "inner.py"))
	makeSymlink(testingHandle, "d", filepath.Join(rootDirectory, "dlink"))

	trackedFiles := finder.NewPathSet()
	trackedDirs := finder.NewPathSet(canonical(testingHandle, rootDirectory))

	foundFiles, findError := finder.Find(rootDirectory, trackedFiles, trackedDirs, false)
	if findError != nil {
		testingHandle.Fatalf("Find failed: %v", findError)
	}
	if len(foundFiles) != 0 {
		testingHandle.Fatalf("expected untracked symlinks to be excluded, got %v", foundFiles)
	}
}

// TestFindDanglingSymlink verifies that a symlink to a missing target is
// silently excluded when filtering and listed only in force mode.
func TestFindDanglingSymlink(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	brokenLinkPath := filepath.Join(rootDirectory, "broken")
	makeSymlink(testingHandle, "missing-target", brokenLinkPath)

	trackedDirs := finder.NewPathSet(canonical(testingHandle, rootDirectory))

	foundFiles, findError := finder.Find(rootDirectory, finder.NewPathSet(), trackedDirs, false)
	if findError != nil {
		testingHandle.Fatalf("Find failed: %v", findError)
	}
	if len(foundFiles) != 0 {
		testingHandle.Fatalf("expected dangling symlink to be excluded, got %v", foundFiles)
	}

	forcedFiles, forcedError := finder.Find(rootDirectory, finder.NewPathSet(), finder.NewPathSet(), true)
	if forcedError != nil {
		testingHandle.Fatalf("Find failed in force mode: %v", forcedError)
	}
	expectedFiles := []string{brokenLinkPath}
	if !reflect.DeepEqual(forcedFiles, expectedFiles) {
		testingHandle.Fatalf("unexpected force-mode result: got %v want %v", forcedFiles, expectedFiles)
	}
}

// TestFindEmptyTrackedDirectory verifies that a tracked directory holding no
// tracked files is descended into and contributes nothing.
func TestFindEmptyTrackedDirectory(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	subDirectory := filepath.Join(rootDirectory, "sub")
	makeDirectory(testingHandle, subDirectory)
	writeTestFile(testingHandle, filepath.Join(subDirectory, "untracked.py"))

	trackedDirs := finder.NewPathSet(
		canonical(testingHandle, rootDirectory),
		canonical(testingHandle, subDirectory),
	)

	foundFiles, findError := finder.Find(rootDirectory, finder.NewPathSet(), trackedDirs, false)
	if findError != nil {
		testingHandle.Fatalf("Find failed: %v", findError)
	}
	if len(foundFiles) != 0 {
		testingHandle.Fatalf("expected empty result, got %v", foundFiles)
	}
}

// TestFindPreservesOriginalRootForm verifies that results are joined onto the
// caller's original root string rather than its canonical form.
func TestFindPreservesOriginalRootForm(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeTestFile(testingHandle, filepath.Join(rootDirectory, "a.py"))

	trackedFiles := finder.NewPathSet(canonical(testingHandle, filepath.Join(rootDirectory, "a.py")))
	trackedDirs := finder.NewPathSet(canonical(testingHandle, rootDirectory))

	testingHandle.Chdir(rootDirectory)
	foundFiles, findError := finder.Find(".", trackedFiles, trackedDirs, false)
	if findError != nil {
		testingHandle.Fatalf("Find failed: %v", findError)
	}
	expectedFiles := []string{"a.py"}
	if !reflect.DeepEqual(foundFiles, expectedFiles) {
		testingHandle.Fatalf("unexpected result: got %v want %v", foundFiles, expectedFiles)
	}
}

// TestFindEscapingSymlinkFallsThrough verifies that a symlinked directory
// escaping the root is walked like an ordinary directory, and that a second
// link to the same target stops at the loop guard without duplicating files.
func TestFindEscapingSymlinkFallsThrough(testingHandle *testing.T) {
	outsideDirectory := testingHandle.TempDir()
	outsideFilePath := filepath.Join(outsideDirectory, "f.py")
	writeTestFile(testingHandle, outsideFilePath)

	rootDirectory := testingHandle.TempDir()
	firstLinkPath := filepath.Join(rootDirectory, "link1")
	secondLinkPath := filepath.Join(rootDirectory, "link2")
	makeSymlink(testingHandle, outsideDirectory, firstLinkPath)
	makeSymlink(testingHandle, outsideDirectory, secondLinkPath)

	trackedFiles := finder.NewPathSet(
		canonical(testingHandle, firstLinkPath),
		canonical(testingHandle, outsideFilePath),
	)
	trackedDirs := finder.NewPathSet(
		canonical(testingHandle, rootDirectory),
		canonical(testingHandle, outsideDirectory),
	)

	foundFiles, findError := finder.Find(rootDirectory, trackedFiles, trackedDirs, false)
	if findError != nil {
		testingHandle.Fatalf("Find failed: %v", findError)
	}
	expectedFiles := []string{filepath.Join(firstLinkPath, "f.py")}
	if !reflect.DeepEqual(foundFiles, expectedFiles) {
		testingHandle.Fatalf("unexpected result: got %v want %v", foundFiles, expectedFiles)
	}
}

// TestFindRootReadFailurePropagates verifies that a directory-read failure
// reaches the caller unmodified.
func TestFindRootReadFailurePropagates(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	filePath := filepath.Join(rootDirectory, "plain.txt")
	writeTestFile(testingHandle, filePath)

	trackedDirs := finder.NewPathSet(canonical(testingHandle, filePath))

	_, findError := finder.Find(filePath, finder.NewPathSet(), trackedDirs, false)
	if findError == nil {
		testingHandle.Fatalf("expected an error walking a non-directory root")
	}
}
