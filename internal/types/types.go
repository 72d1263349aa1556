// Package types defines every cross-package data structure used by the scmls CLI.
package types

const (
	CommandList  = "list"
	CommandCheck = "check"

	FormatRaw  = "raw"
	FormatJSON = "json"
)

// ValidatedPath is an input path that already passed existence checks.
// OriginalPath preserves the caller's chosen textual form; emitted file
// paths are re-joined onto it.
type ValidatedPath struct {
	OriginalPath string
	AbsolutePath string
	IsDir        bool
}

// DirectoryListing holds the files selected for packaging under one root.
type DirectoryListing struct {
	Root  string   `json:"root"`
	Files []string `json:"files"`
}

// RootCheck reports whether one VCS root is acceptable given the configured deny-list.
type RootCheck struct {
	Root         string `json:"root"`
	Acceptable   bool   `json:"acceptable"`
	MatchedEntry string `json:"matchedEntry,omitempty"`
}
