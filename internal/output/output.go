// Package output renders command results in raw and JSON formats.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/scmls/scmls/internal/types"
)

const (
	indentPrefix = ""
	indentSpacer = "  "

	acceptableLabel = "acceptable"
	ignoredFormat   = "ignored (matched %s)"
)

// RenderListingRaw returns the listings as one path per line. Paths already
// carry the root prefix the caller supplied, so listings concatenate without
// separators.
func RenderListingRaw(listings []types.DirectoryListing) string {
	var buffer bytes.Buffer
	for _, listing := range listings {
		for _, filePath := range listing.Files {
			buffer.WriteString(filePath + "\n")
		}
	}
	return buffer.String()
}

// RenderListingJSON returns the listings as an indented JSON array.
func RenderListingJSON(listings []types.DirectoryListing) (string, error) {
	jsonData, marshalError := json.MarshalIndent(listings, indentPrefix, indentSpacer)
	if marshalError != nil {
		return "", fmt.Errorf("marshaling listings to JSON: %w", marshalError)
	}
	return string(jsonData), nil
}

// RenderCheckRaw returns one line per checked root stating its verdict.
func RenderCheckRaw(checks []types.RootCheck) string {
	var buffer bytes.Buffer
	for _, check := range checks {
		verdict := acceptableLabel
		if !check.Acceptable {
			verdict = fmt.Sprintf(ignoredFormat, check.MatchedEntry)
		}
		buffer.WriteString(check.Root + ": " + verdict + "\n")
	}
	return buffer.String()
}

// RenderCheckJSON returns the check results as an indented JSON array.
func RenderCheckJSON(checks []types.RootCheck) (string, error) {
	jsonData, marshalError := json.MarshalIndent(checks, indentPrefix, indentSpacer)
	if marshalError != nil {
		return "", fmt.Errorf("marshaling checks to JSON: %w", marshalError)
	}
	return string(jsonData), nil
}
