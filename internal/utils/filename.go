package utils

import (
	"regexp"
	"strings"
	"time"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	// Runs of whitespace, collapsed to a single dash
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// backupTimeLayout sorts lexically in chronological order.
const backupTimeLayout = "20060102-150405"

// SanitizeFilename strips characters that are invalid in filenames and
// replaces whitespace with dashes.
func SanitizeFilename(filename string) string {
	filename = invalidFilenameChars.ReplaceAllString(filename, "")
	filename = strings.TrimSpace(filename)
	filename = whitespaceRuns.ReplaceAllString(filename, "-")

	if len(filename) > 200 {
		filename = strings.Trim(filename[:200], "-")
	}
	if filename == "" {
		filename = "books"
	}
	return filename
}

// BackupFilename builds a timestamped CSV filename such as
// "books-20240310-081500.csv".
func BackupFilename(prefix string, t time.Time) string {
	return SanitizeFilename(prefix) + "-" + t.Format(backupTimeLayout) + ".csv"
}
