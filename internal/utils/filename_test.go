package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "removes invalid characters",
			input:    `file<>:"/\|?*name`,
			expected: "filename",
		},
		{
			name:     "replaces whitespace with dashes",
			input:    "reading\tqueue  backup\n",
			expected: "reading-queue-backup",
		},
		{
			name:     "empty falls back to default",
			input:    "  ?? ",
			expected: "books",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestSanitizeFilename_TruncatesLongNames(t *testing.T) {
	got := SanitizeFilename(strings.Repeat("a", 300))
	assert.Len(t, got, 200)
}

func TestBackupFilename(t *testing.T) {
	ts := time.Date(2024, 3, 10, 8, 15, 0, 0, time.UTC)
	assert.Equal(t, "books-20240310-081500.csv", BackupFilename("books", ts))
	assert.Equal(t, "my-library-20240310-081500.csv", BackupFilename("my library", ts))
}
