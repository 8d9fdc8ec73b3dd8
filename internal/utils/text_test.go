package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTitleCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"science fiction", "Science Fiction"},
		{"HISTORY", "History"},
		{"sELF hElP", "Self Help"},
		{"double  space", "Double  Space"},
		{"émile zola", "Émile Zola"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, TitleCase(tt.input))
		})
	}
}

func TestDaysBetween(t *testing.T) {
	loc := time.UTC
	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		expected int
	}{
		{
			name:     "same day",
			start:    time.Date(2024, 3, 10, 8, 0, 0, 0, loc),
			end:      time.Date(2024, 3, 10, 23, 0, 0, 0, loc),
			expected: 0,
		},
		{
			name:     "late evening to early morning counts one day",
			start:    time.Date(2024, 3, 10, 23, 59, 0, 0, loc),
			end:      time.Date(2024, 3, 11, 0, 1, 0, 0, loc),
			expected: 1,
		},
		{
			name:     "across leap day",
			start:    time.Date(2024, 2, 28, 12, 0, 0, 0, loc),
			end:      time.Date(2024, 3, 1, 12, 0, 0, 0, loc),
			expected: 2,
		},
		{
			name:     "end before start clamps to zero",
			start:    time.Date(2024, 3, 10, 0, 0, 0, 0, loc),
			end:      time.Date(2024, 3, 1, 0, 0, 0, 0, loc),
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DaysBetween(tt.start, tt.end))
		})
	}
}

func TestStartOfYear(t *testing.T) {
	got := StartOfYear(time.Date(2025, 7, 14, 15, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestDaysInYear(t *testing.T) {
	assert.Equal(t, 366, DaysInYear(2024))
	assert.Equal(t, 365, DaysInYear(2025))
	assert.Equal(t, 365, DaysInYear(1900))
	assert.Equal(t, 366, DaysInYear(2000))
}
