package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TitleCase upper-cases the first letter of every space separated word and
// lower-cases the rest. Runs of spaces are preserved.
func TitleCase(text string) string {
	if text == "" {
		return text
	}
	words := strings.Split(text, " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		first, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(first)) + strings.ToLower(word[size:])
	}
	return strings.Join(words, " ")
}
