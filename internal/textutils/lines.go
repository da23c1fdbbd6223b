// Package textutils holds the text handling shared by the statement
// grammars, the classifier and merchant search.
package textutils

import (
	"regexp"
	"strings"
)

var wordPattern = regexp.MustCompile(`[a-z0-9][a-z0-9'&\-]*`)

// NonEmptyLines splits text on newlines and form feeds, trimming each line
// and dropping blank ones.
func NonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\f", "\n"), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

// Tokens lower-cases s and returns its words of at least minLen characters,
// in order.
func Tokens(s string, minLen int) []string {
	var out []string
	for _, w := range wordPattern.FindAllString(strings.ToLower(s), -1) {
		w = strings.Trim(w, "-'&")
		if len(w) >= minLen {
			out = append(out, w)
		}
	}
	return out
}

// NGrams returns the space-joined runs of up to n consecutive tokens,
// longest first at each position, left to right.
func NGrams(tokens []string, n int) []string {
	var out []string
	for i := range tokens {
		for size := n; size >= 1; size-- {
			if i+size > len(tokens) {
				continue
			}
			out = append(out, strings.Join(tokens[i:i+size], " "))
		}
	}
	return out
}
