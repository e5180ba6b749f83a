package sanitizer

import (
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

func trimCollapse(s string) string {
	return TrimAndNormalize(s)
}

func trimAndLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' {
			return -1
		}
		return r
	}, s)
}

// SanitizeResourceName normalizes a resource's display name.
func SanitizeResourceName(input string) string {
	p := Pipeline{
		stripControl,
		trimCollapse,
	}
	return p.Apply(input)
}

// SanitizeNotes normalizes free-text booking notes, preserving newlines.
func SanitizeNotes(input string) string {
	p := Pipeline{
		stripControl,
		func(s string) string { return strings.TrimSpace(s) },
	}
	return p.Apply(input)
}

// SanitizeUserID normalizes a user identifier for consistent lookups.
func SanitizeUserID(input string) string {
	p := Pipeline{
		stripControl,
		trimAndLower,
	}
	return p.Apply(input)
}
