package ingest

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// foldKey canonicalizes a name or header for comparison: NFKC (full-width
// forms become ASCII), case folding, and removal of all whitespace.
// A Caser is stateful, so each call builds its own.
func foldKey(s string) string {
	s = cases.Fold().String(norm.NFKC.String(s))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// trimSpace trims cell text and applies NFC so identical names stored from
// different input methods compare equal.
func trimSpace(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
