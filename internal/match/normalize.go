package match

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

var foldCaser = cases.Fold()

// Normalize prepares a name or address string for fuzzy comparison:
// trims whitespace, case-folds, and collapses runs of interior spaces.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = foldCaser.String(s)
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return s
}

// FullName joins first and last name into a single normalized string.
// Either part may be empty.
func FullName(first, last string) string {
	return Normalize(strings.TrimSpace(first + " " + last))
}
