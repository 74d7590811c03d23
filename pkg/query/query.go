// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package query parses free-text URL query parameters.
package query

import (
	"strings"
	"unicode"
)

// SearchTerms splits a search box value into terms.
//
// Terms are separated by whitespace; a double-quoted phrase stays one term
// without its quotes. Empty terms are dropped, so "" and "  " yield nil.
//
// Example:
//
//	SearchTerms(`jane "le van" agency`) // ["jane", "le van", "agency"]
func SearchTerms(raw string) []string {
	var (
		terms   []string
		current strings.Builder
		quoted  bool
	)

	flush := func() {
		if term := strings.TrimSpace(current.String()); term != "" {
			terms = append(terms, term)
		}
		current.Reset()
	}

	for _, r := range raw {
		switch {
		case r == '"':
			flush()
			quoted = !quoted
		case unicode.IsSpace(r) && !quoted:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return terms
}
