// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package convert provides fault-tolerant conversions for query parameters.

Malformed input falls back to a default (or nil) instead of an error, which is
what list endpoints want for optional filters.
*/
package convert

import (
	"strconv"
	"strings"
)

// ToIntD converts a string to an int, returning the provided default if parsing fails or string is empty.
func ToIntD(str string, def int) int {
	if str == "" {
		return def
	}

	if v, err := strconv.Atoi(strings.TrimSpace(str)); err == nil {
		return v
	}

	return def
}

// ToBoolPtr parses a tri-state boolean filter.
//
// It returns nil when the string is empty or not a boolean ("true", "1",
// "false", "0", ...), so callers can tell "not filtered" from "false".
func ToBoolPtr(s string) *bool {
	if s == "" {
		return nil
	}

	v, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &v
}
