// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package slice complements the standard [slices] package with generic Map and
Filter helpers, used to project accounts into response views and to apply
list filters in memory.
*/
package slice

// Map applies transform to every element. A nil input yields nil.
func Map[T any, U any](input []T, transform func(T) U) []U {
	if input == nil {
		return nil
	}

	result := make([]U, len(input))
	for i, v := range input {
		result[i] = transform(v)
	}
	return result
}

// Filter keeps the elements for which predicate returns true.
func Filter[T any](input []T, predicate func(T) bool) []T {
	var result []T
	for _, v := range input {
		if predicate(v) {
			result = append(result, v)
		}
	}
	return result
}

// Page returns input[offset:offset+limit], clamped to the slice bounds.
// A limit <= 0 means no limit.
func Page[T any](input []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(input) {
		return []T{}
	}
	end := len(input)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return input[offset:end]
}
