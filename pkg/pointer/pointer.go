// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package pointer helps with the optional fields of request payloads.

Partial updates and account flags use *T to tell "not sent" from the zero
value; these helpers build and read such fields.

  - To: Address of a value literal.
  - Fallback: Dereference, nil gives the supplied default.
*/
package pointer

// To returns a pointer to v, e.g. pointer.To(true) for an explicit flag.
func To[T any](v T) *T {
	return &v
}

// Fallback safely dereferences a pointer.
// If the pointer is nil, it returns the provided fallback value instead.
func Fallback[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
