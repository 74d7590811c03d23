// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid generates and checks the identifiers used across the platform.

  - New: random (version 4) values for public account ids.
  - NewTimeOrdered: version 7 values for request ids, sortable by time.
*/
package uuid

import "github.com/google/uuid"

// # Generators

// New generates a random UUIDv4 string.
func New() string {
	return uuid.NewString()
}

// NewTimeOrdered generates a UUIDv7 string.
func NewTimeOrdered() string {
	id, err := uuid.NewV7()

	// entropy failure is an unrecoverable system-level error
	if err != nil {
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}
	return id.String()
}

// # Validation

// IsValid reports whether s is a UUID in canonical 8-4-4-4-12 form.
func IsValid(s string) bool {
	return len(s) == 36 && uuid.Validate(s) == nil
}
