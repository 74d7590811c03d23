// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"errors"

	"github.com/taibuivan/realestate/internal/platform/apperr"
)

// # Error Taxonomy
//
// Every error leaving the directory is an [*apperr.AppError] whose Cause is
// one of these sentinels, so callers branch with errors.Is and the HTTP layer
// renders the AppError unchanged.

var (
	// ErrValidation marks a missing or malformed input field.
	ErrValidation = errors.New("account: validation failed")
	// ErrUniqueness marks a username or email collision.
	ErrUniqueness = errors.New("account: username or email already taken")
	// ErrPermissionInvariant marks a flag combination a superuser may not have.
	ErrPermissionInvariant = errors.New("account: permission invariant violated")
	// ErrAuth marks failed credential verification.
	ErrAuth = errors.New("account: invalid credentials")
	// ErrNotFound is returned by stores for unknown accounts.
	ErrNotFound = errors.New("account: not found")
)

// Messages shared by the directory, stores and handlers.
const (
	msgUsernameRequired  = "User must submit a username"
	msgFirstNameRequired = "User must submit a first name"
	msgLastNameRequired  = "User must submit a last name"
	msgEmailRequired     = "An email address is required"
	msgEmailInvalid      = "You must provide a valid email address"
	msgPasswordRequired  = "Superusers must have a password"
	msgStaffRequired     = "Superusers must have is_staff=True"
	msgSuperuserRequired = "Superusers must have is_superuser=True"
	msgActiveRequired    = "Superusers must have is_active=True"
	msgSuperuserFlags    = "Superusers must be staff and active"
	msgInvalidLogin      = "No active account found with the given credentials"
	msgUsernameTaken     = "A user with that username already exists."
	msgEmailTaken        = "User with this email already exists."
)

// DuplicateError is returned by a [Store] when a unique field already
// belongs to another account.
type DuplicateError struct {
	// Field is "username" or "email".
	Field string
	Cause error
}

func (e *DuplicateError) Error() string { return "account: duplicate " + e.Field }

func (e *DuplicateError) Unwrap() error { return e.Cause }

// validationError attaches [ErrValidation] to a validator result.
func validationError(err error) error {
	if appErr := apperr.As(err); appErr != nil {
		return appErr.WithCause(ErrValidation)
	}
	return apperr.ValidationError(err.Error()).WithCause(ErrValidation)
}

// uniquenessError reports a collision on field.
func uniquenessError(field string) error {
	message := msgEmailTaken
	if field == FieldUsername {
		message = msgUsernameTaken
	}
	conflict := apperr.Conflict(message).WithCause(ErrUniqueness)
	conflict.Details = []apperr.FieldError{{Field: field, Message: message}}
	return conflict
}

func permissionError(message string) error {
	return apperr.PermissionInvariant(message).WithCause(ErrPermissionInvariant)
}

// authError is returned for every failed login, whatever the cause.
func authError() error {
	return apperr.Unauthorized(msgInvalidLogin).WithCause(ErrAuth)
}

func notFoundError() error {
	return apperr.NotFound("User").WithCause(ErrNotFound)
}
