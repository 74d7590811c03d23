// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"time"
)

// # Repository Contracts

// Permissions is the set of access flags bound by the superuser rule.
type Permissions struct {
	IsStaff     bool
	IsSuperuser bool
	IsActive    bool
}

// Store persists accounts.
//
// Implementations own the uniqueness of usernames and emails: [Store.Insert]
// must be an atomic insert-if-absent and report collisions as
// [*DuplicateError]. Unknown accounts are reported as [ErrNotFound].
type Store interface {
	/*
		Insert persists a new account.

		Description: Assigns InternalID (monotonically increasing). Nothing is
		written when the username or email is already taken.

		Parameters:
		  - context: context.Context
		  - account: *Account (PublicID and CreatedAt already set)

		Returns:
		  - error: *DuplicateError on collision, storage failures otherwise
	*/
	Insert(context context.Context, account *Account) error

	// FindByPublicID loads an account by its UUID.
	FindByPublicID(context context.Context, id string) (*Account, error)

	// FindByEmail loads an account by its normalized email.
	FindByEmail(context context.Context, email string) (*Account, error)

	// FindByUsername loads an account by its normalized username.
	FindByUsername(context context.Context, username string) (*Account, error)

	/*
		List returns one page of accounts ordered by email.

		Parameters:
		  - context: context.Context
		  - filter: Filter (Limit <= 0 means no limit)

		Returns:
		  - []*Account: The page
		  - int: Total matches before paging
		  - error: Storage failures
	*/
	List(context context.Context, filter Filter) ([]*Account, int, error)

	// UpdateProfile writes Username, FirstName and LastName of account.
	UpdateProfile(context context.Context, account *Account) error

	/*
		UpdatePermissions changes the access flags of an account atomically.

		Description: The current row is loaded and held until the write, so
		apply always edits the latest flags. Only IsStaff, IsSuperuser and
		IsActive are persisted. An error from apply aborts without writing.

		Parameters:
		  - context: context.Context
		  - id: string
		  - apply: func(*Account) error

		Returns:
		  - *Account: The account as written
		  - error: apply's error, ErrNotFound, ErrPermissionInvariant or storage failures
	*/
	UpdatePermissions(context context.Context, id string, apply func(*Account) error) (*Account, error)

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(context context.Context, id string, passwordHash string) error

	// SetActive toggles IsActive.
	SetActive(context context.Context, id string, active bool) error

	// TouchLastLogin records a successful sign-in.
	TouchLastLogin(context context.Context, id string, at time.Time) error
}
