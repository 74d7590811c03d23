// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account is the account directory: it owns user identity records and
enforces the rules every record must satisfy before it is persisted.

# Architecture

  - Entities: Account, NewAccount, ExtraFields, Filter.
  - Domain: [Directory] validates input and delegates storage to a [Store]
    and password hashing to a [sec.Hasher].
  - Storage: [MemoryStore] for tests and local runs, [PostgresStore] for
    production. Both enforce unique usernames and emails themselves.
  - Delivery: [Handler] (registration and self-service) and [AdminHandler]
    (staff-only directory management).
*/
package account

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/taibuivan/realestate/internal/platform/sec"
)

// # Field Limits

const (
	MaxUsernameLength = 255
	MaxNameLength     = 50
	MaxEmailLength    = 254
)

// # Field Names

// JSON field names, shared by validation details and handlers.
const (
	FieldUsername    = "username"
	FieldFirstName   = "first_name"
	FieldLastName    = "last_name"
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldIsStaff     = "is_staff"
	FieldIsSuperuser = "is_superuser"
	FieldIsActive    = "is_active"
)

// # Domain Entities

// Account is one registrable identity.
//
// InternalID is the storage surrogate key and is only shown to staff.
// PublicID is the identifier used in URLs and tokens.
type Account struct {
	InternalID   int64      `json:"pkid"`
	PublicID     string     `json:"id"`
	Username     string     `json:"username"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	IsStaff      bool       `json:"is_staff"`
	IsSuperuser  bool       `json:"is_superuser"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"date_joined"`
	LastLoginAt  *time.Time `json:"last_login"`
}

// # Capabilities

// Authenticatable is implemented by identities that can sign in.
type Authenticatable interface {
	GetEmail() string
	IsAuthenticatable() bool
	CheckPassword(hasher sec.Hasher, plainTextPassword string) bool
}

// PermissionHolder is implemented by identities that carry access flags.
type PermissionHolder interface {
	// HasAdminAccess reports whether the identity may use the admin surface.
	HasAdminAccess() bool
	// HasPermissionBypass reports whether every permission check passes.
	HasPermissionBypass() bool
}

var (
	_ Authenticatable  = (*Account)(nil)
	_ PermissionHolder = (*Account)(nil)
)

// GetEmail returns the login identifier.
func (a *Account) GetEmail() string { return a.Email }

// IsAuthenticatable reports whether the account is active and has a usable password.
func (a *Account) IsAuthenticatable() bool {
	return a.IsActive && sec.IsUsable(a.PasswordHash)
}

// CheckPassword compares a plaintext password with the stored hash.
func (a *Account) CheckPassword(hasher sec.Hasher, plainTextPassword string) bool {
	if plainTextPassword == "" || !sec.IsUsable(a.PasswordHash) {
		return false
	}
	return hasher.Verify(plainTextPassword, a.PasswordHash)
}

func (a *Account) HasAdminAccess() bool { return a.IsActive && a.IsStaff }

func (a *Account) HasPermissionBypass() bool { return a.IsActive && a.IsSuperuser }

// Role maps the permission flags onto the token role hierarchy.
func (a *Account) Role() sec.UserRole {
	return sec.RoleFor(a.IsStaff, a.IsSuperuser)
}

// # Display

var titleCaser = cases.Title(language.Und)

// FullName returns "First Last" with each name title-cased.
func (a *Account) FullName() string {
	return titleCaser.String(a.FirstName) + " " + titleCaser.String(a.LastName)
}

// ShortName returns the username.
func (a *Account) ShortName() string { return a.Username }

// String returns the username.
func (a *Account) String() string { return a.Username }

// # Inputs

// ExtraFields overrides the permission defaults at creation time.
// A nil field means "not supplied".
type ExtraFields struct {
	IsStaff     *bool `json:"is_staff,omitempty"`
	IsSuperuser *bool `json:"is_superuser,omitempty"`
	IsActive    *bool `json:"is_active,omitempty"`
}

// IsEmpty reports whether no override was supplied.
func (e ExtraFields) IsEmpty() bool {
	return e.IsStaff == nil && e.IsSuperuser == nil && e.IsActive == nil
}

// NewAccount carries everything needed to create an [Account].
type NewAccount struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password  string
	Extra     ExtraFields
}

// ProfileUpdate is a partial change to the personal fields.
type ProfileUpdate struct {
	Username  *string
	FirstName *string
	LastName  *string
}

// Filter selects accounts for the admin list.
//
// Exact-match fields mirror the admin list filters. Search is split into
// terms (see query.SearchTerms); every term must appear, case-insensitively,
// in the email, username or one of the names.
type Filter struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	IsStaff   *bool
	IsActive  *bool
	Search    string
	Limit     int
	Offset    int
}

// # Normalization

// NormalizeEmail trims the address and lower-cases the domain part.
// The local part is case-sensitive and kept as given.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// NormalizeUsername applies NFKC so visually identical usernames collide.
func NormalizeUsername(username string) string {
	return norm.NFKC.String(strings.TrimSpace(username))
}
