// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/realestate/pkg/query"
	"github.com/taibuivan/realestate/pkg/slice"
)

// # Memory Store

// MemoryStore is a process-local [Store].
//
// A single mutex guards every index, so Insert checks and writes both unique
// keys atomically. Returned accounts are copies.
type MemoryStore struct {
	mu         sync.Mutex
	nextID     int64
	byID       map[string]*Account
	byEmail    map[string]string
	byUsername map[string]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[string]*Account),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
	}
}

// Insert implements [Store].
func (store *MemoryStore) Insert(_ context.Context, account *Account) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, taken := store.byUsername[account.Username]; taken {
		return &DuplicateError{Field: FieldUsername}
	}
	if _, taken := store.byEmail[account.Email]; taken {
		return &DuplicateError{Field: FieldEmail}
	}

	store.nextID++
	account.InternalID = store.nextID

	stored := *account
	store.byID[stored.PublicID] = &stored
	store.byEmail[stored.Email] = stored.PublicID
	store.byUsername[stored.Username] = stored.PublicID
	return nil
}

// FindByPublicID implements [Store].
func (store *MemoryStore) FindByPublicID(_ context.Context, id string) (*Account, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.load(id)
}

// FindByEmail implements [Store].
func (store *MemoryStore) FindByEmail(_ context.Context, email string) (*Account, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.load(store.byEmail[email])
}

// FindByUsername implements [Store].
func (store *MemoryStore) FindByUsername(_ context.Context, username string) (*Account, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.load(store.byUsername[username])
}

// List implements [Store].
func (store *MemoryStore) List(_ context.Context, filter Filter) ([]*Account, int, error) {
	store.mu.Lock()
	all := make([]*Account, 0, len(store.byID))
	for _, account := range store.byID {
		copied := *account
		all = append(all, &copied)
	}
	store.mu.Unlock()

	matched := slice.Filter(all, filter.Matches)
	slices.SortFunc(matched, func(a, b *Account) int {
		return strings.Compare(a.Email, b.Email)
	})

	return slice.Page(matched, filter.Offset, filter.Limit), len(matched), nil
}

// UpdateProfile implements [Store].
func (store *MemoryStore) UpdateProfile(_ context.Context, account *Account) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	current, ok := store.byID[account.PublicID]
	if !ok {
		return ErrNotFound
	}

	if account.Username != current.Username {
		if _, taken := store.byUsername[account.Username]; taken {
			return &DuplicateError{Field: FieldUsername}
		}
		delete(store.byUsername, current.Username)
		store.byUsername[account.Username] = current.PublicID
	}

	current.Username = account.Username
	current.FirstName = account.FirstName
	current.LastName = account.LastName
	return nil
}

// UpdatePermissions implements [Store].
func (store *MemoryStore) UpdatePermissions(_ context.Context, id string, apply func(*Account) error) (*Account, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	current, ok := store.byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	updated := *current
	if err := apply(&updated); err != nil {
		return nil, err
	}
	if updated.IsSuperuser && !(updated.IsStaff && updated.IsActive) {
		return nil, ErrPermissionInvariant
	}

	current.IsStaff = updated.IsStaff
	current.IsSuperuser = updated.IsSuperuser
	current.IsActive = updated.IsActive

	written := *current
	return &written, nil
}

// UpdatePassword implements [Store].
func (store *MemoryStore) UpdatePassword(_ context.Context, id string, passwordHash string) error {
	return store.mutate(id, func(account *Account) {
		account.PasswordHash = passwordHash
	})
}

// SetActive implements [Store].
func (store *MemoryStore) SetActive(_ context.Context, id string, active bool) error {
	return store.mutate(id, func(account *Account) {
		account.IsActive = active
	})
}

// TouchLastLogin implements [Store].
func (store *MemoryStore) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	return store.mutate(id, func(account *Account) {
		account.LastLoginAt = &at
	})
}

// Len returns the number of stored accounts.
func (store *MemoryStore) Len() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return len(store.byID)
}

// load must be called with mu held.
func (store *MemoryStore) load(id string) (*Account, error) {
	account, ok := store.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *account
	return &copied, nil
}

func (store *MemoryStore) mutate(id string, apply func(*Account)) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	account, ok := store.byID[id]
	if !ok {
		return ErrNotFound
	}
	apply(account)
	return nil
}

// Matches reports whether account passes every set criterion of the filter.
func (filter Filter) Matches(account *Account) bool {
	switch {
	case filter.Email != "" && !strings.EqualFold(account.Email, filter.Email):
		return false
	case filter.Username != "" && account.Username != filter.Username:
		return false
	case filter.FirstName != "" && account.FirstName != filter.FirstName:
		return false
	case filter.LastName != "" && account.LastName != filter.LastName:
		return false
	case filter.IsStaff != nil && account.IsStaff != *filter.IsStaff:
		return false
	case filter.IsActive != nil && account.IsActive != *filter.IsActive:
		return false
	}

	fields := []string{account.Email, account.Username, account.FirstName, account.LastName}
	for _, term := range query.SearchTerms(filter.Search) {
		term = strings.ToLower(term)
		if !slices.ContainsFunc(fields, func(value string) bool {
			return strings.Contains(strings.ToLower(value), term)
		}) {
			return false
		}
	}
	return true
}
