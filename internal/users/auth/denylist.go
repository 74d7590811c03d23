// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"sync"
	"time"
)

// # Revocation Store

// Denylist records refresh token ids (jti) that may no longer be used.
type Denylist interface {

	/*
		Revoke marks a token id as unusable until expiresAt.

		Parameters:
		  - context: context.Context
		  - tokenID: string
		  - expiresAt: time.Time

		Returns:
		  - error: Storage failures
	*/
	Revoke(context context.Context, tokenID string, expiresAt time.Time) error

	/*
		IsRevoked reports whether a token id has been revoked.

		Parameters:
		  - context: context.Context
		  - tokenID: string

		Returns:
		  - bool: True while the revocation is in force
		  - error: Storage failures
	*/
	IsRevoked(context context.Context, tokenID string) (bool, error)
}

// MemoryDenylist is a process-local [Denylist] used when Redis is not configured.
// Revocations are lost on restart.
type MemoryDenylist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryDenylist constructs an empty [MemoryDenylist].
func NewMemoryDenylist() *MemoryDenylist {
	return &MemoryDenylist{entries: make(map[string]time.Time), now: time.Now}
}

// WithClock replaces the time source. Intended for tests.
func (store *MemoryDenylist) WithClock(now func() time.Time) *MemoryDenylist {
	store.now = now
	return store
}

// Revoke implements [Denylist]. Expired entries are pruned on every call.
func (store *MemoryDenylist) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	now := store.now()
	for id, until := range store.entries {
		if !until.After(now) {
			delete(store.entries, id)
		}
	}

	if expiresAt.After(now) {
		store.entries[tokenID] = expiresAt
	}
	return nil
}

// IsRevoked implements [Denylist].
func (store *MemoryDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	until, ok := store.entries[tokenID]
	return ok && until.After(store.now()), nil
}
