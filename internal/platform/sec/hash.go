// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher turns plaintext passwords into one-way hashes and checks them.
type Hasher interface {
	Hash(plainTextPassword string) (string, error)
	Verify(plainTextPassword, existingHash string) bool
}

// BcryptHasher implements [Hasher] with bcrypt over a SHA-256 digest of the
// password, so passphrases longer than bcrypt's 72-byte input limit keep all
// of their entropy and never fail to hash.
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher returns a hasher with the given cost, clamped to bcrypt's bounds.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

// Hash hashes a plain-text password using the bcrypt algorithm.
func (hasher *BcryptHasher) Hash(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword(prehash(plainTextPassword), hasher.Cost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// Verify compares a plain-text password with its hashed version.
// Unusable hashes never verify.
func (hasher *BcryptHasher) Verify(plainTextPassword, existingHash string) bool {
	if !IsUsable(existingHash) {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), prehash(plainTextPassword))
	return err == nil
}

// prehash returns the base64 SHA-256 digest of the password (44 bytes).
func prehash(plainTextPassword string) []byte {
	digest := sha256.Sum256([]byte(plainTextPassword))
	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(digest)))
	base64.StdEncoding.Encode(encoded, digest[:])
	return encoded
}

// # Unusable Passwords

// UnusablePrefix marks a stored hash that no password can match.
const UnusablePrefix = "!"

// UnusableHash returns a non-empty marker for accounts created without a password.
func UnusableHash() string {
	return UnusablePrefix + rand.Text()
}

// IsUsable reports whether hash can ever verify a password.
func IsUsable(hash string) bool {
	return hash != "" && hash[:1] != UnusablePrefix
}
