// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/realestate/internal/platform/constants"
)

// RedisDenylist implements [Denylist] with one expiring key per revoked token.
type RedisDenylist struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewRedisDenylist creates a Redis-backed [Denylist].
func NewRedisDenylist(client redis.Cmdable) *RedisDenylist {
	return &RedisDenylist{client: client, now: time.Now}
}

func revokedKey(tokenID string) string {
	return constants.RedisPrefixRevokedRefresh + tokenID
}

/*
Revoke stores the token id with a TTL ending at expiresAt.

Description: Tokens that have already expired are not stored.

Parameters:
  - context: context.Context
  - tokenID: string
  - expiresAt: time.Time

Returns:
  - error: Execution errors
*/
func (repository *RedisDenylist) Revoke(context context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(repository.now())
	if ttl <= 0 {
		return nil
	}

	if err := repository.client.Set(context, revokedKey(tokenID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis_revoked_refresh_set_failed: %w", err)
	}

	return nil
}

/*
IsRevoked checks for the token id's key.

Parameters:
  - context: context.Context
  - tokenID: string

Returns:
  - bool: True when the key exists
  - error: Execution errors
*/
func (repository *RedisDenylist) IsRevoked(context context.Context, tokenID string) (bool, error) {
	count, err := repository.client.Exists(context, revokedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis_revoked_refresh_exists_failed: %w", err)
	}

	return count > 0, nil
}
