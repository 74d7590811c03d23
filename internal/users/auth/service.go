// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth issues and revokes the JSON Web Tokens used by the API.

Logins are resolved by the account directory; this package only turns a
verified account into an access/refresh pair and manages the lifecycle of
those tokens.

Architecture:

  - Service: CreateTokens, Refresh, Verify and Logout.
  - Denylist: Revoked refresh token ids, kept in Redis or in process.
  - Handler: The /jwt/* and /logout endpoints.
*/
package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/realestate/internal/platform/apperr"
	"github.com/taibuivan/realestate/internal/platform/sec"
	"github.com/taibuivan/realestate/internal/users/account"
)

const (
	msgTokenInvalid = "Token is invalid or expired"
	msgTokenRevoked = "Token is blacklisted"
)

// # Contracts & Types

// Credentials resolves logins and re-checks accounts on refresh.
// It is satisfied by [*account.Directory].
type Credentials interface {
	VerifyCredentials(ctx context.Context, email, password string) (*account.Account, error)
	CheckActive(ctx context.Context, userID string) (sec.UserRole, error)
}

// Service implements the token use cases.
type Service struct {
	credentials Credentials
	tokens      *sec.TokenService
	denylist    Denylist
	logger      *slog.Logger
}

// NewService constructs a new [Service]. A nil logger falls back to [slog.Default].
func NewService(credentials Credentials, tokens *sec.TokenService, denylist Denylist, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		credentials: credentials,
		tokens:      tokens,
		denylist:    denylist,
		logger:      logger,
	}
}

// # Token Lifecycle

/*
CreateTokens authenticates by email and password and issues a token pair.

Parameters:
  - context: context.Context
  - email: string
  - password: string

Returns:
  - *sec.TokenPair: Access and refresh tokens
  - error: The directory's generic credential error, or signing failures
*/
func (service *Service) CreateTokens(context context.Context, email, password string) (*sec.TokenPair, error) {
	verified, err := service.credentials.VerifyCredentials(context, email, password)
	if err != nil {
		return nil, err
	}

	pair, err := service.tokens.IssuePair(sec.Subject{
		UserID: verified.PublicID,
		Email:  verified.Email,
		Role:   verified.Role(),
	})
	if err != nil {
		return nil, fmt.Errorf("auth_issue_pair_failed: %w", err)
	}

	service.logger.InfoContext(context, "auth_tokens_issued",
		slog.String("user_id", verified.PublicID),
		slog.String("refresh_id", pair.RefreshID),
	)

	return pair, nil
}

/*
Refresh exchanges a refresh token for a new access token.

Description: The refresh token must be valid, not revoked, and belong to an
account that is still active. The new access token carries the account's
current role rather than the one captured at login.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - string: A signed access token
  - error: Unauthorized, or denylist and signing failures
*/
func (service *Service) Refresh(context context.Context, refreshToken string) (string, error) {
	claims, err := service.usableRefresh(context, refreshToken)
	if err != nil {
		return "", err
	}

	role, err := service.credentials.CheckActive(context, claims.UserID)
	if err != nil {
		return "", apperr.Unauthorized(msgTokenInvalid).WithCause(err)
	}

	access, err := service.tokens.GenerateAccessToken(sec.Subject{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   role,
	})
	if err != nil {
		return "", fmt.Errorf("auth_refresh_sign_failed: %w", err)
	}

	return access, nil
}

/*
Verify checks a token of either type.

Description: Revoked refresh tokens fail verification like expired ones.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - error: Unauthorized when the token is unusable
*/
func (service *Service) Verify(context context.Context, token string) error {
	claims, err := service.tokens.VerifyToken(token)
	if err != nil {
		return apperr.Unauthorized(msgTokenInvalid).WithCause(err)
	}

	if claims.TokenType == sec.TokenTypeRefresh {
		return service.checkRevoked(context, claims.ID)
	}

	return nil
}

/*
Logout revokes a refresh token until it would have expired anyway.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - error: Unauthorized for invalid tokens, or denylist failures
*/
func (service *Service) Logout(context context.Context, refreshToken string) error {
	claims, err := service.usableRefresh(context, refreshToken)
	if err != nil {
		return err
	}

	if err := service.denylist.Revoke(context, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("auth_logout_revoke_failed: %w", err)
	}

	service.logger.InfoContext(context, "auth_refresh_revoked",
		slog.String("user_id", claims.UserID),
		slog.String("refresh_id", claims.ID),
	)

	return nil
}

// # Helpers

func (service *Service) usableRefresh(context context.Context, refreshToken string) (*sec.AuthClaims, error) {
	claims, err := service.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, apperr.Unauthorized(msgTokenInvalid).WithCause(err)
	}

	if err := service.checkRevoked(context, claims.ID); err != nil {
		return nil, err
	}

	return claims, nil
}

func (service *Service) checkRevoked(context context.Context, tokenID string) error {
	revoked, err := service.denylist.IsRevoked(context, tokenID)
	if err != nil {
		return fmt.Errorf("auth_denylist_lookup_failed: %w", err)
	}
	if revoked {
		return apperr.Unauthorized(msgTokenRevoked)
	}
	return nil
}
