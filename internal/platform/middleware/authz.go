// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"net/http"

	"github.com/taibuivan/realestate/internal/platform/apperr"
	"github.com/taibuivan/realestate/internal/platform/constants"
	"github.com/taibuivan/realestate/internal/platform/ctxutil"
	"github.com/taibuivan/realestate/internal/platform/respond"
	"github.com/taibuivan/realestate/internal/platform/sec"
)

// TokenVerifier verifies access tokens for [Authenticate].
type TokenVerifier interface {
	VerifyAccessToken(tokenStr string) (*sec.AuthClaims, error)
}

// AccountChecker confirms a token's account is still usable and reports its
// current role. It returns an error for unknown or inactive accounts.
type AccountChecker interface {
	CheckActive(ctx context.Context, userID string) (sec.UserRole, error)
}

// Authenticate extracts and verifies the JWT from the Authorization header.
//
// # Flow
//  1. No header: the request proceeds as anonymous.
//  2. Accept "Bearer <token>" or "JWT <token>".
//  3. Verify the access token via [TokenVerifier].
//  4. When checker is non-nil, reject inactive accounts and refresh the role.
//  5. Inject [*sec.AuthClaims] into the request context.
func Authenticate(verifier TokenVerifier, checker AccountChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			tokenStr, ok := sec.ParseAuthorization(authHeader)
			if !ok {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			claims, err := verifier.VerifyAccessToken(tokenStr)
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Given token not valid for any token type"))
				return
			}

			// ── 4. Account State ──────────────────────────────────────────────
			if checker != nil {
				role, err := checker.CheckActive(request.Context(), claims.UserID)
				if err != nil {
					respond.Error(writer, request, apperr.Unauthorized("User is inactive or no longer exists"))
					return
				}
				refreshed := *claims
				refreshed.Role = string(role)
				claims = &refreshed
			}

			// ── 5. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetAuthUser(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication credentials were not provided"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks requests if the authenticated user doesn't have the required role.
//
// It implies [RequireAuth] so you don't need to mount both.
func RequireRole(role sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := ctxutil.GetAuthUser(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication credentials were not provided"))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !sec.UserRole(claims.Role).AtLeast(role) {
				respond.Error(writer, request, apperr.Forbidden("You do not have permission to perform this action"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// RequireStaff admits staff and superusers only.
func RequireStaff(next http.Handler) http.Handler {
	return RequireRole(sec.RoleStaff)(next)
}
