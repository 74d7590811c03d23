// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides password hashing and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (hashing, JWT signing) from
// the domain logic. Services receive it through the [Hasher] interface and the
// token interfaces declared by their consumers.
package sec

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes access from refresh tokens inside the claims.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// HeaderTypes lists the accepted Authorization schemes.
var HeaderTypes = []string{"Bearer", "JWT"}

var (
	// ErrWrongTokenType is returned when e.g. a refresh token is presented as access.
	ErrWrongTokenType = errors.New("sec: wrong token type")
	// ErrEmptySigningKey is returned by [NewTokenService] without a key.
	ErrEmptySigningKey = errors.New("sec: signing key is empty")
)

// AuthClaims represents the payload embedded inside a JWT.
//
// The public account id, email and role are embedded so [middleware.Authenticate]
// can rebuild the caller without a database round-trip.
type AuthClaims struct {
	jwt.RegisteredClaims

	TokenType TokenType `json:"token_type"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
}

// Subject is the identity a token pair is minted for.
type Subject struct {
	UserID string
	Email  string
	Role   UserRole
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	Access           string
	Refresh          string
	RefreshID        string
	RefreshExpiresAt time.Time
}

// TokenService handles generation and verification of HS256 tokens.
type TokenService struct {
	signingKey []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService creates a new TokenService.
func NewTokenService(signingKey, issuer string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if signingKey == "" {
		return nil, ErrEmptySigningKey
	}

	return &TokenService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// WithClock replaces the time source. Intended for tests.
func (service *TokenService) WithClock(now func() time.Time) *TokenService {
	service.now = now
	return service
}

// AccessTTL returns the configured access token lifetime.
func (service *TokenService) AccessTTL() time.Duration { return service.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (service *TokenService) RefreshTTL() time.Duration { return service.refreshTTL }

// IssuePair mints an access and a refresh token for subject.
func (service *TokenService) IssuePair(subject Subject) (*TokenPair, error) {
	access, _, err := service.sign(subject, TokenTypeAccess, service.accessTTL)
	if err != nil {
		return nil, err
	}

	refresh, claims, err := service.sign(subject, TokenTypeRefresh, service.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		Access:           access,
		Refresh:          refresh,
		RefreshID:        claims.ID,
		RefreshExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// GenerateAccessToken creates a new JWT access token for a subject.
func (service *TokenService) GenerateAccessToken(subject Subject) (string, error) {
	token, _, err := service.sign(subject, TokenTypeAccess, service.accessTTL)
	return token, err
}

func (service *TokenService) sign(subject Subject, tokenType TokenType, timeToLive time.Duration) (string, *AuthClaims, error) {
	currentTime := service.now()
	claims := &AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject.UserID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		TokenType: tokenType,
		UserID:    subject.UserID,
		Email:     subject.Email,
		Role:      string(subject.Role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.signingKey)
	if err != nil {
		return "", nil, fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, claims, nil
}

// VerifyToken checks the signature and validity of a JWT string of any type.
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		return service.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(service.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(service.now),
	)

	if err != nil {
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("sec: invalid token claims")
	}

	return claims, nil
}

// VerifyAccessToken is [TokenService.VerifyToken] restricted to access tokens.
func (service *TokenService) VerifyAccessToken(tokenString string) (*AuthClaims, error) {
	return service.verifyType(tokenString, TokenTypeAccess)
}

// VerifyRefreshToken is [TokenService.VerifyToken] restricted to refresh tokens.
func (service *TokenService) VerifyRefreshToken(tokenString string) (*AuthClaims, error) {
	return service.verifyType(tokenString, TokenTypeRefresh)
}

func (service *TokenService) verifyType(tokenString string, want TokenType) (*AuthClaims, error) {
	claims, err := service.VerifyToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != want {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// ParseAuthorization extracts the token from an Authorization header value.
// It returns false for an unknown scheme or a malformed value.
func ParseAuthorization(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || strings.TrimSpace(token) == "" {
		return "", false
	}

	for _, accepted := range HeaderTypes {
		if strings.EqualFold(scheme, accepted) {
			return strings.TrimSpace(token), true
		}
	}
	return "", false
}
