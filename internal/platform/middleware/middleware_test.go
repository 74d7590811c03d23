// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/realestate/internal/platform/ctxutil"
	"github.com/taibuivan/realestate/internal/platform/middleware"
	"github.com/taibuivan/realestate/internal/platform/sec"
)

type stubVerifier map[string]*sec.AuthClaims

func (verifier stubVerifier) VerifyAccessToken(token string) (*sec.AuthClaims, error) {
	if claims, ok := verifier[token]; ok {
		return claims, nil
	}
	return nil, errors.New("invalid")
}

type stubChecker map[string]sec.UserRole

func (checker stubChecker) CheckActive(_ context.Context, userID string) (sec.UserRole, error) {
	if role, ok := checker[userID]; ok {
		return role, nil
	}
	return "", errors.New("inactive")
}

// echoRole writes the caller's role (or "anonymous") as the body.
var echoRole = http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
	role := ctxutil.GetAuthRole(request.Context())
	if role == "" {
		role = "anonymous"
	}
	_, _ = writer.Write([]byte(role))
})

/*
TestAuthenticate covers header parsing, verification and account checks.
*/
func TestAuthenticate(t *testing.T) {
	verifier := stubVerifier{
		"member-token": {UserID: "u-1", Role: string(sec.RoleMember)},
		"gone-token":   {UserID: "u-2", Role: string(sec.RoleMember)},
	}
	checker := stubChecker{"u-1": sec.RoleStaff}

	handler := middleware.Authenticate(verifier, checker)(echoRole)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"anonymous", "", http.StatusOK, "anonymous"},
		{"bearer", "Bearer member-token", http.StatusOK, "staff"},
		{"jwt_scheme", "JWT member-token", http.StatusOK, "staff"},
		{"unknown_scheme", "Token member-token", http.StatusUnauthorized, ""},
		{"bad_token", "Bearer nope", http.StatusUnauthorized, ""},
		{"inactive_account", "Bearer gone-token", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				request.Header.Set("Authorization", tt.header)
			}
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.status, recorder.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, recorder.Body.String())
			}
		})
	}
}

/*
TestRequireStaff verifies the role gate.
*/
func TestRequireStaff(t *testing.T) {
	tests := []struct {
		name   string
		claims *sec.AuthClaims
		status int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"member", &sec.AuthClaims{Role: string(sec.RoleMember)}, http.StatusForbidden},
		{"staff", &sec.AuthClaims{Role: string(sec.RoleStaff)}, http.StatusOK},
		{"superuser", &sec.AuthClaims{Role: string(sec.RoleSuperuser)}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.claims != nil {
				request = request.WithContext(ctxutil.WithAuthUser(request.Context(), tt.claims))
			}
			recorder := httptest.NewRecorder()

			middleware.RequireStaff(echoRole).ServeHTTP(recorder, request)
			assert.Equal(t, tt.status, recorder.Code)
		})
	}
}

/*
TestRateLimit verifies that the burst is enforced per client IP.
*/
func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := middleware.RateLimit(ctx, 1, 2)(echoRole)

	codes := make([]int, 0, 3)
	for range 3 {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set("X-Real-IP", "203.0.113.7")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		codes = append(codes, recorder.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.Header.Set("X-Real-IP", "203.0.113.8")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, other)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

/*
TestRequestID generates an id unless the client supplied one.
*/
func TestRequestID(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		seen = ctxutil.GetRequestID(request.Context())
	}))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, recorder.Header().Get("X-Request-ID"))

	request = httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("X-Request-ID", "client-supplied")
	handler.ServeHTTP(httptest.NewRecorder(), request)
	assert.Equal(t, "client-supplied", seen)
}

type corsConfig struct {
	development bool
	origins     []string
}

func (cfg corsConfig) IsDevelopment() bool { return cfg.development }
func (cfg corsConfig) Origins() []string   { return cfg.origins }

/*
TestCORS verifies origins are matched as full scheme://host[:port] values
outside development, and that pre-flight requests stop at the middleware.
*/
func TestCORS(t *testing.T) {
	production := corsConfig{origins: []string{"http://localhost:3000", "localhost"}}

	tests := []struct {
		name    string
		cfg     corsConfig
		method  string
		origin  string
		allowed bool
		status  int
	}{
		{"listed_origin", production, http.MethodGet, "http://localhost:3000", true, http.StatusOK},
		{"other_port", production, http.MethodGet, "http://localhost:8080", false, http.StatusOK},
		{"bare_host_entry_is_not_an_origin", production, http.MethodGet, "https://localhost", false, http.StatusOK},
		{"unlisted", production, http.MethodGet, "https://evil.example", false, http.StatusOK},
		{"no_origin", production, http.MethodGet, "", false, http.StatusOK},
		{"development_allows_any", corsConfig{development: true}, http.MethodGet, "https://evil.example", true, http.StatusOK},
		{"preflight", production, http.MethodOptions, "http://localhost:3000", true, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(tt.method, "/api/v1/auth/users/me", nil)
			if tt.origin != "" {
				request.Header.Set("Origin", tt.origin)
			}
			recorder := httptest.NewRecorder()

			middleware.CORS(tt.cfg)(echoRole).ServeHTTP(recorder, request)

			assert.Equal(t, tt.status, recorder.Code)
			if tt.allowed {
				assert.Equal(t, tt.origin, recorder.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}
