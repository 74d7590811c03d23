// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/realestate/internal/platform/request"
	"github.com/taibuivan/realestate/internal/platform/respond"
	"github.com/taibuivan/realestate/internal/platform/validate"
)

// Payload fields.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldRefresh  = "refresh"
	FieldToken    = "token"
)

// # Definitions & Constructors

// Handler implements the token endpoints.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] with the token endpoints. All of them are
// public; the tokens in the body are the credentials.
//
// # Endpoints
//   - POST /jwt/create  : Email and password for a token pair.
//   - POST /jwt/refresh : Refresh token for a new access token.
//   - POST /jwt/verify  : Checks any token.
//   - POST /logout      : Revokes a refresh token.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/jwt/create", handler.create)
	router.Post("/jwt/refresh", handler.refresh)
	router.Post("/jwt/verify", handler.verify)
	router.Post("/logout", handler.logout)

	return router
}

// # Request & Response Payloads

type createRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

// TokenPairResponse is returned by /jwt/create.
type TokenPairResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AccessResponse is returned by /jwt/refresh.
type AccessResponse struct {
	Access string `json:"access"`
}

/*
POST /api/v1/auth/jwt/create.

Response:
  - 200: TokenPairResponse
  - 400: Missing fields
  - 401: No active account found with the given credentials
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input createRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.
		Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.authService.CreateTokens(request.Context(), input.Email, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, TokenPairResponse{Access: pair.Access, Refresh: pair.Refresh})
}

/*
POST /api/v1/auth/jwt/refresh.

Response:
  - 200: AccessResponse
  - 401: Invalid, expired or revoked refresh token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := (&validate.Validator{}).Required(FieldRefresh, input.Refresh).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	access, err := handler.authService.Refresh(request.Context(), input.Refresh)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, AccessResponse{Access: access})
}

/*
POST /api/v1/auth/jwt/verify.

Response:
  - 200: Empty object
  - 401: Invalid token
*/
func (handler *Handler) verify(writer http.ResponseWriter, request *http.Request) {
	var input verifyRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := (&validate.Validator{}).Required(FieldToken, input.Token).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Verify(request.Context(), input.Token); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, struct{}{})
}

/*
POST /api/v1/auth/logout.

Response:
  - 204: Refresh token revoked
  - 401: Invalid or already revoked token
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := (&validate.Validator{}).Required(FieldRefresh, input.Refresh).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Logout(request.Context(), input.Refresh); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
