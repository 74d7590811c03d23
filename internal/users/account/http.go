// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/realestate/internal/platform/middleware"
	requestutil "github.com/taibuivan/realestate/internal/platform/request"
	"github.com/taibuivan/realestate/internal/platform/respond"
	"github.com/taibuivan/realestate/internal/platform/validate"
)

// Payload fields that only exist at the HTTP layer.
const (
	FieldRePassword    = "re_password"
	FieldNewPassword   = "new_password"
	FieldReNewPassword = "re_new_password"

	msgPasswordMismatch = "The two password fields didn't match."
)

// # Definitions & Constructors

// Handler implements registration and self-service endpoints.
//
// # Scope
//
// Everything a signed-in user can do to their own account: read and edit the
// profile, change the password and deactivate the account.
type Handler struct {
	directory *Directory
}

// NewHandler constructs a new account [Handler].
func NewHandler(directory *Directory) *Handler {
	return &Handler{directory: directory}
}

// Routes returns a [chi.Router] with the account endpoints.
//
// # Endpoints
//   - POST   /             : Register.
//   - GET    /me           : Current profile.
//   - PATCH  /me           : Update names or username.
//   - DELETE /me           : Deactivate.
//   - POST   /set_password : Change password.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/", handler.register)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/me", handler.getMe)
		r.Patch("/me", handler.updateMe)
		r.Delete("/me", handler.deleteMe)
		r.Post("/set_password", handler.setPassword)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	RePassword string `json:"re_password"`
}

type updateMeRequest struct {
	Username  *string `json:"username"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type setPasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ReNewPassword   string `json:"re_new_password"`
}

type deleteMeRequest struct {
	CurrentPassword string `json:"current_password"`
}

/*
POST /api/v1/auth/users.

Description: Checks the retyped password and the password policy, then
creates a standard account through the directory.

Request:
  - Body: registerRequest

Response:
  - 201: Profile: The created account
  - 400: Validation failure (fields, email, password policy)
  - 409: Username or email already taken
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.
		Required(FieldPassword, input.Password).
		Required(FieldRePassword, input.RePassword).
		Custom(FieldRePassword, input.RePassword != "" && input.Password != input.RePassword, msgPasswordMismatch)
	if input.Password != "" {
		validator.Password(FieldPassword, input.Password, input.Username, input.FirstName, input.LastName, input.Email)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	created, err := handler.directory.CreateStandardAccount(request.Context(), NewAccount{
		Username:  input.Username,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Password:  input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, NewProfile(created))
}

/*
GET /api/v1/auth/users/me.

Response:
  - 200: Profile
  - 401: Authentication required
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	current, err := handler.directory.Get(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, NewProfile(current))
}

/*
PATCH /api/v1/auth/users/me.

Description: Applies partial updates to username, first and last name.

Response:
  - 200: Profile: The updated account
  - 400: Validation failure
  - 409: Username already taken
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateMeRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := handler.directory.UpdateProfile(request.Context(), userID, ProfileUpdate{
		Username:  input.Username,
		FirstName: input.FirstName,
		LastName:  input.LastName,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, NewProfile(updated))
}

/*
POST /api/v1/auth/users/set_password.

Response:
  - 204: Password changed
  - 400: Wrong current password, mismatch or policy failure
*/
func (handler *Handler) setPassword(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input setPasswordRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	current, err := handler.directory.Get(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.
		Required(FieldCurrentPassword, input.CurrentPassword).
		Required(FieldNewPassword, input.NewPassword).
		Required(FieldReNewPassword, input.ReNewPassword).
		Custom(FieldReNewPassword, input.ReNewPassword != "" && input.NewPassword != input.ReNewPassword, msgPasswordMismatch)
	if input.NewPassword != "" {
		validator.Password(FieldNewPassword, input.NewPassword,
			current.Username, current.FirstName, current.LastName, current.Email)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.directory.SetPassword(request.Context(), userID, input.CurrentPassword, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
DELETE /api/v1/auth/users/me.

Description: Deactivates the account. Records are never removed.

Response:
  - 204: Deactivated
  - 400: Wrong current password
  - 422: Superusers cannot deactivate themselves
*/
func (handler *Handler) deleteMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input deleteMeRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.directory.Deactivate(request.Context(), userID, input.CurrentPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
