// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/realestate/internal/platform/apperr"
	"github.com/taibuivan/realestate/internal/platform/ctxutil"
	"github.com/taibuivan/realestate/internal/platform/middleware"
	requestutil "github.com/taibuivan/realestate/internal/platform/request"
	"github.com/taibuivan/realestate/internal/platform/respond"
	"github.com/taibuivan/realestate/internal/platform/sec"
	"github.com/taibuivan/realestate/internal/platform/validate"
	"github.com/taibuivan/realestate/pkg/convert"
	"github.com/taibuivan/realestate/pkg/pagination"
	"github.com/taibuivan/realestate/pkg/slice"
)

// Admin add-form fields.
const (
	FieldPassword1 = "password1"
	FieldPassword2 = "password2"
)

// AdminHandler serves the staff-only account directory.
type AdminHandler struct {
	directory *Directory
}

// NewAdminHandler constructs an [AdminHandler].
func NewAdminHandler(directory *Directory) *AdminHandler {
	return &AdminHandler{directory: directory}
}

// Routes returns the admin router. Every route requires a staff account.
//
// # Endpoints
//   - GET   /users                   : Filtered, searchable list ordered by email.
//   - POST  /users                   : Add an account.
//   - GET   /users/{id}              : Detail grouped by section.
//   - PATCH /users/{id}/permissions  : Change staff, superuser and active flags.
func (handler *AdminHandler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireStaff)

	router.Get("/users", handler.list)
	router.Post("/users", handler.create)
	router.Get("/users/{id}", handler.detail)
	router.Patch("/users/{id}/permissions", handler.changePermissions)

	return router
}

/*
GET /{admin}/users.

Query:
  - email, username, first_name, last_name: exact match
  - is_staff, is_active: boolean
  - search: case-insensitive match on email, username and names
  - page, limit: pagination

Response:
  - 200: []AdminRow with pagination meta
*/
func (handler *AdminHandler) list(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()
	page := pagination.FromRequest(request)

	accounts, total, err := handler.directory.List(request.Context(), Filter{
		Email:     query.Get(FieldEmail),
		Username:  query.Get(FieldUsername),
		FirstName: query.Get(FieldFirstName),
		LastName:  query.Get(FieldLastName),
		IsStaff:   convert.ToBoolPtr(query.Get(FieldIsStaff)),
		IsActive:  convert.ToBoolPtr(query.Get(FieldIsActive)),
		Search:    query.Get("search"),
		Limit:     page.Limit,
		Offset:    page.Offset(),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, slice.Map(accounts, NewAdminRow), pagination.NewMeta(page.Page, page.Limit, total))
}

// GET /{admin}/users/{id}.
func (handler *AdminHandler) detail(writer http.ResponseWriter, request *http.Request) {
	found, err := handler.directory.Get(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, NewAdminDetail(found))
}

type adminCreateRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
	IsStaff   *bool  `json:"is_staff"`
	IsActive  *bool  `json:"is_active"`
}

/*
POST /{admin}/users.

Description: The admin add form. Both passwords must match; the superuser
flag is not part of this form.

Response:
  - 201: AdminDetail
  - 400: Validation failure
  - 409: Username or email already taken
*/
func (handler *AdminHandler) create(writer http.ResponseWriter, request *http.Request) {
	var input adminCreateRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.
		Required(FieldPassword1, input.Password1).
		Required(FieldPassword2, input.Password2).
		Custom(FieldPassword2, input.Password2 != "" && input.Password1 != input.Password2, msgPasswordMismatch)
	if input.Password1 != "" {
		validator.Password(FieldPassword1, input.Password1, input.Username, input.FirstName, input.LastName, input.Email)
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
		Password:  input.Password1,
		Extra:     ExtraFields{IsStaff: input.IsStaff, IsActive: input.IsActive},
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, NewAdminDetail(created))
}

/*
PATCH /{admin}/users/{id}/permissions.

Description: Omitted flags keep their value. Only superusers may grant or
revoke superuser status.

Response:
  - 200: AdminDetail
  - 403: Caller may not change is_superuser
  - 422: Resulting flags break the superuser rules
*/
func (handler *AdminHandler) changePermissions(writer http.ResponseWriter, request *http.Request) {
	var input ExtraFields
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if input.IsSuperuser != nil && ctxutil.GetAuthRole(request.Context()) != sec.RoleSuperuser {
		respond.Error(writer, request, apperr.Forbidden("Only superusers can change superuser status"))
		return
	}

	updated, err := handler.directory.ChangePermissions(request.Context(), requestutil.Param(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, NewAdminDetail(updated))
}
