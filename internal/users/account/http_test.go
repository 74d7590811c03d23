// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/realestate/internal/platform/ctxutil"
	"github.com/taibuivan/realestate/internal/platform/sec"
	"github.com/taibuivan/realestate/internal/users/account"
)

// harness mounts both handlers the way the API server does and lets each
// request pick its caller.
type harness struct {
	t         *testing.T
	directory *account.Directory
	router    chi.Router
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	directory, _, _ := newDirectory(t)
	router := chi.NewRouter()
	router.Mount("/auth/users", account.NewHandler(directory).Routes())
	router.Mount("/supersecret", account.NewAdminHandler(directory).Routes())

	return &harness{t: t, directory: directory, router: router}
}

// do sends body as JSON, authenticated as caller when non-nil.
func (h *harness) do(method, path string, body any, caller *account.Account) *httptest.ResponseRecorder {
	h.t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&payload).Encode(body))
	}

	request := httptest.NewRequest(method, path, &payload)
	if caller != nil {
		claims := &sec.AuthClaims{UserID: caller.PublicID, Email: caller.Email, Role: string(caller.Role())}
		request = request.WithContext(ctxutil.WithAuthUser(request.Context(), claims))
	}

	recorder := httptest.NewRecorder()
	h.router.ServeHTTP(recorder, request)
	return recorder
}

func (h *harness) create(username, email string, extra account.ExtraFields) *account.Account {
	h.t.Helper()

	created, err := h.directory.CreateStandardAccount(context.Background(), account.NewAccount{
		Username:  username,
		FirstName: "Test",
		LastName:  "Agent",
		Email:     email,
		Password:  "correct horse battery",
		Extra:     extra,
	})
	require.NoError(h.t, err)
	return created
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
	Details []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"details"`
	Meta struct {
		Total int `json:"total"`
	} `json:"meta"`
}

func decode(t *testing.T, recorder *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func registration() map[string]string {
	return map[string]string{
		"username":    "jdoe",
		"first_name":  "jane",
		"last_name":   "doe",
		"email":       "Jane.Doe@Example.COM",
		"password":    "correct horse battery",
		"re_password": "correct horse battery",
	}
}

/*
TestHandler_Register covers the registration endpoint.
*/
func TestHandler_Register(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		h := newHarness(t)

		recorder := h.do(http.MethodPost, "/auth/users/", registration(), nil)
		require.Equal(t, http.StatusCreated, recorder.Code)

		var profile account.Profile
		require.NoError(t, json.Unmarshal(decode(t, recorder).Data, &profile))
		assert.Equal(t, "Jane.Doe@example.com", profile.Email)
		assert.Equal(t, "Jane Doe", profile.FullName)
		assert.NotContains(t, recorder.Body.String(), "password")
	})

	tests := []struct {
		name   string
		mutate func(map[string]string)
		status int
		field  string
	}{
		{"mismatch", func(body map[string]string) { body["re_password"] = "something else" }, http.StatusBadRequest, "re_password"},
		{"too_short", func(body map[string]string) { body["password"], body["re_password"] = "a1b2", "a1b2" }, http.StatusBadRequest, "password"},
		{"common", func(body map[string]string) { body["password"], body["re_password"] = "Password123", "Password123" }, http.StatusBadRequest, "password"},
		{"like_username", func(body map[string]string) { body["password"], body["re_password"] = "jdoe-2026!", "jdoe-2026!" }, http.StatusBadRequest, "password"},
		{"missing_first_name", func(body map[string]string) { delete(body, "first_name") }, http.StatusBadRequest, "first_name"},
		{"bad_email", func(body map[string]string) { body["email"] = "not-an-email" }, http.StatusBadRequest, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			body := registration()
			tt.mutate(body)

			recorder := h.do(http.MethodPost, "/auth/users/", body, nil)
			require.Equal(t, tt.status, recorder.Code)

			fields := []string{}
			for _, detail := range decode(t, recorder).Details {
				fields = append(fields, detail.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}

	t.Run("duplicate", func(t *testing.T) {
		h := newHarness(t)

		require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/auth/users/", registration(), nil).Code)

		again := registration()
		again["username"] = "someone"
		recorder := h.do(http.MethodPost, "/auth/users/", again, nil)
		assert.Equal(t, http.StatusConflict, recorder.Code)
		assert.Equal(t, "CONFLICT", decode(t, recorder).Code)
	})
}

/*
TestHandler_Me covers reading, editing and deactivating the own account.
*/
func TestHandler_Me(t *testing.T) {
	h := newHarness(t)
	me := h.create("agent", "agent@agency.com", account.ExtraFields{})
	h.create("taken", "taken@agency.com", account.ExtraFields{})

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/auth/users/me", nil, nil).Code)

	recorder := h.do(http.MethodGet, "/auth/users/me", nil, me)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"username":"agent"`)

	recorder = h.do(http.MethodPatch, "/auth/users/me", map[string]string{"first_name": "  maria "}, me)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"first_name":"maria"`)
	assert.Contains(t, recorder.Body.String(), `"full_name":"Maria Agent"`)

	recorder = h.do(http.MethodPatch, "/auth/users/me", map[string]string{"username": "taken"}, me)
	assert.Equal(t, http.StatusConflict, recorder.Code)

	recorder = h.do(http.MethodDelete, "/auth/users/me", map[string]string{"current_password": "wrong"}, me)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = h.do(http.MethodDelete, "/auth/users/me", map[string]string{"current_password": "correct horse battery"}, me)
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	_, err := h.directory.VerifyCredentials(context.Background(), "agent@agency.com", "correct horse battery")
	assert.ErrorIs(t, err, account.ErrAuth)
}

/*
TestHandler_SetPassword covers the retype check and the current password.
*/
func TestHandler_SetPassword(t *testing.T) {
	h := newHarness(t)
	me := h.create("agent", "agent@agency.com", account.ExtraFields{})

	tests := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{"mismatch", map[string]string{
			"current_password": "correct horse battery", "new_password": "listing-ledger-42", "re_new_password": "other",
		}, http.StatusBadRequest},
		{"wrong_current", map[string]string{
			"current_password": "nope", "new_password": "listing-ledger-42", "re_new_password": "listing-ledger-42",
		}, http.StatusBadRequest},
		{"numeric", map[string]string{
			"current_password": "correct horse battery", "new_password": "9081726354", "re_new_password": "9081726354",
		}, http.StatusBadRequest},
		{"changed", map[string]string{
			"current_password": "correct horse battery", "new_password": "listing-ledger-42", "re_new_password": "listing-ledger-42",
		}, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, h.do(http.MethodPost, "/auth/users/set_password", tt.body, me).Code)
		})
	}

	_, err := h.directory.VerifyCredentials(context.Background(), "agent@agency.com", "listing-ledger-42")
	assert.NoError(t, err)
}

/*
TestAdminHandler covers access control, listing and permission changes.
*/
func TestAdminHandler(t *testing.T) {
	h := newHarness(t)
	member := h.create("member", "member@buyers.net", account.ExtraFields{})
	staff := h.create("staff", "staff@agency.com", account.ExtraFields{IsStaff: boolPtr(true)})

	root, err := h.directory.CreateElevatedAccount(context.Background(), account.NewAccount{
		Username: "root", FirstName: "Root", LastName: "Admin", Email: "root@agency.com", Password: "correct horse battery",
	})
	require.NoError(t, err)

	t.Run("access", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/supersecret/users", nil, nil).Code)
		assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/supersecret/users", nil, member).Code)
		assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/supersecret/users", nil, staff).Code)
	})

	t.Run("list", func(t *testing.T) {
		recorder := h.do(http.MethodGet, "/supersecret/users?search=AGENCY&limit=1", nil, staff)
		require.Equal(t, http.StatusOK, recorder.Code)

		body := decode(t, recorder)
		assert.Equal(t, 2, body.Meta.Total)

		var rows []account.AdminRow
		require.NoError(t, json.Unmarshal(body.Data, &rows))
		require.Len(t, rows, 1)
		assert.Equal(t, "root@agency.com", rows[0].Email)
		assert.Equal(t, root.InternalID, rows[0].PKID)
	})

	t.Run("detail", func(t *testing.T) {
		recorder := h.do(http.MethodGet, "/supersecret/users/"+member.PublicID, nil, staff)
		require.Equal(t, http.StatusOK, recorder.Code)

		var detail account.AdminDetail
		require.NoError(t, json.Unmarshal(decode(t, recorder).Data, &detail))
		assert.Equal(t, "member@buyers.net", detail.LoginCredentials.Email)
		assert.True(t, detail.LoginCredentials.HasUsablePassword)
		assert.True(t, detail.Permissions.IsActive)

		assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/supersecret/users/not-a-uuid", nil, staff).Code)
	})

	t.Run("create", func(t *testing.T) {
		recorder := h.do(http.MethodPost, "/supersecret/users", map[string]any{
			"email": "new@agency.com", "username": "newbie", "first_name": "New", "last_name": "Hire",
			"password1": "listing-ledger-42", "password2": "listing-ledger-42", "is_staff": true,
		}, staff)
		require.Equal(t, http.StatusCreated, recorder.Code)

		var detail account.AdminDetail
		require.NoError(t, json.Unmarshal(decode(t, recorder).Data, &detail))
		assert.True(t, detail.Permissions.IsStaff)
		assert.False(t, detail.Permissions.IsSuperuser)
	})

	t.Run("permissions", func(t *testing.T) {
		path := "/supersecret/users/" + member.PublicID + "/permissions"

		assert.Equal(t, http.StatusForbidden, h.do(http.MethodPatch, path, map[string]bool{"is_superuser": true}, staff).Code)

		recorder := h.do(http.MethodPatch, path, map[string]bool{"is_superuser": true}, root)
		assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
		assert.Equal(t, "PERMISSION_INVARIANT", decode(t, recorder).Code)

		recorder = h.do(http.MethodPatch, path, map[string]bool{"is_staff": true, "is_superuser": true}, root)
		require.Equal(t, http.StatusOK, recorder.Code)

		promoted, err := h.directory.Get(context.Background(), member.PublicID)
		require.NoError(t, err)
		assert.True(t, promoted.HasPermissionBypass())
	})
}

func boolPtr(v bool) *bool { return &v }
