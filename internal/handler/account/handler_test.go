package account

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountservice "github.com/zhouzirui/manasbridge/backend/internal/service/account"
	moodservice "github.com/zhouzirui/manasbridge/backend/internal/service/mood"
	"github.com/zhouzirui/manasbridge/backend/internal/storage/memory"
)

func setupRouter(t *testing.T) *chi.Mux {
	t.Helper()
	store := memory.NewStore()
	t.Cleanup(func() { _ = store.Close() })

	svc := accountservice.NewService(store, moodservice.NewService(store, nil), nil)
	r := chi.NewRouter()
	New(svc, nil).RegisterRoutes(r)
	return r
}

func serve(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(method, target, strings.NewReader(body)))
	return resp
}

const registration = `{"fullName":"Asha Rao","username":"asha","password":"secret1","language":"hi"}`

func TestRegisterProfileFlow(t *testing.T) {
	r := setupRouter(t)

	resp := serve(r, http.MethodPost, "/account/register", registration)
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.NotContains(t, resp.Body.String(), "secret1")

	resp = serve(r, http.MethodGet, "/account", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var profile accountservice.Profile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&profile))
	assert.Equal(t, "asha", profile.User.Username)
	assert.Zero(t, profile.CheckInCount)

	resp = serve(r, http.MethodPost, "/account/register", registration)
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.JSONEq(t, `{"error":"Username is already taken."}`, resp.Body.String())
}

func TestLoginFailureFeedback(t *testing.T) {
	r := setupRouter(t)
	require.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/account/register", registration).Code)
	require.Equal(t, http.StatusNoContent, serve(r, http.MethodPost, "/account/logout", "").Code)

	resp := serve(r, http.MethodPost, "/account/login", `{"username":"asha","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.JSONEq(t, `{"error":"Invalid username or password."}`, resp.Body.String())

	resp = serve(r, http.MethodGet, "/account", "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestChangePasswordAndDelete(t *testing.T) {
	r := setupRouter(t)
	require.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/account/register", registration).Code)

	resp := serve(r, http.MethodPost, "/account/password", `{"currentPassword":"secret1","newPassword":"longer-secret"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"message":"Password changed successfully!"}`, resp.Body.String())

	resp = serve(r, http.MethodPost, "/account/password", `{"currentPassword":"secret1","newPassword":"x"}`)
	assert.JSONEq(t, `{"error":"Incorrect current password."}`, resp.Body.String())

	require.Equal(t, http.StatusNoContent, serve(r, http.MethodDelete, "/account", "").Code)

	resp = serve(r, http.MethodPost, "/account/login", `{"username":"asha","password":"longer-secret"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRegisterRejectsSpaces(t *testing.T) {
	resp := serve(setupRouter(t), http.MethodPost, "/account/register", `{"fullName":"A","username":"a b","password":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.JSONEq(t, `{"error":"Username cannot contain spaces."}`, resp.Body.String())
}
