package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewpaige1/mindflow-api/models"
)

type inviteBody struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=editor contributor viewer"`
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, ValidateStruct(&inviteBody{Email: "a@b.co", Role: "viewer"}))

	err := ValidateStruct(&inviteBody{Email: "nope", Role: "owner"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email must be a valid email")
	assert.Contains(t, err.Error(), "role must be one of: editor contributor viewer")
}

func TestDecodeJSON(t *testing.T) {
	var body inviteBody
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","role":"editor"}`))
	require.NoError(t, DecodeJSON(r, &body))
	assert.Equal(t, "editor", body.Role)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":`))
	assert.Error(t, DecodeJSON(r, &body))
}

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusForbidden, "Only the map owner can invite users")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"msg":"Only the map owner can invite users"}`, rec.Body.String())
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, BearerToken(r))

	r.Header.Set("Authorization", "Bearer abc.def")
	assert.Equal(t, "abc.def", BearerToken(r))

	r.Header.Set("Authorization", "Basic xyz")
	assert.Empty(t, BearerToken(r))
}

func TestCurrentUser(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := CurrentUser(r)
	assert.False(t, ok)

	u := &models.User{ID: 7}
	r = r.WithContext(WithUser(r.Context(), u))
	got, ok := CurrentUser(r)
	require.True(t, ok)
	assert.Equal(t, uint(7), got.ID)
}

func TestGetClaimsWithoutToken(t *testing.T) {
	claims, ok := GetClaims(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
	assert.Nil(t, claims)
}
