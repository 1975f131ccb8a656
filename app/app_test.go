package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewpaige1/mindflow-api/ai"
	"github.com/andrewpaige1/mindflow-api/auth"
	"github.com/andrewpaige1/mindflow-api/store/storetest"
)

var secret = []byte("app-test-secret")

func newTestApp(t *testing.T) *httptest.Server {
	t.Helper()
	a, err := auth.NewAuthenticator(secret, "mindflow", "mindflow-api")
	require.NoError(t, err)

	application := New(Options{
		DB:             storetest.Open(t).DB(),
		Auth:           a,
		AI:             ai.NewClient(ai.Config{}),
		AIRatePerMin:   10,
		AllowedOrigins: []string{"*"},
	})
	srv := httptest.NewServer(application.Handler)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestRoutes(t *testing.T) {
	srv := newTestApp(t)
	token, err := auth.CreateToken(secret, "mindflow", "mindflow-api",
		auth.Identity{Subject: "auth|dora", Email: "dora@example.com", Username: "dora"}, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		want   int
	}{
		{"health is public", http.MethodGet, "/api/health", "", "", http.StatusOK},
		{"metrics are public", http.MethodGet, "/metrics", "", "", http.StatusOK},
		{"maps need a token", http.MethodGet, "/api/maps", "", "", http.StatusUnauthorized},
		{"bad token is rejected", http.MethodGet, "/api/maps", "garbage", "", http.StatusUnauthorized},
		{"maps with token", http.MethodGet, "/api/maps", token, "", http.StatusOK},
		{"create map", http.MethodPost, "/api/maps", token, `{"title":"Routed"}`, http.StatusCreated},
		{"unknown public map", http.MethodGet, "/api/public/maps/nope", "", "", http.StatusNotFound},
		{"ai without service", http.MethodPost, "/api/ai/generate-flashcard", token, `{"topic":"x"}`, http.StatusServiceUnavailable},
		{"socket needs a token", http.MethodGet, "/ws", "", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, tt.method, srv.URL+tt.path, tt.token, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
