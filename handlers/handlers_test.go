package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewpaige1/mindflow-api/access"
	"github.com/andrewpaige1/mindflow-api/ai"
	"github.com/andrewpaige1/mindflow-api/models"
	"github.com/andrewpaige1/mindflow-api/store"
	"github.com/andrewpaige1/mindflow-api/store/storetest"
	"github.com/andrewpaige1/mindflow-api/utils"
)

type stubAI struct {
	card  ai.Flashcard
	words []models.Word
	err   error
}

func (s *stubAI) GenerateFlashcard(ctx context.Context, topic string) (ai.Flashcard, error) {
	return s.card, s.err
}

func (s *stubAI) ExtractKeywords(ctx context.Context, text string) ([]models.Word, error) {
	return s.words, s.err
}

func newHandler(t *testing.T) (*DBHandler, *store.Store) {
	t.Helper()
	s := storetest.Open(t)
	return &DBHandler{
		Store:   s,
		Access:  access.NewResolver(s),
		AI:      &stubAI{},
		Limiter: NewRateLimiter(100, time.Minute),
	}, s
}

// call invokes fn as user. pathValues are name, value pairs.
func call(t *testing.T, fn http.HandlerFunc, method, target string, body any, user *models.User, pathValues ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	if user != nil {
		req = req.WithContext(utils.WithUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["msg"]
}

func TestRequiresUser(t *testing.T) {
	h, _ := newHandler(t)
	rec := call(t, h.GetMapsForUser, http.MethodGet, "/api/maps", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealth(t *testing.T) {
	h, _ := newHandler(t)
	rec := call(t, h.Health, http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGetCurrentUser(t *testing.T) {
	h, s := newHandler(t)
	alice := storetest.User(t, s, "alice")

	rec := call(t, h.GetCurrentUser, http.MethodGet, "/api/users/me", nil, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"email":"alice@example.com","username":"alice"}`, rec.Body.String())
}
