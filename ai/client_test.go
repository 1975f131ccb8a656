package ai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewpaige1/mindflow-api/models"
)

func serve(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		raw, _ := io.ReadAll(r.Body)
		var req map[string]string
		assert.NoError(t, json.Unmarshal(raw, &req))
		assert.NotEmpty(t, req["prompt"])

		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestGenerateFlashcard(t *testing.T) {
	srv, _ := serve(t, http.StatusOK, `{"front":"What is evaporation?","back":"Liquid water turning into vapor."}`)
	c := NewClient(Config{URL: srv.URL, APIKey: "key"})

	card, err := c.GenerateFlashcard(context.Background(), "Water cycle: evaporation")
	require.NoError(t, err)
	assert.Equal(t, "What is evaporation?", card.Front)
	assert.Equal(t, "Liquid water turning into vapor.", card.Back)
}

func TestGenerateFlashcardRejectsIncompleteCard(t *testing.T) {
	srv, _ := serve(t, http.StatusOK, `{"front":"only a front"}`)
	c := NewClient(Config{URL: srv.URL, APIKey: "key"})

	_, err := c.GenerateFlashcard(context.Background(), "topic")
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []models.Word
	}{
		{
			name: "bare array",
			body: `[{"text":"Constitution","value":98},{"text":"Law","value":80}]`,
			want: []models.Word{{Text: "Constitution", Value: 98}, {Text: "Law", Value: 80}},
		},
		{
			name: "wrapped array",
			body: `{"keywords":[{"text":"Law","value":80}]}`,
			want: []models.Word{{Text: "Law", Value: 80}},
		},
		{
			name: "empty",
			body: `[]`,
			want: []models.Word{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := serve(t, http.StatusOK, tt.body)
			c := NewClient(Config{URL: srv.URL, APIKey: "key"})

			words, err := c.ExtractKeywords(context.Background(), "some text")
			require.NoError(t, err)
			assert.Equal(t, tt.want, words)
		})
	}
}

func TestExtractKeywordsWithoutArray(t *testing.T) {
	srv, _ := serve(t, http.StatusOK, `{"answer":"no idea"}`)
	c := NewClient(Config{URL: srv.URL, APIKey: "key"})

	_, err := c.ExtractKeywords(context.Background(), "text")
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestNotConfigured(t *testing.T) {
	c := NewClient(Config{})
	_, err := c.GenerateFlashcard(context.Background(), "topic")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	srv, calls := serve(t, http.StatusInternalServerError, `boom`)
	c := NewClient(Config{URL: srv.URL, APIKey: "key", FailureThreshold: 2, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := c.GenerateFlashcard(context.Background(), "topic")
		require.Error(t, err)
	}
	_, err := c.GenerateFlashcard(context.Background(), "topic")
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
