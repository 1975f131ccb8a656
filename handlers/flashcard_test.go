package handlers

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewpaige1/mindflow-api/ai"
	"github.com/andrewpaige1/mindflow-api/models"
	"github.com/andrewpaige1/mindflow-api/store/storetest"
)

func TestFlashcards(t *testing.T) {
	h, s := newHandler(t)
	alice := storetest.User(t, s, "alice")
	bob := storetest.User(t, s, "bob")
	carol := storetest.User(t, s, "carol")
	m := storetest.Map(t, s, alice, "M", nil, nil)
	storetest.Grant(t, s, m, bob, models.RoleViewer)

	body := map[string]string{"mapId": m.PublicID, "front": "Q", "back": "A", "sourceNodeId": "n1", "sourceTopicText": "Cell"}

	rec := call(t, h.CreateFlashCard, http.MethodPost, "/api/flashcards", body, carol)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, h.CreateFlashCard, http.MethodPost, "/api/flashcards", map[string]string{"mapId": m.PublicID}, bob)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h.CreateFlashCard, http.MethodPost, "/api/flashcards", body, bob)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	card := decode[models.Flashcard](t, rec)
	assert.Equal(t, "n1", card.SourceNodeID)

	rec = call(t, h.GetFlashcardsForMap, http.MethodGet, "/", nil, alice, "mapID", m.PublicID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Flashcard](t, rec), 1)

	rec = call(t, h.GetFlashcardsForMap, http.MethodGet, "/", nil, carol, "mapID", m.PublicID)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, h.DeleteFlashCardByID, http.MethodDelete, "/", nil, alice, "flashcardID", card.PublicID)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, h.DeleteFlashCardByID, http.MethodDelete, "/", nil, bob, "flashcardID", card.PublicID)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h.DeleteFlashCardByID, http.MethodDelete, "/", nil, bob, "flashcardID", card.PublicID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWordClouds(t *testing.T) {
	h, s := newHandler(t)
	alice := storetest.User(t, s, "alice")
	bob := storetest.User(t, s, "bob")
	m := storetest.Map(t, s, alice, "M", nil, nil)
	storetest.Grant(t, s, m, bob, models.RoleEditor)

	body := map[string]any{
		"mapId":    m.PublicID,
		"mapTitle": "M",
		"words":    []map[string]any{{"text": "Cell", "value": 90}},
	}

	rec := call(t, h.CreateWordCloud, http.MethodPost, "/api/wordclouds", body, bob)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, h.CreateWordCloud, http.MethodPost, "/api/wordclouds", map[string]any{"mapId": m.PublicID, "mapTitle": "M"}, alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h.CreateWordCloud, http.MethodPost, "/api/wordclouds", body, alice)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	wc := decode[models.WordCloud](t, rec)
	assert.Equal(t, []models.Word{{Text: "Cell", Value: 90}}, wc.Words)

	rec = call(t, h.CreateWordCloud, http.MethodPost, "/api/wordclouds",
		map[string]any{"mapId": m.PublicID, "mapTitle": "M", "imageData": "data:image/png;base64,AAAA"}, alice)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, h.GetWordCloudsForMap, http.MethodGet, "/", nil, alice, "mapID", m.PublicID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.WordCloud](t, rec), 2)

	rec = call(t, h.GetWordCloudsForMap, http.MethodGet, "/", nil, bob, "mapID", m.PublicID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.WordCloud](t, rec))

	rec = call(t, h.DeleteWordCloud, http.MethodDelete, "/", nil, bob, "wordCloudID", wc.PublicID)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, h.DeleteWordCloud, http.MethodDelete, "/", nil, alice, "wordCloudID", wc.PublicID)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAIEndpoints(t *testing.T) {
	h, s := newHandler(t)
	alice := storetest.User(t, s, "alice")
	stub := &stubAI{
		card:  ai.Flashcard{Front: "Q", Back: "A"},
		words: []models.Word{{Text: "Cell", Value: 90}},
	}
	h.AI = stub

	rec := call(t, h.GenerateFlashcard, http.MethodPost, "/", map[string]string{"topic": "Cells"}, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"front":"Q","back":"A"}`, rec.Body.String())

	rec = call(t, h.GenerateFlashcard, http.MethodPost, "/", map[string]string{"topic": "  "}, alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h.ProcessWordCloud, http.MethodPost, "/", map[string]string{"text": "cells and more cells"}, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"text":"Cell","value":90}]`, rec.Body.String())

	stub.err = errors.New("upstream down")
	rec = call(t, h.ProcessWordCloud, http.MethodPost, "/", map[string]string{"text": "x"}, alice)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	stub.err = ai.ErrNotConfigured
	rec = call(t, h.GenerateFlashcard, http.MethodPost, "/", map[string]string{"topic": "x"}, alice)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAIRateLimit(t *testing.T) {
	h, s := newHandler(t)
	alice := storetest.User(t, s, "alice")
	h.AI = &stubAI{card: ai.Flashcard{Front: "Q", Back: "A"}}
	h.Limiter = NewRateLimiter(2, time.Hour)

	for i := 0; i < 2; i++ {
		rec := call(t, h.GenerateFlashcard, http.MethodPost, "/", map[string]string{"topic": "x"}, alice)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := call(t, h.GenerateFlashcard, http.MethodPost, "/", map[string]string{"topic": "x"}, alice)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimiterIsPerKey(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
}
