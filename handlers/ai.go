package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/andrewpaige1/mindflow-api/ai"
	"github.com/andrewpaige1/mindflow-api/logging"
	"github.com/andrewpaige1/mindflow-api/models"
	"github.com/andrewpaige1/mindflow-api/utils"
)

type topicRequest struct {
	Topic string `json:"topic" validate:"required,max=2000"`
}

type textRequest struct {
	Text string `json:"text" validate:"required,max=50000"`
}

// POST /api/ai/generate-flashcard
func (h *DBHandler) GenerateFlashcard(w http.ResponseWriter, r *http.Request) {
	user, ok := h.allowAI(w, r)
	if !ok {
		return
	}
	var req topicRequest
	if err := utils.DecodeJSON(r, &req); err != nil || strings.TrimSpace(req.Topic) == "" {
		utils.RespondError(w, http.StatusBadRequest, "A topic is required to generate a flashcard")
		return
	}

	card, err := h.AI.GenerateFlashcard(r.Context(), req.Topic)
	if err != nil {
		h.respondAIError(w, r, user, err, "Could not generate content with the AI service")
		return
	}
	utils.RespondJSON(w, http.StatusOK, card)
}

// POST /api/ai/process-wordcloud
func (h *DBHandler) ProcessWordCloud(w http.ResponseWriter, r *http.Request) {
	user, ok := h.allowAI(w, r)
	if !ok {
		return
	}
	var req textRequest
	if err := utils.DecodeJSON(r, &req); err != nil || strings.TrimSpace(req.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "Text is required to generate a word cloud")
		return
	}

	words, err := h.AI.ExtractKeywords(r.Context(), req.Text)
	if err != nil {
		h.respondAIError(w, r, user, err, "Could not generate the word cloud with the AI service")
		return
	}
	if words == nil {
		words = []models.Word{}
	}
	utils.RespondJSON(w, http.StatusOK, words)
}

func (h *DBHandler) allowAI(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return nil, false
	}
	if h.Limiter != nil && !h.Limiter.Allow(user.Subject) {
		utils.RespondError(w, http.StatusTooManyRequests, "Too many AI requests, try again later")
		return nil, false
	}
	return user, true
}

func (h *DBHandler) respondAIError(w http.ResponseWriter, r *http.Request, user *models.User, err error, msg string) {
	logging.Ctx(r.Context()).Error().Err(err).Uint("user_id", user.ID).Msg("ai request failed")
	if errors.Is(err, ai.ErrNotConfigured) {
		utils.RespondError(w, http.StatusServiceUnavailable, "AI service is not configured")
		return
	}
	utils.RespondError(w, http.StatusInternalServerError, msg)
}
