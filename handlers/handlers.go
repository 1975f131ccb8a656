package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/andrewpaige1/mindflow-api/access"
	"github.com/andrewpaige1/mindflow-api/ai"
	"github.com/andrewpaige1/mindflow-api/logging"
	"github.com/andrewpaige1/mindflow-api/models"
	"github.com/andrewpaige1/mindflow-api/store"
	"github.com/andrewpaige1/mindflow-api/utils"
)

// AIService generates study material from map text.
type AIService interface {
	GenerateFlashcard(ctx context.Context, topic string) (ai.Flashcard, error)
	ExtractKeywords(ctx context.Context, text string) ([]models.Word, error)
}

// DBHandler serves the REST API. Every private handler runs behind
// SyncUserMiddleware, so the caller is available through utils.CurrentUser.
type DBHandler struct {
	Store   *store.Store
	Access  *access.Resolver
	AI      AIService
	Limiter *RateLimiter
}

func (h *DBHandler) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := utils.CurrentUser(r)
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	return user, true
}

// authorizedMap loads the map named by the path value mapID and checks that
// user may perform action on it. On failure the response is already written.
func (h *DBHandler) authorizedMap(w http.ResponseWriter, r *http.Request, mapID string, user *models.User, action access.Action) (*models.Map, access.Level, bool) {
	if mapID == "" {
		utils.RespondError(w, http.StatusBadRequest, "Map ID is required")
		return nil, access.LevelNone, false
	}
	m, err := h.Store.GetMap(r.Context(), mapID)
	if err != nil {
		h.respondStoreError(w, r, err, "Map not found")
		return nil, access.LevelNone, false
	}
	level, err := h.Access.Require(r.Context(), m, user.ID, action)
	if err != nil {
		h.respondStoreError(w, r, err, "Map not found")
		return nil, level, false
	}
	return m, level, true
}

// respondStoreError maps sentinel errors onto status codes. Anything else is
// logged and reported as a server error.
func (h *DBHandler) respondStoreError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, access.ErrForbidden):
		utils.RespondError(w, http.StatusForbidden, "You do not have permission to perform this action")
	case errors.Is(err, store.ErrConflict):
		utils.RespondError(w, http.StatusBadRequest, "This user has already been invited")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		utils.RespondError(w, http.StatusInternalServerError, "Server error")
	}
}
