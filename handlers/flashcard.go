package handlers

import (
	"net/http"

	"github.com/andrewpaige1/mindflow-api/access"
	"github.com/andrewpaige1/mindflow-api/models"
	"github.com/andrewpaige1/mindflow-api/utils"
)

type flashcardRequest struct {
	MapID           string `json:"mapId" validate:"required"`
	Front           string `json:"front" validate:"required,max=1000"`
	Back            string `json:"back" validate:"required,max=4000"`
	SourceNodeID    string `json:"sourceNodeId" validate:"max=100"`
	SourceTopicText string `json:"sourceTopicText" validate:"max=1000"`
}

// POST /api/flashcards
func (h *DBHandler) CreateFlashCard(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req flashcardRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, _, ok := h.authorizedMap(w, r, req.MapID, user, access.ActionView)
	if !ok {
		return
	}

	flashcard := models.Flashcard{
		MapID:           m.ID,
		AuthorID:        user.ID,
		Front:           req.Front,
		Back:            req.Back,
		SourceNodeID:    req.SourceNodeID,
		SourceTopicText: req.SourceTopicText,
	}
	if err := h.Store.CreateFlashcard(r.Context(), &flashcard); err != nil {
		h.respondStoreError(w, r, err, "Map not found")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, flashcard)
}

// GET /api/flashcards/map/{mapID}
func (h *DBHandler) GetFlashcardsForMap(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	m, _, ok := h.authorizedMap(w, r, r.PathValue("mapID"), user, access.ActionView)
	if !ok {
		return
	}
	cards, err := h.Store.ListFlashcards(r.Context(), m.ID)
	if err != nil {
		h.respondStoreError(w, r, err, "Map not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, cards)
}

// DELETE /api/flashcards/{flashcardID}
func (h *DBHandler) DeleteFlashCardByID(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	flashcard, err := h.Store.GetFlashcard(r.Context(), r.PathValue("flashcardID"))
	if err != nil {
		h.respondStoreError(w, r, err, "Flashcard not found")
		return
	}
	if flashcard.AuthorID != user.ID {
		utils.RespondError(w, http.StatusForbidden, "Only the author can delete this flashcard")
		return
	}
	if err := h.Store.DeleteFlashcard(r.Context(), flashcard); err != nil {
		h.respondStoreError(w, r, err, "Flashcard not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"msg": "Flashcard removed"})
}
