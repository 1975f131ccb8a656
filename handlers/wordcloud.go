package handlers

import (
	"net/http"

	"github.com/andrewpaige1/mindflow-api/access"
	"github.com/andrewpaige1/mindflow-api/models"
	"github.com/andrewpaige1/mindflow-api/utils"
)

// A word cloud is saved either as its weighted words or as a rendered image.
type wordCloudRequest struct {
	MapID     string        `json:"mapId" validate:"required"`
	MapTitle  string        `json:"mapTitle" validate:"required,max=200"`
	Words     []models.Word `json:"words" validate:"required_without=ImageData,dive"`
	ImageData string        `json:"imageData" validate:"required_without=Words"`
}

// POST /api/wordclouds
func (h *DBHandler) CreateWordCloud(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req wordCloudRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Incomplete word cloud data: "+err.Error())
		return
	}
	m, _, ok := h.authorizedMap(w, r, req.MapID, user, access.ActionManageSharing)
	if !ok {
		return
	}

	wc := models.WordCloud{
		MapID:     m.ID,
		AuthorID:  user.ID,
		MapTitle:  req.MapTitle,
		Words:     req.Words,
		ImageData: req.ImageData,
	}
	if err := h.Store.CreateWordCloud(r.Context(), &wc); err != nil {
		h.respondStoreError(w, r, err, "Map not found")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, wc)
}

// GET /api/wordclouds/map/{mapID}
func (h *DBHandler) GetWordCloudsForMap(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	m, err := h.Store.GetMap(r.Context(), r.PathValue("mapID"))
	if err != nil {
		h.respondStoreError(w, r, err, "Map not found")
		return
	}
	clouds, err := h.Store.ListWordClouds(r.Context(), m.ID, user.ID)
	if err != nil {
		h.respondStoreError(w, r, err, "Map not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, clouds)
}

// DELETE /api/wordclouds/{wordCloudID}
func (h *DBHandler) DeleteWordCloud(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	wc, err := h.Store.GetWordCloud(r.Context(), r.PathValue("wordCloudID"))
	if err != nil {
		h.respondStoreError(w, r, err, "Word cloud not found")
		return
	}
	if wc.AuthorID != user.ID {
		utils.RespondError(w, http.StatusForbidden, "Only the author can delete this word cloud")
		return
	}
	if err := h.Store.DeleteWordCloud(r.Context(), wc); err != nil {
		h.respondStoreError(w, r, err, "Word cloud not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"msg": "Word cloud removed"})
}
