package handlers

import (
	"net/http"

	"github.com/andrewpaige1/mindflow-api/access"
	"github.com/andrewpaige1/mindflow-api/utils"
)

// POST /api/maps/{mapID}/share
func (h *DBHandler) ShareMap(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	m, _, ok := h.authorizedMap(w, r, r.PathValue("mapID"), user, access.ActionManageSharing)
	if !ok {
		return
	}
	shareID, err := h.Store.ShareMap(r.Context(), m)
	if err != nil {
		h.respondStoreError(w, r, err, "Map not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"shareId": shareID})
}

// DELETE /api/maps/{mapID}/share
func (h *DBHandler) UnshareMap(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	m, _, ok := h.authorizedMap(w, r, r.PathValue("mapID"), user, access.ActionManageSharing)
	if !ok {
		return
	}
	if err := h.Store.UnshareMap(r.Context(), m); err != nil {
		h.respondStoreError(w, r, err, "Map not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"msg": "Public access revoked"})
}

// GET /api/public/maps/{shareID}
func (h *DBHandler) GetPublicMap(w http.ResponseWriter, r *http.Request) {
	m, err := h.Store.GetPublicMap(r.Context(), r.PathValue("shareID"))
	if err != nil {
		h.respondStoreError(w, r, err, "Shared map not found or access was revoked")
		return
	}
	utils.RespondJSON(w, http.StatusOK, m)
}
