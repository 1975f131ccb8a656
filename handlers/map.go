package handlers

import (
	"net/http"

	"github.com/andrewpaige1/mindflow-api/access"
	"github.com/andrewpaige1/mindflow-api/mindmap"
	"github.com/andrewpaige1/mindflow-api/models"
	"github.com/andrewpaige1/mindflow-api/store"
	"github.com/andrewpaige1/mindflow-api/utils"
)

// mapRequest is the full editable document of a map.
type mapRequest struct {
	Title         string              `json:"title" validate:"required,max=200"`
	Nodes         []models.Node       `json:"nodes" validate:"dive"`
	Connections   []models.Connection `json:"connections" validate:"dive"`
	LineThickness *int                `json:"lineThickness" validate:"omitempty,min=1,max=20"`
	BorderStyle   *string             `json:"borderStyle" validate:"omitempty,max=20"`
}

func (req *mapRequest) apply(m *models.Map) {
	m.Title = req.Title
	m.Nodes = mindmap.StripTransient(req.Nodes)
	m.Connections = req.Connections
	if m.Nodes == nil {
		m.Nodes = []models.Node{}
	}
	if m.Connections == nil {
		m.Connections = []models.Connection{}
	}
	if req.LineThickness != nil {
		m.LineThickness = *req.LineThickness
	}
	if req.BorderStyle != nil {
		m.BorderStyle = *req.BorderStyle
	}
}

// GET /api/maps
func (h *DBHandler) GetMapsForUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	maps, err := h.Store.ListOwnedMaps(r.Context(), user.ID)
	if err != nil {
		h.respondStoreError(w, r, err, "Maps not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, maps)
}

// GET /api/maps/shared-with-me
func (h *DBHandler) GetSharedMaps(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	maps, err := h.Store.ListSharedMaps(r.Context(), user.ID)
	if err != nil {
		h.respondStoreError(w, r, err, "Maps not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, maps)
}

// POST /api/maps
func (h *DBHandler) CreateMap(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req mapRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	m := models.Map{OwnerID: user.ID, LineThickness: 2, BorderStyle: "solid"}
	req.apply(&m)
	if err := h.Store.CreateMap(r.Context(), &m); err != nil {
		h.respondStoreError(w, r, err, "Map not found")
		return
	}
	m.Owner = *user

	utils.RespondJSON(w, http.StatusCreated, store.MapSummary{Map: m})
}

// GET /api/maps/{mapID}
func (h *DBHandler) GetMapByID(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	m, _, ok := h.authorizedMap(w, r, r.PathValue("mapID"), user, access.ActionView)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, m)
}

// PUT /api/maps/{mapID}
//
// Overwrites the whole document. Contributors may edit nodes over the socket
// but not save the full document, which also carries connections and title.
func (h *DBHandler) UpdateMapByID(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	m, _, ok := h.authorizedMap(w, r, r.PathValue("mapID"), user, access.ActionEditMeta)
	if !ok {
		return
	}
	var req mapRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.apply(m)
	if err := h.Store.SaveMap(r.Context(), m); err != nil {
		h.respondStoreError(w, r, err, "Map not found")
		return
	}
	saved, err := h.Store.GetMap(r.Context(), m.PublicID)
	if err != nil {
		h.respondStoreError(w, r, err, "Map not found")
		return
	}
	counts, err := h.Store.FlashcardCounts(r.Context(), []uint{saved.ID})
	if err != nil {
		h.respondStoreError(w, r, err, "Map not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, store.MapSummary{Map: *saved, FlashcardCount: counts[saved.ID]})
}

// DELETE /api/maps/{mapID}
func (h *DBHandler) DeleteMapByID(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	m, _, ok := h.authorizedMap(w, r, r.PathValue("mapID"), user, access.ActionManageSharing)
	if !ok {
		return
	}
	if err := h.Store.DeleteMap(r.Context(), m); err != nil {
		h.respondStoreError(w, r, err, "Map not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"msg": "Map removed"})
}

// GET /api/maps/{mapID}/access
func (h *DBHandler) GetMapAccess(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	level, err := h.Access.Resolve(r.Context(), r.PathValue("mapID"), user.ID)
	if err != nil {
		h.respondStoreError(w, r, err, "Map not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"level":    level,
		"canEdit":  access.Can(level, access.ActionEditNodes),
		"readOnly": !access.Can(level, access.ActionEditNodes),
	})
}
