package handlers

import (
	"errors"
	"net/http"

	"github.com/andrewpaige1/mindflow-api/access"
	"github.com/andrewpaige1/mindflow-api/models"
	"github.com/andrewpaige1/mindflow-api/store"
	"github.com/andrewpaige1/mindflow-api/utils"
)

type inviteRequest struct {
	MapID string      `json:"mapId" validate:"required"`
	Email string      `json:"email" validate:"required,email"`
	Role  models.Role `json:"role"`
}

type roleRequest struct {
	Role models.Role `json:"role"`
}

// POST /api/permissions
func (h *DBHandler) InviteCollaborator(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req inviteRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Role.Valid() {
		utils.RespondError(w, http.StatusBadRequest, "Invalid permission role")
		return
	}

	m, err := h.Store.GetMap(r.Context(), req.MapID)
	if err != nil {
		h.respondStoreError(w, r, err, "Map not found")
		return
	}
	if m.OwnerID != user.ID {
		utils.RespondError(w, http.StatusForbidden, "Only the map owner can invite collaborators")
		return
	}

	invitee, err := h.Store.UserByEmail(r.Context(), req.Email)
	if err != nil {
		h.respondStoreError(w, r, err, "No user found with email: "+req.Email)
		return
	}
	if invitee.ID == user.ID {
		utils.RespondError(w, http.StatusBadRequest, "You cannot invite yourself")
		return
	}

	p := models.Permission{MapID: m.ID, UserID: invitee.ID, GrantedByID: user.ID, Role: req.Role}
	if err := h.Store.CreatePermission(r.Context(), &p); err != nil {
		h.respondStoreError(w, r, err, "Map not found")
		return
	}
	p.User = *invitee

	utils.RespondJSON(w, http.StatusCreated, p)
}

// GET /api/permissions/{mapID}
func (h *DBHandler) GetPermissionsForMap(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	m, _, ok := h.authorizedMap(w, r, r.PathValue("mapID"), user, access.ActionView)
	if !ok {
		return
	}
	perms, err := h.Store.ListPermissions(r.Context(), m.ID)
	if err != nil {
		h.respondStoreError(w, r, err, "Map not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, perms)
}

// PUT /api/permissions/{permissionID}
func (h *DBHandler) UpdatePermissionRole(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req roleRequest
	if err := utils.DecodeJSON(r, &req); err != nil || !req.Role.Valid() {
		utils.RespondError(w, http.StatusBadRequest, "Invalid permission role")
		return
	}

	p, ok := h.ownedPermission(w, r, user, "Only the map owner can change permissions")
	if !ok {
		return
	}
	if err := h.Store.UpdatePermissionRole(r.Context(), p, req.Role); err != nil {
		h.respondStoreError(w, r, err, "Permission not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}

// DELETE /api/permissions/{permissionID}
func (h *DBHandler) RevokePermission(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	p, ok := h.ownedPermission(w, r, user, "Only the map owner can remove collaborators")
	if !ok {
		return
	}
	if err := h.Store.DeletePermission(r.Context(), p); err != nil {
		h.respondStoreError(w, r, err, "Permission not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"msg": "Collaborator removed"})
}

// ownedPermission loads the permission named in the path and checks that
// user owns its map.
func (h *DBHandler) ownedPermission(w http.ResponseWriter, r *http.Request, user *models.User, forbiddenMsg string) (*models.Permission, bool) {
	p, err := h.Store.GetPermission(r.Context(), r.PathValue("permissionID"))
	if errors.Is(err, store.ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, "Permission not found")
		return nil, false
	}
	if err != nil {
		h.respondStoreError(w, r, err, "Permission not found")
		return nil, false
	}
	if p.Map.OwnerID != user.ID {
		utils.RespondError(w, http.StatusForbidden, forbiddenMsg)
		return nil, false
	}
	return p, true
}
