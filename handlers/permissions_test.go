package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewpaige1/mindflow-api/models"
	"github.com/andrewpaige1/mindflow-api/store"
	"github.com/andrewpaige1/mindflow-api/store/storetest"
)

func TestInviteCollaborator(t *testing.T) {
	h, s := newHandler(t)
	alice := storetest.User(t, s, "alice")
	bob := storetest.User(t, s, "bob")
	carol := storetest.User(t, s, "carol")
	m := storetest.Map(t, s, alice, "M", nil, nil)

	invite := func(as *models.User, mapID, email, role string) (int, string) {
		rec := call(t, h.InviteCollaborator, http.MethodPost, "/api/permissions",
			map[string]string{"mapId": mapID, "email": email, "role": role}, as)
		if rec.Code == http.StatusCreated {
			return rec.Code, ""
		}
		return rec.Code, message(t, rec)
	}

	code, msg := invite(alice, m.PublicID, "bob@example.com", "owner")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid permission role", msg)

	code, _ = invite(alice, "missing", "bob@example.com", "editor")
	assert.Equal(t, http.StatusNotFound, code)

	code, msg = invite(carol, m.PublicID, "bob@example.com", "editor")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Only the map owner can invite collaborators", msg)

	code, msg = invite(alice, m.PublicID, "nobody@example.com", "editor")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "No user found with email: nobody@example.com", msg)

	code, msg = invite(alice, m.PublicID, "alice@example.com", "editor")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "You cannot invite yourself", msg)

	code, _ = invite(alice, m.PublicID, "BOB@example.com", "editor")
	assert.Equal(t, http.StatusCreated, code)

	code, msg = invite(alice, m.PublicID, "bob@example.com", "viewer")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "This user has already been invited", msg)

	p, err := s.FindPermission(context.Background(), m.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, p.Role)
}

func TestListPermissions(t *testing.T) {
	h, s := newHandler(t)
	alice := storetest.User(t, s, "alice")
	bob := storetest.User(t, s, "bob")
	carol := storetest.User(t, s, "carol")
	m := storetest.Map(t, s, alice, "M", nil, nil)
	storetest.Grant(t, s, m, bob, models.RoleViewer)

	rec := call(t, h.GetPermissionsForMap, http.MethodGet, "/", nil, bob, "mapID", m.PublicID)
	require.Equal(t, http.StatusOK, rec.Code)
	perms := decode[[]map[string]any](t, rec)
	require.Len(t, perms, 1)
	assert.Equal(t, "viewer", perms[0]["role"])
	assert.Equal(t, "bob@example.com", perms[0]["user"].(map[string]any)["email"])

	rec = call(t, h.GetPermissionsForMap, http.MethodGet, "/", nil, carol, "mapID", m.PublicID)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateAndRevokePermission(t *testing.T) {
	h, s := newHandler(t)
	alice := storetest.User(t, s, "alice")
	bob := storetest.User(t, s, "bob")
	m := storetest.Map(t, s, alice, "M", nil, nil)
	p := storetest.Grant(t, s, m, bob, models.RoleViewer)

	rec := call(t, h.UpdatePermissionRole, http.MethodPut, "/", map[string]string{"role": "owner"}, alice, "permissionID", p.PublicID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h.UpdatePermissionRole, http.MethodPut, "/", map[string]string{"role": "editor"}, bob, "permissionID", p.PublicID)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, h.UpdatePermissionRole, http.MethodPut, "/", map[string]string{"role": "editor"}, alice, "permissionID", "missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(t, h.UpdatePermissionRole, http.MethodPut, "/", map[string]string{"role": "editor"}, alice, "permissionID", p.PublicID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "editor", decode[map[string]any](t, rec)["role"])

	rec = call(t, h.RevokePermission, http.MethodDelete, "/", nil, bob, "permissionID", p.PublicID)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, h.RevokePermission, http.MethodDelete, "/", nil, alice, "permissionID", p.PublicID)
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := s.FindPermission(context.Background(), m.ID, bob.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
