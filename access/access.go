// Package access derives a user's effective level on a map and decides which
// write classes that level allows.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/andrewpaige1/mindflow-api/models"
	"github.com/andrewpaige1/mindflow-api/store"
)

var ErrForbidden = errors.New("forbidden")

type Level string

const (
	LevelNone        Level = "none"
	LevelViewer      Level = "viewer"
	LevelContributor Level = "contributor"
	LevelEditor      Level = "editor"
	LevelOwner       Level = "owner"
)

type Action string

const (
	ActionView            Action = "view"
	ActionEditNodes       Action = "edit_nodes"
	ActionEditConnections Action = "edit_connections"
	ActionEditMeta        Action = "edit_meta"
	ActionManageSharing   Action = "manage_sharing"
)

// Can reports whether level allows action.
func Can(level Level, action Action) bool {
	switch level {
	case LevelOwner:
		return true
	case LevelEditor:
		return action != ActionManageSharing
	case LevelContributor:
		return action == ActionView || action == ActionEditNodes
	case LevelViewer:
		return action == ActionView
	default:
		return false
	}
}

// FromRole maps a stored grant onto a level.
func FromRole(role models.Role) Level {
	switch role {
	case models.RoleEditor:
		return LevelEditor
	case models.RoleContributor:
		return LevelContributor
	case models.RoleViewer:
		return LevelViewer
	default:
		return LevelNone
	}
}

// Store is the subset of the map store the resolver reads.
type Store interface {
	GetMap(ctx context.Context, publicID string) (*models.Map, error)
	FindPermission(ctx context.Context, mapID, userID uint) (*models.Permission, error)
}

// Resolver computes effective levels from ownership and permission rows.
// Nothing is cached; every call reads the store.
type Resolver struct {
	store Store
}

func NewResolver(s Store) *Resolver {
	return &Resolver{store: s}
}

// Resolve returns the level of userID on the map with public id mapID.
// A missing map yields store.ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, mapID string, userID uint) (Level, error) {
	m, err := r.store.GetMap(ctx, mapID)
	if err != nil {
		return LevelNone, err
	}
	return r.ResolveMap(ctx, m, userID)
}

// ResolveMap is Resolve for an already loaded map.
func (r *Resolver) ResolveMap(ctx context.Context, m *models.Map, userID uint) (Level, error) {
	if m.OwnerID == userID {
		return LevelOwner, nil
	}
	p, err := r.store.FindPermission(ctx, m.ID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return LevelNone, nil
	}
	if err != nil {
		return LevelNone, fmt.Errorf("resolve access: %w", err)
	}
	return FromRole(p.Role), nil
}

// Require resolves the level of userID on m and fails with ErrForbidden when
// it does not allow action.
func (r *Resolver) Require(ctx context.Context, m *models.Map, userID uint, action Action) (Level, error) {
	level, err := r.ResolveMap(ctx, m, userID)
	if err != nil {
		return LevelNone, err
	}
	if !Can(level, action) {
		return level, fmt.Errorf("%s on map %s: %w", action, m.PublicID, ErrForbidden)
	}
	return level, nil
}
