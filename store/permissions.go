package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrewpaige1/mindflow-api/models"
)

// FindPermission returns the grant of userID on the map with internal id
// mapID, or ErrNotFound.
func (s *Store) FindPermission(ctx context.Context, mapID, userID uint) (*models.Permission, error) {
	var p models.Permission
	err := s.db.WithContext(ctx).Where("map_id = ? AND user_id = ?", mapID, userID).First(&p).Error
	if err != nil {
		return nil, notFound(err, "permission")
	}
	return &p, nil
}

// GetPermission loads a permission by public id with its user and map.
func (s *Store) GetPermission(ctx context.Context, publicID string) (*models.Permission, error) {
	var p models.Permission
	err := s.db.WithContext(ctx).Preload("User").Preload("Map").Where("public_id = ?", publicID).First(&p).Error
	if err != nil {
		return nil, notFound(err, "permission")
	}
	return &p, nil
}

// ListPermissions returns the collaborators of a map in invitation order.
func (s *Store) ListPermissions(ctx context.Context, mapID uint) ([]models.Permission, error) {
	var perms []models.Permission
	err := s.db.WithContext(ctx).Preload("User").Where("map_id = ?", mapID).Order("created_at asc").Find(&perms).Error
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return perms, nil
}

// CreatePermission inserts p. An existing grant for the same map and user
// yields ErrConflict.
func (s *Store) CreatePermission(ctx context.Context, p *models.Permission) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Permission
		err := tx.Where("map_id = ? AND user_id = ?", p.MapID, p.UserID).First(&existing).Error
		if err == nil {
			return fmt.Errorf("permission: %w", ErrConflict)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load permission: %w", err)
		}

		publicID, err := newPublicID()
		if err != nil {
			return err
		}
		p.PublicID = publicID
		if err := tx.Omit("User", "Map").Create(p).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("permission: %w", ErrConflict)
			}
			return fmt.Errorf("create permission: %w", err)
		}
		return nil
	})
}

func (s *Store) UpdatePermissionRole(ctx context.Context, p *models.Permission, role models.Role) error {
	p.Role = role
	if err := s.db.WithContext(ctx).Model(p).Select("Role").Updates(p).Error; err != nil {
		return fmt.Errorf("update permission: %w", err)
	}
	return nil
}

func (s *Store) DeletePermission(ctx context.Context, p *models.Permission) error {
	if err := s.db.WithContext(ctx).Delete(&models.Permission{}, p.ID).Error; err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}
	return nil
}
