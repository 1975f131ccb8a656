package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrewpaige1/mindflow-api/models"
)

// MapSummary is a map as listed on the dashboard.
type MapSummary struct {
	models.Map
	FlashcardCount int64       `json:"flashcardCount"`
	Role           models.Role `json:"role,omitempty"`
}

// CreateMap assigns a public id and inserts m.
func (s *Store) CreateMap(ctx context.Context, m *models.Map) error {
	publicID, err := newPublicID()
	if err != nil {
		return err
	}
	m.PublicID = publicID
	if m.Nodes == nil {
		m.Nodes = []models.Node{}
	}
	if m.Connections == nil {
		m.Connections = []models.Connection{}
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("create map: %w", err)
	}
	return nil
}

func (s *Store) GetMap(ctx context.Context, publicID string) (*models.Map, error) {
	var m models.Map
	if err := s.db.WithContext(ctx).Preload("Owner").Where("public_id = ?", publicID).First(&m).Error; err != nil {
		return nil, notFound(err, "map")
	}
	return &m, nil
}

// SaveMap overwrites the editable document of m: title, nodes, connections
// and display attributes.
func (s *Store) SaveMap(ctx context.Context, m *models.Map) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(m).Select("Title", "Nodes", "Connections", "LineThickness", "BorderStyle").Updates(m)
		if res.Error != nil {
			return fmt.Errorf("save map: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("map: %w", ErrNotFound)
		}
		return nil
	})
}

// SaveNodes writes only the node array of m.
func (s *Store) SaveNodes(ctx context.Context, m *models.Map) error {
	return s.saveColumn(ctx, m, "Nodes")
}

// SaveConnections writes only the connection array of m.
func (s *Store) SaveConnections(ctx context.Context, m *models.Map) error {
	return s.saveColumn(ctx, m, "Connections")
}

func (s *Store) saveColumn(ctx context.Context, m *models.Map, field string) error {
	res := s.db.WithContext(ctx).Model(m).Select(field).Updates(m)
	if res.Error != nil {
		return fmt.Errorf("save map %s: %w", field, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("map: %w", ErrNotFound)
	}
	return nil
}

// DeleteMap removes m together with its permissions, flashcards and word clouds.
func (s *Store) DeleteMap(ctx context.Context, m *models.Map) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("map_id = ?", m.ID).Delete(&models.Flashcard{}).Error; err != nil {
			return fmt.Errorf("delete flashcards: %w", err)
		}
		if err := tx.Where("map_id = ?", m.ID).Delete(&models.WordCloud{}).Error; err != nil {
			return fmt.Errorf("delete word clouds: %w", err)
		}
		if err := tx.Where("map_id = ?", m.ID).Delete(&models.Permission{}).Error; err != nil {
			return fmt.Errorf("delete permissions: %w", err)
		}
		if err := tx.Delete(&models.Map{}, m.ID).Error; err != nil {
			return fmt.Errorf("delete map: %w", err)
		}
		return nil
	})
}

// ListOwnedMaps returns the maps owned by userID, most recently updated first.
func (s *Store) ListOwnedMaps(ctx context.Context, userID uint) ([]MapSummary, error) {
	var maps []models.Map
	err := s.db.WithContext(ctx).Preload("Owner").
		Where("owner_id = ?", userID).
		Order("updated_at desc").
		Find(&maps).Error
	if err != nil {
		return nil, fmt.Errorf("list maps: %w", err)
	}
	return s.summarize(ctx, maps, nil)
}

// ListSharedMaps returns the maps userID was invited to, with the granted role.
func (s *Store) ListSharedMaps(ctx context.Context, userID uint) ([]MapSummary, error) {
	var maps []models.Map
	err := s.db.WithContext(ctx).Preload("Owner").
		Joins("JOIN permissions ON permissions.map_id = maps.id AND permissions.user_id = ?", userID).
		Order("maps.updated_at desc").
		Find(&maps).Error
	if err != nil {
		return nil, fmt.Errorf("list shared maps: %w", err)
	}

	var perms []models.Permission
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&perms).Error; err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	roles := make(map[uint]models.Role, len(perms))
	for _, p := range perms {
		roles[p.MapID] = p.Role
	}
	return s.summarize(ctx, maps, roles)
}

func (s *Store) summarize(ctx context.Context, maps []models.Map, roles map[uint]models.Role) ([]MapSummary, error) {
	ids := make([]uint, len(maps))
	for i := range maps {
		ids[i] = maps[i].ID
	}
	counts, err := s.FlashcardCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]MapSummary, len(maps))
	for i := range maps {
		out[i] = MapSummary{Map: maps[i], FlashcardCount: counts[maps[i].ID], Role: roles[maps[i].ID]}
	}
	return out, nil
}

// FlashcardCounts returns the number of flashcards per map id. Maps without
// flashcards are absent from the result.
func (s *Store) FlashcardCounts(ctx context.Context, mapIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(mapIDs))
	if len(mapIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		MapID uint
		Count int64
	}
	err := s.db.WithContext(ctx).Model(&models.Flashcard{}).
		Select("map_id, count(*) as count").
		Where("map_id IN ?", mapIDs).
		Group("map_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count flashcards: %w", err)
	}
	for _, r := range rows {
		counts[r.MapID] = r.Count
	}
	return counts, nil
}

// ShareMap marks m public, creating its share id on first use.
func (s *Store) ShareMap(ctx context.Context, m *models.Map) (string, error) {
	if m.ShareID == nil {
		id, err := newPublicID()
		if err != nil {
			return "", err
		}
		m.ShareID = &id
	}
	m.IsPublic = true
	if err := s.db.WithContext(ctx).Model(m).Select("IsPublic", "ShareID").Updates(m).Error; err != nil {
		return "", fmt.Errorf("share map: %w", err)
	}
	return *m.ShareID, nil
}

// UnshareMap turns public access off. The share id is kept so re-sharing
// restores the same link.
func (s *Store) UnshareMap(ctx context.Context, m *models.Map) error {
	m.IsPublic = false
	if err := s.db.WithContext(ctx).Model(m).Select("IsPublic").Updates(m).Error; err != nil {
		return fmt.Errorf("unshare map: %w", err)
	}
	return nil
}

// GetPublicMap looks a map up by share id. Maps whose public access was
// turned off are reported as not found.
func (s *Store) GetPublicMap(ctx context.Context, shareID string) (*models.Map, error) {
	var m models.Map
	err := s.db.WithContext(ctx).Preload("Owner").
		Where("share_id = ? AND is_public = ?", shareID, true).
		First(&m).Error
	if err != nil {
		return nil, notFound(err, "public map")
	}
	return &m, nil
}
