package store

import (
	"context"
	"fmt"

	"github.com/andrewpaige1/mindflow-api/models"
)

func (s *Store) CreateWordCloud(ctx context.Context, wc *models.WordCloud) error {
	publicID, err := newPublicID()
	if err != nil {
		return err
	}
	wc.PublicID = publicID
	if wc.Words == nil {
		wc.Words = []models.Word{}
	}
	if err := s.db.WithContext(ctx).Create(wc).Error; err != nil {
		return fmt.Errorf("create word cloud: %w", err)
	}
	return nil
}

func (s *Store) GetWordCloud(ctx context.Context, publicID string) (*models.WordCloud, error) {
	var wc models.WordCloud
	if err := s.db.WithContext(ctx).Where("public_id = ?", publicID).First(&wc).Error; err != nil {
		return nil, notFound(err, "word cloud")
	}
	return &wc, nil
}

// ListWordClouds returns the word clouds authorID made for a map, newest first.
func (s *Store) ListWordClouds(ctx context.Context, mapID, authorID uint) ([]models.WordCloud, error) {
	var clouds []models.WordCloud
	err := s.db.WithContext(ctx).
		Where("map_id = ? AND author_id = ?", mapID, authorID).
		Order("created_at desc").
		Find(&clouds).Error
	if err != nil {
		return nil, fmt.Errorf("list word clouds: %w", err)
	}
	return clouds, nil
}

func (s *Store) DeleteWordCloud(ctx context.Context, wc *models.WordCloud) error {
	if err := s.db.WithContext(ctx).Delete(&models.WordCloud{}, wc.ID).Error; err != nil {
		return fmt.Errorf("delete word cloud: %w", err)
	}
	return nil
}
