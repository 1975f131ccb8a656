package store

import (
	"context"
	"fmt"

	"github.com/andrewpaige1/mindflow-api/models"
)

func (s *Store) CreateFlashcard(ctx context.Context, f *models.Flashcard) error {
	publicID, err := newPublicID()
	if err != nil {
		return err
	}
	f.PublicID = publicID
	if err := s.db.WithContext(ctx).Create(f).Error; err != nil {
		return fmt.Errorf("create flashcard: %w", err)
	}
	return nil
}

func (s *Store) GetFlashcard(ctx context.Context, publicID string) (*models.Flashcard, error) {
	var f models.Flashcard
	if err := s.db.WithContext(ctx).Where("public_id = ?", publicID).First(&f).Error; err != nil {
		return nil, notFound(err, "flashcard")
	}
	return &f, nil
}

// ListFlashcards returns the flashcards of a map, newest first.
func (s *Store) ListFlashcards(ctx context.Context, mapID uint) ([]models.Flashcard, error) {
	var cards []models.Flashcard
	if err := s.db.WithContext(ctx).Where("map_id = ?", mapID).Order("created_at desc").Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("list flashcards: %w", err)
	}
	return cards, nil
}

func (s *Store) DeleteFlashcard(ctx context.Context, f *models.Flashcard) error {
	if err := s.db.WithContext(ctx).Delete(&models.Flashcard{}, f.ID).Error; err != nil {
		return fmt.Errorf("delete flashcard: %w", err)
	}
	return nil
}
