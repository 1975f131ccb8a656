package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/andrewpaige1/mindflow-api/logging"
	"github.com/andrewpaige1/mindflow-api/models"
)

// SyncUser makes sure a user row exists for subject, refreshing email and
// username when the token carries newer non-empty values.
func (s *Store) SyncUser(ctx context.Context, subject, email, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("subject = ?", subject).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{Subject: subject, Email: normalizeEmail(email), Username: username}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		logging.Info().Str("username", user.Username).Msg("created new user")
		return &user, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	updated := false
	if email = normalizeEmail(email); email != "" && user.Email != email {
		user.Email = email
		updated = true
	}
	if username != "" && user.Username != username {
		user.Username = username
		updated = true
	}
	if updated {
		if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}
	return &user, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
