// Package storetest opens throwaway sqlite-backed stores for tests.
package storetest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/andrewpaige1/mindflow-api/config"
	"github.com/andrewpaige1/mindflow-api/models"
	"github.com/andrewpaige1/mindflow-api/store"
)

// Open returns a migrated store on a private in-memory database.
func Open(t testing.TB) *store.Store {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps the in-memory database alive and avoids
	// shared-cache table locks between concurrent writers.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db))

	return store.New(db)
}

// User creates a user whose subject, email and username derive from name.
func User(t testing.TB, s *store.Store, name string) *models.User {
	t.Helper()
	u, err := s.SyncUser(context.Background(), "auth|"+name, name+"@example.com", name)
	require.NoError(t, err)
	return u
}

// Map creates a map owned by owner with the given nodes and connections.
func Map(t testing.TB, s *store.Store, owner *models.User, title string, nodes []models.Node, conns []models.Connection) *models.Map {
	t.Helper()
	m := &models.Map{OwnerID: owner.ID, Title: title, Nodes: nodes, Connections: conns}
	require.NoError(t, s.CreateMap(context.Background(), m))
	return m
}

// Grant gives user role on m.
func Grant(t testing.TB, s *store.Store, m *models.Map, user *models.User, role models.Role) *models.Permission {
	t.Helper()
	p := &models.Permission{MapID: m.ID, UserID: user.ID, GrantedByID: m.OwnerID, Role: role}
	require.NoError(t, s.CreatePermission(context.Background(), p))
	return p
}
