// Package dbtest opens throwaway SQLite databases with the production schema.
package dbtest

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fatflowers/caterpay/internal/models"
	"github.com/fatflowers/caterpay/internal/platform/db"
	gormzap "github.com/fatflowers/caterpay/pkg/gormlog"
)

// Open returns an isolated in-memory database migrated with every model.
// It uses a single connection, so statements from concurrent callers are serialized.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return open(t, fmt.Sprintf("file:%s?mode=memory&cache=shared", name), 1)
}

// OpenFile returns a file-backed database with several connections, for tests
// where concurrent callers must really interleave.
func OpenFile(t testing.TB) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	return open(t, fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate", path), 4)
}

func open(t testing.TB, dsn string, conns int) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormzap.New(zaptest.NewLogger(t).Sugar()),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(conns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(db.Models()...))
	return gdb
}

// SeedUser inserts a user row for checkout tests.
func SeedUser(t testing.TB, gdb *gorm.DB, id string) *models.User {
	t.Helper()
	u := &models.User{ID: id, Email: id + "@example.com", Name: id}
	require.NoError(t, gdb.Create(u).Error)
	return u
}
