package service

import (
	"path/filepath"
	"testing"

	"github.com/filedock/filedock/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.InitDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB(db) })
	return db
}

func newTestFileService(t *testing.T) *FileService {
	t.Helper()
	s, err := NewFileService(t.TempDir())
	require.NoError(t, err)
	return s
}
