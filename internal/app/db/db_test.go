package db

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAppliesMigrations(t *testing.T) {
	sqlDB, err := Open(MemoryDSN)
	require.NoError(t, err)
	defer sqlDB.Close()

	var name string
	err = sqlDB.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'session'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "session", name)
}

func TestOpenIsIdempotentOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.db")

	first, err := Open(path)
	require.NoError(t, err)
	_, err = first.Exec(`INSERT INTO session (slot, user_id, username, token, created_at) VALUES (1, 9, 'ayse', 't', 0)`)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	var username string
	require.NoError(t, second.QueryRow(`SELECT username FROM session WHERE slot = 1`).Scan(&username))
	assert.Equal(t, "ayse", username)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(sql.ErrNoRows))
	assert.True(t, IsNotFound(fmt.Errorf("load: %w", sql.ErrNoRows)))
	assert.False(t, IsNotFound(nil))
}
