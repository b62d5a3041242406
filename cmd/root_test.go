package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatterm/internal/app/db"
	"chatterm/internal/app/session"
	"chatterm/internal/app/user"
	"chatterm/internal/configs"
	"chatterm/internal/pkg/auth/jwt"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "API_BASE_URL", "PUSH_URL", "CHATTERM_DATA_DIR", "TYPING_IDLE_MS", "CHATTERM_CONFIG"} {
		t.Setenv(key, "")
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func saveSession(t *testing.T, dir string, ttl time.Duration) {
	t.Helper()
	sqlDB, err := db.Open(filepath.Join(dir, configs.SessionDBName))
	require.NoError(t, err)
	defer sqlDB.Close()

	u := user.User{ID: 7, Username: "ayse", Email: "ayse@example.com"}
	token, err := jwt.GenerateToken(&jwt.Payload{UserID: u.ID, Username: u.Username}, "test-secret", ttl)
	require.NoError(t, err)
	require.NoError(t, session.NewStore(sqlDB).Save(context.Background(), session.Session{User: u, Token: token}))
}

func TestWhoamiWithoutSession(t *testing.T) {
	clearEnv(t)
	out, err := execute(t, "whoami", "--data-dir", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "Not signed in.\n", out)
}

func TestWhoamiAndLogout(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	saveSession(t, dir, time.Hour)

	out, err := execute(t, "whoami", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "ayse <ayse@example.com> (id 7)")
	assert.Contains(t, out, "Session expires")

	out, err = execute(t, "logout", "--data-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "Signed out.\n", out)

	out, err = execute(t, "whoami", "--data-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "Not signed in.\n", out)
}

func TestWhoamiDropsExpiredSession(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	saveSession(t, dir, -time.Minute)

	out, err := execute(t, "whoami", "--data-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "Not signed in.\n", out)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_BASE_URL", "http://env.example.com/api")
	t.Setenv("CHATTERM_DATA_DIR", t.TempDir())

	cfg, err := loadConfig(&options{api: "https://flag.example.com/api", env: "development"})
	require.NoError(t, err)
	assert.Equal(t, "https://flag.example.com/api", cfg.APIBaseURL)
	assert.True(t, cfg.IsDevelopment())
}

func TestInvalidFlagIsRejected(t *testing.T) {
	clearEnv(t)
	_, err := execute(t, "whoami", "--data-dir", t.TempDir(), "--push", "http://not-a-websocket")
	assert.Error(t, err)
}
