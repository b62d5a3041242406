package session

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatterm/internal/app/db"
	"chatterm/internal/app/user"
	"chatterm/internal/pkg/auth/jwt"
	"chatterm/internal/pkg/errs"
)

type fakeAuth struct {
	sess  Session
	err   error
	calls int
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (Session, error) {
	f.calls++
	return f.sess, f.err
}

func (f *fakeAuth) Register(ctx context.Context, username, email, password string) (Session, error) {
	f.calls++
	return f.sess, f.err
}

func newStore(t *testing.T) *Store {
	t.Helper()
	sqlDB, err := db.Open(db.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewStore(sqlDB)
}

func signedSession(t *testing.T, ttl time.Duration) Session {
	t.Helper()
	token, err := jwt.GenerateToken(&jwt.Payload{UserID: 9}, "secret", ttl)
	require.NoError(t, err)
	return Session{User: user.User{ID: 9, Username: "ayse", Email: "ayse@example.com"}, Token: token}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := store.Load(ctx)
	assert.True(t, errs.Is(err, errs.ErrNotLoggedIn))

	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	sess := Session{User: user.User{ID: 1, Username: "mert"}, Token: "t1"}
	require.NoError(t, store.Save(ctx, sess))
	require.NoError(t, store.Save(ctx, Session{User: user.User{ID: 2, Username: "zeynep"}, Token: "t2"}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), loaded.User.ID)

	token, err = store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t2", token)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	assert.Error(t, err)
}

func TestLoginPersistsAndNotifies(t *testing.T) {
	ctx := context.Background()
	sess := signedSession(t, time.Hour)
	auth := &fakeAuth{sess: sess}
	m := NewManager(newStore(t), auth)

	var changes []Change
	m.Watch(func(c Change) { changes = append(changes, c) })

	got, err := m.Login(ctx, " ayse@example.com ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	current, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "ayse", current.User.Username)

	token, err := m.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, sess.Token, token)

	require.Len(t, changes, 1)
	assert.Equal(t, Created, changes[0].Kind)
}

func TestLoginValidation(t *testing.T) {
	auth := &fakeAuth{}
	m := NewManager(newStore(t), auth)

	_, err := m.Login(context.Background(), "not-an-email", "pw")
	assert.True(t, errs.Is(err, errs.ErrInvalidEmail))

	_, err = m.Login(context.Background(), "a@b.co", "")
	assert.True(t, errs.Is(err, errs.ErrInvalidPassword))

	assert.Equal(t, 0, auth.calls, "invalid forms never reach the backend")
	assert.Equal(t, errs.KindValidation, errs.As(err).Kind)
}

func TestLoginUnauthorizedBecomesInvalidCredentials(t *testing.T) {
	body := []byte(`{"message":"Wrong password"}`)
	auth := &fakeAuth{err: errs.NewError(errs.ErrUnauthorized).WithResponse(http.StatusUnauthorized, body, "Wrong password")}
	m := NewManager(newStore(t), auth)

	_, err := m.Login(context.Background(), "ayse@example.com", "nope")
	ce := errs.As(err)
	assert.Equal(t, errs.ErrInvalidCredentials, ce.Code)
	assert.Equal(t, "Wrong password", ce.Message)
	assert.Equal(t, body, ce.Body)

	_, ok := m.Current()
	assert.False(t, ok)
}

func TestRegisterValidation(t *testing.T) {
	m := NewManager(newStore(t), &fakeAuth{sess: signedSession(t, time.Hour)})
	ctx := context.Background()

	_, err := m.Register(ctx, "a", "ayse@example.com", "hunter22")
	assert.True(t, errs.Is(err, errs.ErrInvalidUsername))

	_, err = m.Register(ctx, "ayse", "ayse@example.com", "short")
	assert.True(t, errs.Is(err, errs.ErrInvalidPassword))

	_, err = m.Register(ctx, "ayse", "ayse@example.com", "hunter22")
	assert.NoError(t, err)
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	m := NewManager(store, &fakeAuth{})
	_, err := m.Restore(ctx)
	assert.True(t, errs.Is(err, errs.ErrNotLoggedIn))

	valid := signedSession(t, time.Hour)
	require.NoError(t, store.Save(ctx, valid))

	restored, err := m.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, valid.Token, restored.Token)
}

func TestRestoreDropsExpiredToken(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.Save(ctx, signedSession(t, time.Hour)))

	m := NewManager(store, &fakeAuth{})
	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := m.Restore(ctx)
	assert.True(t, errs.Is(err, errs.ErrSessionExpired))

	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token, "expired token is removed from durable storage")
}

func TestLogoutAndInvalidate(t *testing.T) {
	ctx := context.Background()
	m := NewManager(newStore(t), &fakeAuth{sess: signedSession(t, time.Hour)})

	var kinds []ChangeKind
	var reasons []error
	unwatch := m.Watch(func(c Change) {
		kinds = append(kinds, c.Kind)
		reasons = append(reasons, c.Reason)
	})

	_, err := m.Login(ctx, "ayse@example.com", "hunter22")
	require.NoError(t, err)
	require.NoError(t, m.Logout(ctx))
	require.NoError(t, m.Logout(ctx), "logging out twice is harmless")

	_, err = m.Login(ctx, "ayse@example.com", "hunter22")
	require.NoError(t, err)
	lost := errs.NewError(errs.ErrUnauthorized)
	require.NoError(t, m.Invalidate(ctx, lost))

	assert.Equal(t, []ChangeKind{Created, Destroyed, Created, Destroyed}, kinds)
	assert.Nil(t, reasons[1])
	assert.Equal(t, lost, reasons[3])

	unwatch()
	_, _ = m.Login(ctx, "ayse@example.com", "hunter22")
	assert.Len(t, kinds, 4, "unwatched functions are not called")
}
