package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestSessionManager(t *testing.T) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "elitefit_session", time.Hour, false)
}

func TestSessionRoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)
	ctx := context.Background()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, r)
	require.NoError(t, err)

	sess.SetUser("7")
	sess.AddFlash(FlashMessage{Kind: "success", Message: "hi"})

	w := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, w, r, sess))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, sess.ID, cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(cookies[0])
	loaded, err := sm.Load(ctx, r2)
	require.NoError(t, err)
	require.Equal(t, "7", loaded.User())

	flash := loaded.PopFlash()
	require.NotNil(t, flash)
	require.Equal(t, "hi", flash.Message)
	require.Nil(t, loaded.PopFlash())
}

func TestSessionDestroyClearsStoreAndCookie(t *testing.T) {
	sm := newTestSessionManager(t)
	ctx := context.Background()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, r)
	require.NoError(t, err)
	sess.SetUser("7")

	w := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, w, r, sess))

	sm.Destroy(sess)
	w2 := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, w2, r, sess))
	cookies := w2.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, -1, cookies[0].MaxAge)

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: sess.ID})
	loaded, err := sm.Load(ctx, r2)
	require.NoError(t, err)
	require.Empty(t, loaded.User())
}

func TestSessionManagerWithoutStoreFailsClosed(t *testing.T) {
	sm := NewSessionManager(nil, "elitefit_session", time.Hour, false)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := sm.Load(context.Background(), r)
	require.Error(t, err)

	// Commit must surface an error, never dereference the missing client.
	w := httptest.NewRecorder()
	sess := &Session{ID: "abc", isNew: true, dirty: true}
	require.Error(t, sm.Commit(context.Background(), w, r, sess))
	require.Empty(t, w.Result().Cookies())
}

func TestCSRFTokenStableWithinSession(t *testing.T) {
	m := NewCSRFManager("secret")
	sess := &Session{ID: "abc", values: map[string]string{}}

	token, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	again, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	require.Equal(t, token, again)

	require.NoError(t, m.VerifyToken(context.Background(), sess, token))
	require.ErrorIs(t, m.VerifyToken(context.Background(), sess, "forged"), ErrCSRFTokenMismatch)
	require.ErrorIs(t, m.VerifyToken(context.Background(), sess, ""), ErrCSRFTokenMissing)
}
