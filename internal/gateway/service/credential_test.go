package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reposcope/reposcope/internal/gateway/domain"
	"github.com/reposcope/reposcope/internal/gateway/github"
	"github.com/reposcope/reposcope/internal/gateway/store"
	"github.com/reposcope/reposcope/pkg/cryptox"
)

// memStore is an in-memory store.Store for service tests.
type memStore struct {
	users map[int64]domain.User

	tokenUpdates int
}

func newMemStore() *memStore {
	return &memStore{users: make(map[int64]domain.User)}
}

func (m *memStore) Users() store.Users             { return m }
func (m *memStore) ApplyMigrations() error         { return nil }
func (m *memStore) Close() error                   { return nil }
func (m *memStore) Ping(ctx context.Context) error { return nil }

func (m *memStore) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *memStore) UpsertUser(ctx context.Context, u domain.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *memStore) UpdateUserToken(ctx context.Context, userID int64, upd domain.TokenUpdate) error {
	u, ok := m.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.AccessToken = upd.AccessToken
	u.RefreshToken = upd.RefreshToken
	u.TokenExpiresAt = upd.TokenExpiresAt
	u.RefreshTokenExpiresAt = upd.RefreshTokenExpiresAt
	u.TokenScope = upd.TokenScope
	u.TokenType = upd.TokenType
	m.users[userID] = u
	m.tokenUpdates++
	return nil
}

func testCipher(t *testing.T) *cryptox.Cipher {
	t.Helper()
	c, err := cryptox.NewCipher([]byte("test seal key"))
	require.NoError(t, err)
	return c
}

func seal(t *testing.T, c *cryptox.Cipher, plaintext string) string {
	t.Helper()
	sealed, err := c.Seal(plaintext)
	require.NoError(t, err)
	return sealed
}

func TestResolveMissingUser(t *testing.T) {
	svc := &CredentialService{Store: newMemStore(), Cipher: testCipher(t)}

	_, err := svc.Resolve(t.Context(), 404)
	require.ErrorIs(t, err, ErrCredentialMissing)
}

func TestResolveMissingToken(t *testing.T) {
	st := newMemStore()
	st.users[1] = domain.User{ID: 1, Login: "octocat"}

	svc := &CredentialService{Store: st, Cipher: testCipher(t)}

	_, err := svc.Resolve(t.Context(), 1)
	require.ErrorIs(t, err, ErrCredentialMissing)
}

func TestResolveUnsealableToken(t *testing.T) {
	st := newMemStore()
	st.users[1] = domain.User{ID: 1, AccessToken: "garbage"}

	svc := &CredentialService{Store: st, Cipher: testCipher(t)}

	_, err := svc.Resolve(t.Context(), 1)
	require.ErrorIs(t, err, ErrCredentialInvalid)
}

func TestResolveNonExpiringToken(t *testing.T) {
	cipher := testCipher(t)
	st := newMemStore()
	st.users[1] = domain.User{ID: 1, AccessToken: seal(t, cipher, "gho_classic")}

	svc := &CredentialService{Store: st, Cipher: cipher}

	token, err := svc.Resolve(t.Context(), 1)
	require.NoError(t, err)
	require.Equal(t, "gho_classic", token)
	require.Equal(t, 0, st.tokenUpdates, "non-expiring token must not trigger a refresh")
}

func TestResolveFreshTokenSkipsRefresh(t *testing.T) {
	cipher := testCipher(t)
	now := time.Now()
	expiry := now.Add(time.Hour)

	st := newMemStore()
	st.users[1] = domain.User{
		ID:             1,
		AccessToken:    seal(t, cipher, "ghu_fresh"),
		RefreshToken:   seal(t, cipher, "ghr_refresh"),
		TokenExpiresAt: &expiry,
	}

	svc := &CredentialService{
		Store:  st,
		Cipher: cipher,
		Now:    func() time.Time { return now },
	}

	token, err := svc.Resolve(t.Context(), 1)
	require.NoError(t, err)
	require.Equal(t, "ghu_fresh", token)
	require.Equal(t, 0, st.tokenUpdates)
}

func TestResolveRefreshesInsideBuffer(t *testing.T) {
	var exchanges int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges++
		require.NoError(t, r.ParseForm())
		require.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		require.Equal(t, "ghr_old", r.PostForm.Get("refresh_token"))
		_, _ = w.Write([]byte(`{
			"access_token": "ghu_rotated",
			"refresh_token": "ghr_rotated",
			"expires_in": 28800,
			"token_type": "bearer"
		}`))
	}))
	defer server.Close()

	oauth := github.NewOAuth("id", "secret")
	oauth.TokenURL = server.URL

	cipher := testCipher(t)
	now := time.Now()
	// Expires in 30s, inside the 60s buffer.
	expiry := now.Add(30 * time.Second)

	st := newMemStore()
	st.users[1] = domain.User{
		ID:             1,
		AccessToken:    seal(t, cipher, "ghu_stale"),
		RefreshToken:   seal(t, cipher, "ghr_old"),
		TokenExpiresAt: &expiry,
	}

	svc := &CredentialService{
		Store:  st,
		OAuth:  oauth,
		Cipher: cipher,
		Now:    func() time.Time { return now },
	}

	token, err := svc.Resolve(t.Context(), 1)
	require.NoError(t, err)
	require.Equal(t, "ghu_rotated", token)
	require.Equal(t, 1, exchanges, "exactly one refresh per resolution")
	require.Equal(t, 1, st.tokenUpdates, "exactly one persisted write per refresh")

	// The persisted credentials are the rotated ones, sealed.
	persisted := st.users[1]
	access, err := cipher.Open(persisted.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "ghu_rotated", access)
	refresh, err := cipher.Open(persisted.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, "ghr_rotated", refresh)
	require.NotNil(t, persisted.TokenExpiresAt)
}

func TestResolveKeepsOldRefreshTokenWhenNotRotated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"ghu_rotated","expires_in":28800,"token_type":"bearer"}`))
	}))
	defer server.Close()

	oauth := github.NewOAuth("id", "secret")
	oauth.TokenURL = server.URL

	cipher := testCipher(t)
	now := time.Now()
	expiry := now.Add(10 * time.Second)

	st := newMemStore()
	st.users[1] = domain.User{
		ID:             1,
		AccessToken:    seal(t, cipher, "ghu_stale"),
		RefreshToken:   seal(t, cipher, "ghr_keep"),
		TokenExpiresAt: &expiry,
	}

	svc := &CredentialService{
		Store:  st,
		OAuth:  oauth,
		Cipher: cipher,
		Now:    func() time.Time { return now },
	}

	_, err := svc.Resolve(t.Context(), 1)
	require.NoError(t, err)

	refresh, err := cipher.Open(st.users[1].RefreshToken)
	require.NoError(t, err)
	require.Equal(t, "ghr_keep", refresh)
}

func TestResolveExpiredWithoutRefreshToken(t *testing.T) {
	cipher := testCipher(t)
	now := time.Now()
	expiry := now.Add(-time.Minute)

	st := newMemStore()
	st.users[1] = domain.User{
		ID:             1,
		AccessToken:    seal(t, cipher, "ghu_dead"),
		TokenExpiresAt: &expiry,
	}

	svc := &CredentialService{
		Store:  st,
		Cipher: cipher,
		Now:    func() time.Time { return now },
	}

	_, err := svc.Resolve(t.Context(), 1)
	require.ErrorIs(t, err, ErrCredentialExpired)
}

func TestResolveRefreshRejectedByProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"bad_refresh_token","error_description":"expired"}`))
	}))
	defer server.Close()

	oauth := github.NewOAuth("id", "secret")
	oauth.TokenURL = server.URL

	cipher := testCipher(t)
	now := time.Now()
	expiry := now.Add(-time.Minute)

	st := newMemStore()
	st.users[1] = domain.User{
		ID:             1,
		AccessToken:    seal(t, cipher, "ghu_dead"),
		RefreshToken:   seal(t, cipher, "ghr_dead"),
		TokenExpiresAt: &expiry,
	}

	svc := &CredentialService{
		Store:  st,
		OAuth:  oauth,
		Cipher: cipher,
		Now:    func() time.Time { return now },
	}

	_, err := svc.Resolve(t.Context(), 1)

	var refreshErr *RefreshFailedError
	require.ErrorAs(t, err, &refreshErr)
	require.NotNil(t, refreshErr.Provider)
	require.Equal(t, "bad_refresh_token", refreshErr.Provider.Code)
	require.Equal(t, 0, st.tokenUpdates, "a rejected refresh must not persist anything")
}
