package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/healthtrend/internal/common"
	"github.com/dmitrijs2005/healthtrend/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestTokenStore_SaveLoadDelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tokens")
	s := NewTokenStore(dir, []byte("pass"))

	_, err := s.Load("me@example.com")
	require.ErrorIs(t, err, common.ErrNoCredentials)

	tok := &oauth2.Token{AccessToken: "at", RefreshToken: "rt", TokenType: "Bearer"}
	require.NoError(t, s.Save("me@example.com", tok))

	raw, err := os.ReadFile(s.path("me@example.com"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "rt", "token must not be stored in clear text")

	got, err := s.Load("me@example.com")
	require.NoError(t, err)
	assert.Equal(t, "at", got.AccessToken)
	assert.Equal(t, "rt", got.RefreshToken)

	require.NoError(t, s.Delete("me@example.com"))
	require.NoError(t, s.Delete("me@example.com"))
	_, err = s.Load("me@example.com")
	require.ErrorIs(t, err, common.ErrNoCredentials)
}

func TestTokenStore_WrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewTokenStore(dir, []byte("right")).Save("me", &oauth2.Token{AccessToken: "x"}))

	_, err := NewTokenStore(dir, []byte("wrong")).Load("me")
	require.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestTokenStore_RequiresPassphrase(t *testing.T) {
	err := NewTokenStore(t.TempDir(), nil).Save("me", &oauth2.Token{})
	require.Error(t, err)
}

func TestLoadOAuthConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"installed":{
		"client_id":"cid","client_secret":"sec",
		"redirect_uris":["http://localhost"],
		"auth_uri":"https://accounts.google.com/o/oauth2/auth",
		"token_uri":"https://oauth2.googleapis.com/token"}}`), 0o600))

	cfg, err := LoadOAuthConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "cid", cfg.ClientID)
	assert.Equal(t, Scopes, cfg.Scopes)

	_, err = LoadOAuthConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func newTokenServer(t *testing.T, accessToken string, hits *int32) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"`+accessToken+`","token_type":"Bearer","refresh_token":"rt","expires_in":3600}`)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestAuthorizer_ExchangeStoresToken(t *testing.T) {
	var hits int32
	tokenSrv := newTokenServer(t, "fresh", &hits)

	store := NewTokenStore(t.TempDir(), []byte("pass"))
	a := NewAuthorizer(&oauth2.Config{
		ClientID: "cid",
		Endpoint: oauth2.Endpoint{AuthURL: tokenSrv.URL + "/auth", TokenURL: tokenSrv.URL + "/token"},
	}, store, logging.Nop())

	assert.Contains(t, a.AuthCodeURL("st"), "access_type=offline")

	require.NoError(t, a.Exchange(context.Background(), "me", "code"))

	tok, err := store.Load("me")
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)

	require.NoError(t, a.Forget("me"))
	_, err = store.Load("me")
	require.ErrorIs(t, err, common.ErrNoCredentials)
}

func TestAuthorizer_ClientRefreshesAndPersists(t *testing.T) {
	var hits int32
	tokenSrv := newTokenServer(t, "refreshed", &hits)

	var seenAuth atomic.Value
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth.Store(r.Header.Get("Authorization"))
	}))
	t.Cleanup(api.Close)

	store := NewTokenStore(t.TempDir(), []byte("pass"))
	require.NoError(t, store.Save("me", &oauth2.Token{
		AccessToken:  "stale",
		RefreshToken: "rt",
		Expiry:       time.Now().Add(-time.Hour),
	}))

	a := NewAuthorizer(&oauth2.Config{
		Endpoint: oauth2.Endpoint{TokenURL: tokenSrv.URL + "/token"},
	}, store, logging.Nop())

	client, err := a.Client(context.Background(), "me")
	require.NoError(t, err)

	resp, err := client.Get(api.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "Bearer refreshed", seenAuth.Load())
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	tok, err := store.Load("me")
	require.NoError(t, err)
	assert.Equal(t, "refreshed", tok.AccessToken)
}

func TestAuthorizer_ClientWithoutToken(t *testing.T) {
	a := NewAuthorizer(&oauth2.Config{}, NewTokenStore(t.TempDir(), []byte("p")), logging.Nop())
	_, err := a.Client(context.Background(), "nobody")
	require.ErrorIs(t, err, common.ErrNoCredentials)
}

func TestAuthorizer_ClientIsCachedPerAccount(t *testing.T) {
	store := NewTokenStore(t.TempDir(), []byte("pass"))
	require.NoError(t, store.Save("me", &oauth2.Token{AccessToken: "at", Expiry: time.Now().Add(time.Hour)}))
	a := NewAuthorizer(&oauth2.Config{}, store, logging.Nop())

	first, err := a.Client(context.Background(), "me")
	require.NoError(t, err)

	// Once built, the client no longer depends on the sealed file.
	require.NoError(t, os.Remove(store.path("me")))
	second, err := a.Client(context.Background(), "me")
	require.NoError(t, err)
	assert.Same(t, first, second)

	require.NoError(t, a.Forget("me"))
	_, err = a.Client(context.Background(), "me")
	require.ErrorIs(t, err, common.ErrNoCredentials)
}

func TestAuthorizer_CachedClientSurvivesCanceledContext(t *testing.T) {
	var seenAuth atomic.Value
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth.Store(r.Header.Get("Authorization"))
	}))
	t.Cleanup(api.Close)

	store := NewTokenStore(t.TempDir(), []byte("pass"))
	require.NoError(t, store.Save("me", &oauth2.Token{AccessToken: "at", Expiry: time.Now().Add(time.Hour)}))
	a := NewAuthorizer(&oauth2.Config{}, store, logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	_, err := a.Client(ctx, "me")
	require.NoError(t, err)
	cancel()

	client, err := a.Client(context.Background(), "me")
	require.NoError(t, err)
	resp, err := client.Get(api.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "Bearer at", seenAuth.Load())
}
