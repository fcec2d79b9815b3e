package bank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTokenCache(t *testing.T, tokens cachedTokens) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokens.json")
	data, err := json.Marshal(tokens)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestStaticTokenSource(t *testing.T) {
	token, err := StaticTokenSource("tok").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	_, err = StaticTokenSource("").Token(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestFileTokenSourceLiveToken(t *testing.T) {
	path := writeTokenCache(t, cachedTokens{
		AccessToken: "live-token",
		ExpiresAt:   float64(time.Now().Add(time.Hour).Unix()),
	})

	src := &FileTokenSource{Path: path, TokenURL: "http://unused"}
	token, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "live-token", token)
}

func TestFileTokenSourceRefreshesExpired(t *testing.T) {
	var gotGrant, gotRefresh string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		gotGrant = r.Form.Get("grant_type")
		gotRefresh = r.Form.Get("refresh_token")
		w.Write([]byte(`{"access_token":"fresh-token","expires_in":3600}`))
	}))
	defer srv.Close()

	path := writeTokenCache(t, cachedTokens{
		AccessToken:  "stale-token",
		RefreshToken: "refresh-1",
		ExpiresAt:    float64(time.Now().Add(-time.Minute).Unix()),
	})

	src := &FileTokenSource{Path: path, TokenURL: srv.URL, ClientID: "c1", ClientSecret: "s1"}
	token, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
	assert.Equal(t, "refresh_token", gotGrant)
	assert.Equal(t, "refresh-1", gotRefresh)

	// The cache is updated in place; the refresh token survives a
	// response that omitted it.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var saved cachedTokens
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, "fresh-token", saved.AccessToken)
	assert.Equal(t, "refresh-1", saved.RefreshToken)
}

func TestFileTokenSourceTokenNearExpiryRefreshes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"fresh-token","refresh_token":"refresh-2","expires_in":3600}`))
	}))
	defer srv.Close()

	// Still technically valid, but inside the safety margin.
	path := writeTokenCache(t, cachedTokens{
		AccessToken:  "dying-token",
		RefreshToken: "refresh-1",
		ExpiresAt:    float64(time.Now().Add(30 * time.Second).Unix()),
	})

	src := &FileTokenSource{Path: path, TokenURL: srv.URL}
	token, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)
}

func TestFileTokenSourceNoCredentials(t *testing.T) {
	src := &FileTokenSource{Path: filepath.Join(t.TempDir(), "missing.json")}
	_, err := src.Token(context.Background())

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Error(), "re-run the authorization flow")
}

func TestFileTokenSourceRefreshRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	path := writeTokenCache(t, cachedTokens{
		RefreshToken: "revoked",
		ExpiresAt:    0,
	})

	src := &FileTokenSource{Path: path, TokenURL: srv.URL}
	_, err := src.Token(context.Background())

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Reason, "refresh failed")
}
