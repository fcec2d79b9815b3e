package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TokenSource yields a valid bearer credential for the payment endpoints.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a fixed token. Used in tests and for
// short-lived tokens supplied by the environment.
type StaticTokenSource string

func (s StaticTokenSource) Token(context.Context) (string, error) {
	if s == "" {
		return "", &AuthError{Reason: "no token configured"}
	}
	return string(s), nil
}

// FileTokenSource keeps OAuth2 tokens in a JSON cache file and refreshes
// the access token via the refresh grant when it is close to expiry. The
// initial browser-based authorization happens out of band; when neither a
// live access token nor a working refresh token exists, Token fails with
// an AuthError telling the operator to re-authorize.
type FileTokenSource struct {
	Path         string
	TokenURL     string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
}

type cachedTokens struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token,omitempty"`
	ExpiresAt    float64 `json:"expires_at"`
}

// expiryMargin keeps us from handing out a token that dies mid-request.
const expiryMargin = 60 * time.Second

func (f *FileTokenSource) Token(ctx context.Context) (string, error) {
	tokens, err := f.load()
	if err != nil {
		return "", &AuthError{Reason: fmt.Sprintf("token cache unreadable: %v", err)}
	}

	if tokens.AccessToken != "" && tokens.ExpiresAt > float64(time.Now().Add(expiryMargin).Unix()) {
		return tokens.AccessToken, nil
	}

	if tokens.RefreshToken == "" {
		return "", &AuthError{Reason: "no refresh token cached"}
	}

	refreshed, err := f.refresh(ctx, tokens.RefreshToken)
	if err != nil {
		return "", &AuthError{Reason: fmt.Sprintf("token refresh failed: %v", err)}
	}
	return refreshed.AccessToken, nil
}

func (f *FileTokenSource) load() (cachedTokens, error) {
	var tokens cachedTokens
	data, err := os.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return tokens, nil
	}
	if err != nil {
		return tokens, err
	}
	if err := json.Unmarshal(data, &tokens); err != nil {
		return cachedTokens{}, err
	}
	return tokens, nil
}

func (f *FileTokenSource) save(tokens cachedTokens) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, data, 0o600)
}

func (f *FileTokenSource) refresh(ctx context.Context, refreshToken string) (cachedTokens, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {f.ClientID},
		"client_secret": {f.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return cachedTokens{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := f.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return cachedTokens{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return cachedTokens{}, fmt.Errorf("HTTP %d from token endpoint", resp.StatusCode)
	}

	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return cachedTokens{}, fmt.Errorf("decode token response: %w", err)
	}

	expiresIn := body.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 3600
	}
	tokens := cachedTokens{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
		ExpiresAt:    float64(time.Now().Unix() + expiresIn),
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = refreshToken
	}
	if err := f.save(tokens); err != nil {
		return cachedTokens{}, fmt.Errorf("save token cache: %w", err)
	}
	return tokens, nil
}
