package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultAuthorizeURL = "https://github.com/login/oauth/authorize"
	DefaultTokenURL     = "https://github.com/login/oauth/access_token"
)

// TokenPayload is GitHub's OAuth token endpoint response. ExpiresIn and the
// refresh fields are only present for GitHub App user tokens; classic OAuth
// tokens never expire.
type TokenPayload struct {
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token"`
	ExpiresIn             int64  `json:"expires_in"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in"`
	Scope                 string `json:"scope"`
	TokenType             string `json:"token_type"`
}

// ExpiresAt converts the relative expiry to an absolute timestamp, nil when
// the token does not expire.
func (p *TokenPayload) ExpiresAt(now time.Time) *time.Time {
	if p.ExpiresIn <= 0 {
		return nil
	}
	t := now.Add(time.Duration(p.ExpiresIn) * time.Second)
	return &t
}

// RefreshExpiresAt is ExpiresAt for the refresh token.
func (p *TokenPayload) RefreshExpiresAt(now time.Time) *time.Time {
	if p.RefreshTokenExpiresIn <= 0 {
		return nil
	}
	t := now.Add(time.Duration(p.RefreshTokenExpiresIn) * time.Second)
	return &t
}

// ProviderError is a rejection from the OAuth token endpoint, e.g. an
// expired refresh token or a revoked grant.
type ProviderError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("oauth provider: %s: %s", e.Code, e.Description)
}

// OAuth exchanges authorization codes and refresh tokens at GitHub's OAuth
// token endpoint.
type OAuth struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	AuthorizeURL string
	HTTPClient   *http.Client
}

// NewOAuth returns an OAuth client with GitHub's production endpoints.
func NewOAuth(clientID, clientSecret string) *OAuth {
	return &OAuth{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     DefaultTokenURL,
		AuthorizeURL: DefaultAuthorizeURL,
		HTTPClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthorizeRedirectURL builds the browser URL that starts the OAuth flow.
func (o *OAuth) AuthorizeRedirectURL(state string, scopes []string) string {
	q := url.Values{}
	q.Set("client_id", o.ClientID)
	q.Set("state", state)
	if len(scopes) > 0 {
		q.Set("scope", strings.Join(scopes, " "))
	}
	return o.AuthorizeURL + "?" + q.Encode()
}

// ExchangeCode redeems an authorization code for a token payload.
func (o *OAuth) ExchangeCode(ctx context.Context, code string) (*TokenPayload, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	return o.post(ctx, form)
}

// Refresh exchanges a refresh token for a fresh token payload.
func (o *OAuth) Refresh(ctx context.Context, refreshToken string) (*TokenPayload, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return o.post(ctx, form)
}

func (o *OAuth) post(ctx context.Context, form url.Values) (*TokenPayload, error) {
	form.Set("client_id", o.ClientID)
	form.Set("client_secret", o.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("oauth: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oauth: token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("oauth: read response: %w", err)
	}

	// GitHub reports grant failures as 200 with an error field, so the
	// error check has to look at the payload, not the status.
	var combined struct {
		TokenPayload
		ProviderError
	}
	if err := json.Unmarshal(body, &combined); err != nil {
		return nil, fmt.Errorf("oauth: decode response (status %d): %w", resp.StatusCode, err)
	}

	if combined.Code != "" {
		return nil, &ProviderError{Code: combined.Code, Description: combined.Description}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("oauth: token endpoint returned status %d", resp.StatusCode)
	}
	if combined.AccessToken == "" {
		return nil, fmt.Errorf("oauth: token endpoint returned no access token")
	}

	payload := combined.TokenPayload
	return &payload, nil
}
