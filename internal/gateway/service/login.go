package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/reposcope/reposcope/internal/gateway/domain"
	"github.com/reposcope/reposcope/internal/gateway/github"
	"github.com/reposcope/reposcope/internal/gateway/store"
	"github.com/reposcope/reposcope/pkg/cryptox"
	"github.com/reposcope/reposcope/pkg/jwtx"
	"github.com/reposcope/reposcope/pkg/slogx"
)

// LoginService handles the server half of the OAuth flow: redirect URL
// construction and the code-for-token exchange that ends with a session.
type LoginService struct {
	Store    store.Store
	OAuth    *github.OAuth
	Client   *github.Client
	Cipher   *cryptox.Cipher
	Sessions *jwtx.Sessions
	Scopes   []string
}

// LoginRedirect is the payload for GET /v1/auth/login.
type LoginRedirect struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// SessionResult is the payload for GET /v1/auth/callback.
type SessionResult struct {
	SessionToken string  `json:"sessionToken"`
	ExpiresIn    int     `json:"expiresIn"`
	User         Profile `json:"user"`
}

// Profile is the subset of the upstream user object the frontend needs.
type Profile struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Bio       string `json:"bio"`
	Email     string `json:"email"`
}

// LoginRedirectURL builds the GitHub authorize URL with a fresh state nonce.
func (s *LoginService) LoginRedirectURL() (*LoginRedirect, error) {
	state, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return nil, fmt.Errorf("generate oauth state: %w", err)
	}
	return &LoginRedirect{
		URL:   s.OAuth.AuthorizeRedirectURL(state, s.Scopes),
		State: state,
	}, nil
}

// HandleCallback exchanges the authorization code, fetches the upstream
// profile, upserts the user row and mints a session token.
func (s *LoginService) HandleCallback(ctx context.Context, code string) (*SessionResult, error) {
	log := slogx.FromContext(ctx)

	payload, err := s.OAuth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	res, err := s.Client.Do(ctx, github.Request{Path: "/user", Token: payload.AccessToken})
	if err != nil {
		return nil, fmt.Errorf("fetch upstream profile: %w", err)
	}
	if !res.Success {
		return nil, fmt.Errorf("upstream profile fetch returned status %d", res.StatusCode)
	}

	var profile Profile
	if err := json.Unmarshal(res.Data, &profile); err != nil {
		return nil, fmt.Errorf("decode upstream profile: %w", err)
	}
	if profile.ID == 0 {
		return nil, fmt.Errorf("upstream profile missing user id")
	}

	sealedAccess, err := s.Cipher.Seal(payload.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("seal access token: %w", err)
	}
	var sealedRefresh string
	if payload.RefreshToken != "" {
		sealedRefresh, err = s.Cipher.Seal(payload.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("seal refresh token: %w", err)
		}
	}

	now := time.Now()
	user := domain.User{
		ID:                    profile.ID,
		Login:                 profile.Login,
		Name:                  profile.Name,
		AvatarURL:             profile.AvatarURL,
		Bio:                   profile.Bio,
		Email:                 profile.Email,
		AccessToken:           sealedAccess,
		RefreshToken:          sealedRefresh,
		TokenExpiresAt:        payload.ExpiresAt(now),
		RefreshTokenExpiresAt: payload.RefreshExpiresAt(now),
		TokenScope:            payload.Scope,
		TokenType:             payload.TokenType,
	}
	if err := s.Store.Users().UpsertUser(ctx, user); err != nil {
		return nil, fmt.Errorf("upsert user %d: %w", user.ID, err)
	}

	session, err := s.Sessions.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	log.Info("user logged in", "user_id", user.ID, "login", user.Login)

	return &SessionResult{
		SessionToken: session,
		ExpiresIn:    int(jwtx.DefaultSessionTTL.Seconds()),
		User:         profile,
	}, nil
}
