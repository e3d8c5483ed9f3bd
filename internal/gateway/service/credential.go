package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reposcope/reposcope/internal/gateway/domain"
	"github.com/reposcope/reposcope/internal/gateway/github"
	"github.com/reposcope/reposcope/internal/gateway/store"
	"github.com/reposcope/reposcope/pkg/cryptox"
	"github.com/reposcope/reposcope/pkg/slogx"
)

// RefreshBuffer is how close to expiry a token may get before a refresh is
// attempted. A token inside the buffer is treated as already stale so a
// request never goes out with a credential about to die mid-flight.
const RefreshBuffer = 60 * time.Second

var (
	ErrCredentialMissing = errors.New("credential_missing")
	ErrCredentialInvalid = errors.New("credential_invalid")
	ErrCredentialExpired = errors.New("credential_expired")
)

// RefreshFailedError is a refresh rejection from the OAuth provider,
// carrying the provider's own error detail.
type RefreshFailedError struct {
	Provider *github.ProviderError
}

func (e *RefreshFailedError) Error() string {
	return fmt.Sprintf("credential refresh failed: %v", e.Provider)
}

// CredentialService turns an authenticated user id into a currently valid
// upstream bearer token, refreshing it transparently when near expiry.
type CredentialService struct {
	Store  store.Store
	OAuth  *github.OAuth
	Cipher *cryptox.Cipher
	Buffer time.Duration

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func (s *CredentialService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *CredentialService) buffer() time.Duration {
	if s.Buffer > 0 {
		return s.Buffer
	}
	return RefreshBuffer
}

// Resolve returns a usable upstream access token for the user. At most one
// refresh (and one persisted write) happens per call.
func (s *CredentialService) Resolve(ctx context.Context, userID int64) (string, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrCredentialMissing
		}
		return "", fmt.Errorf("load user %d: %w", userID, err)
	}
	if user.AccessToken == "" {
		return "", ErrCredentialMissing
	}

	accessToken, err := s.Cipher.Open(user.AccessToken)
	if err != nil {
		return "", ErrCredentialInvalid
	}

	// Non-expiring tokens (classic OAuth) need nothing more.
	if user.TokenExpiresAt == nil {
		return accessToken, nil
	}

	if s.now().Add(s.buffer()).Before(*user.TokenExpiresAt) {
		return accessToken, nil
	}

	// Inside the buffer: the token is about to expire.
	if user.RefreshToken == "" {
		return "", ErrCredentialExpired
	}

	return s.refresh(ctx, user)
}

// refresh exchanges the stored refresh token and persists the rotated
// credential exactly once.
func (s *CredentialService) refresh(ctx context.Context, user domain.User) (string, error) {
	log := slogx.FromContext(ctx)

	refreshToken, err := s.Cipher.Open(user.RefreshToken)
	if err != nil {
		return "", ErrCredentialInvalid
	}

	payload, err := s.OAuth.Refresh(ctx, refreshToken)
	if err != nil {
		var providerErr *github.ProviderError
		if errors.As(err, &providerErr) {
			return "", &RefreshFailedError{Provider: providerErr}
		}
		return "", fmt.Errorf("refresh token exchange: %w", err)
	}

	sealedAccess, err := s.Cipher.Seal(payload.AccessToken)
	if err != nil {
		return "", fmt.Errorf("seal refreshed access token: %w", err)
	}

	// GitHub rotates the refresh token on every exchange; keep the old one
	// only if the provider omitted a replacement.
	sealedRefresh := user.RefreshToken
	if payload.RefreshToken != "" {
		sealedRefresh, err = s.Cipher.Seal(payload.RefreshToken)
		if err != nil {
			return "", fmt.Errorf("seal rotated refresh token: %w", err)
		}
	}

	now := s.now()
	upd := domain.TokenUpdate{
		AccessToken:           sealedAccess,
		RefreshToken:          sealedRefresh,
		TokenExpiresAt:        payload.ExpiresAt(now),
		RefreshTokenExpiresAt: payload.RefreshExpiresAt(now),
		TokenScope:            payload.Scope,
		TokenType:             payload.TokenType,
	}
	if err := s.Store.Users().UpdateUserToken(ctx, user.ID, upd); err != nil {
		return "", fmt.Errorf("persist refreshed token: %w", err)
	}

	log.Info("upstream credential refreshed", "user_id", user.ID)

	return payload.AccessToken, nil
}
