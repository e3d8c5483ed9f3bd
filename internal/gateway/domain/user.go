package domain

import "time"

// User is the durable identity record, keyed by the upstream (GitHub)
// numeric user id. Token fields hold sealed ciphertext, never plaintext.
type User struct {
	ID        int64
	Login     string
	Name      string
	AvatarURL string
	Bio       string
	Email     string

	// Upstream credential. AccessToken is required once the user has logged
	// in; RefreshToken and the expiry timestamps are only present for GitHub
	// App installations whose tokens expire.
	AccessToken           string
	RefreshToken          string
	TokenExpiresAt        *time.Time
	RefreshTokenExpiresAt *time.Time
	TokenScope            string
	TokenType             string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TokenUpdate carries the fields persisted after a successful refresh or
// login. All token values are sealed before they reach the store.
type TokenUpdate struct {
	AccessToken           string
	RefreshToken          string
	TokenExpiresAt        *time.Time
	RefreshTokenExpiresAt *time.Time
	TokenScope            string
	TokenType             string
}
