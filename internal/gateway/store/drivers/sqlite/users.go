package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/reposcope/reposcope/internal/gateway/domain"
)

const timeFormat = time.RFC3339

type usersRepo struct {
	db *sql.DB
}

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, login, name, avatar_url, bio, email,
		       access_token, refresh_token, token_expires_at, refresh_token_expires_at,
		       token_scope, token_type, created_at, updated_at
		FROM users WHERE id = ?`, id)

	var (
		u                  domain.User
		tokenExpires       sql.NullString
		refreshExpires     sql.NullString
		createdAt, updated string
	)
	err := row.Scan(
		&u.ID, &u.Login, &u.Name, &u.AvatarURL, &u.Bio, &u.Email,
		&u.AccessToken, &u.RefreshToken, &tokenExpires, &refreshExpires,
		&u.TokenScope, &u.TokenType, &createdAt, &updated,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.TokenExpiresAt = parseNullTime(tokenExpires)
	u.RefreshTokenExpiresAt = parseNullTime(refreshExpires)
	u.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	u.UpdatedAt, _ = time.Parse(timeFormat, updated)

	return u, nil
}

func (r *usersRepo) UpsertUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC().Format(timeFormat)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, login, name, avatar_url, bio, email,
			access_token, refresh_token, token_expires_at, refresh_token_expires_at,
			token_scope, token_type, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			login = excluded.login,
			name = excluded.name,
			avatar_url = excluded.avatar_url,
			bio = excluded.bio,
			email = excluded.email,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_expires_at = excluded.token_expires_at,
			refresh_token_expires_at = excluded.refresh_token_expires_at,
			token_scope = excluded.token_scope,
			token_type = excluded.token_type,
			updated_at = excluded.updated_at`,
		u.ID, u.Login, u.Name, u.AvatarURL, u.Bio, u.Email,
		u.AccessToken, u.RefreshToken,
		formatNullTime(u.TokenExpiresAt), formatNullTime(u.RefreshTokenExpiresAt),
		u.TokenScope, u.TokenType, now, now,
	)
	return err
}

func (r *usersRepo) UpdateUserToken(ctx context.Context, userID int64, upd domain.TokenUpdate) error {
	now := time.Now().UTC().Format(timeFormat)

	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			access_token = ?,
			refresh_token = ?,
			token_expires_at = ?,
			refresh_token_expires_at = ?,
			token_scope = ?,
			token_type = ?,
			updated_at = ?
		WHERE id = ?`,
		upd.AccessToken, upd.RefreshToken,
		formatNullTime(upd.TokenExpiresAt), formatNullTime(upd.RefreshTokenExpiresAt),
		upd.TokenScope, upd.TokenType, now, userID,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse(timeFormat, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

func formatNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeFormat)
}
