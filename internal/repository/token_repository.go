package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// TokenRepo persists refresh tokens and single-use action tokens. Only
// SHA-256 hashes are stored.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := conn(ctx, r.DB).ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// ValidateRefresh returns userID if a non-revoked, non-expired token exists.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := conn(ctx, r.DB).QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrTokenNotFound
		}
		return 0, err
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		return 0, ErrTokenNotFound
	}
	return userID, nil
}

// RevokeByHash marks a token as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := conn(ctx, r.DB).ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser revokes all user's active tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := conn(ctx, r.DB).ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}

// StoreAction records an emailed activation or reset token.
func (r *TokenRepo) StoreAction(ctx context.Context, userID uint64, purpose, tokenHash string, exp time.Time) error {
	_, err := conn(ctx, r.DB).ExecContext(ctx,
		"INSERT INTO action_tokens (user_id, purpose, token_hash, expires_at) VALUES (?,?,?,?)",
		userID, purpose, tokenHash, exp)
	return err
}

// ConsumeAction marks a live token for purpose as used and returns its
// user. The row is locked so a token can only be redeemed once.
func (r *TokenRepo) ConsumeAction(ctx context.Context, purpose, tokenHash string, now time.Time) (uint64, error) {
	var userID uint64
	err := withTx(ctx, r.DB, func(ctx context.Context) error {
		var (
			id        uint64
			expiresAt time.Time
			usedAt    sql.NullTime
		)
		err := conn(ctx, r.DB).QueryRowContext(ctx,
			`SELECT id, user_id, expires_at, used_at FROM action_tokens
             WHERE token_hash=? AND purpose=? LIMIT 1 FOR UPDATE`,
			tokenHash, purpose).Scan(&id, &userID, &expiresAt, &usedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTokenNotFound
		}
		if err != nil {
			return err
		}
		if usedAt.Valid || now.After(expiresAt) {
			return ErrTokenNotFound
		}
		_, err = conn(ctx, r.DB).ExecContext(ctx, "UPDATE action_tokens SET used_at=? WHERE id=?", now, id)
		return err
	})
	if err != nil {
		return 0, err
	}
	return userID, nil
}

// PurgeExpired deletes used or expired action tokens and expired or
// revoked refresh tokens. It returns the number of rows removed.
func (r *TokenRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	for _, q := range []string{
		"DELETE FROM action_tokens WHERE used_at IS NOT NULL OR expires_at < ?",
		"DELETE FROM refresh_tokens WHERE revoked_at IS NOT NULL OR expires_at < ?",
	} {
		res, err := conn(ctx, r.DB).ExecContext(ctx, q, now)
		if err != nil {
			return total, err
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}
