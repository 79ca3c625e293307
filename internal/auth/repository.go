// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/waitlist-backend/internal/core"
)

// expiredGrace keeps expired rows long enough for reuse detection to
// recognise a replayed token.
const expiredGrace = 24 * time.Hour

type Repository interface {
	Create(ctx context.Context, token *RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	FindByID(ctx context.Context, id string) (*RefreshToken, error)
	MarkRotated(ctx context.Context, id, replacedByID string) error
	Revoke(ctx context.Context, id string) error
	RevokeFamily(ctx context.Context, familyID string) error
	RevokeUser(ctx context.Context, userID string) error
	ListActiveSessions(ctx context.Context, userID string) ([]RefreshToken, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const refreshTokenColumns = `id, user_id, token_hash, family_id, expires_at,
	created_at, is_used, used_at, revoked_at, replaced_by_id, user_agent, ip_address`

func (r *repository) Create(ctx context.Context, token *RefreshToken) error {
	token.CreatedAt = core.Now()

	_, err := r.exec(ctx, "create refresh token", `
		INSERT INTO refresh_tokens (
			id, user_id, token_hash, family_id, expires_at, created_at,
			user_agent, ip_address
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		token.ID, token.UserID, token.TokenHash, token.FamilyID,
		token.ExpiresAt, token.CreatedAt, token.UserAgent, token.IPAddress,
	)
	return err
}

func (r *repository) FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	return r.findOne(ctx, "token_hash", tokenHash)
}

func (r *repository) FindByID(ctx context.Context, id string) (*RefreshToken, error) {
	return r.findOne(ctx, "id", id)
}

func (r *repository) findOne(ctx context.Context, column, value string) (*RefreshToken, error) {
	query := r.db.Rebind(`SELECT ` + refreshTokenColumns +
		` FROM refresh_tokens WHERE ` + column + ` = ?`)

	var token RefreshToken
	err := r.db.GetContext(ctx, &token, query, value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &token, nil
}

// MarkRotated consumes a token exactly once; a second call for the same id
// reports core.ErrNotFound.
func (r *repository) MarkRotated(ctx context.Context, id, replacedByID string) error {
	n, err := r.exec(ctx, "mark refresh token used", `
		UPDATE refresh_tokens
		SET is_used = TRUE, used_at = ?, replaced_by_id = ?
		WHERE id = ? AND is_used = FALSE`,
		core.Now(), replacedByID, id,
	)
	if err == nil && n == 0 {
		err = fmt.Errorf("mark refresh token used: %w", core.ErrNotFound)
	}
	return err
}

func (r *repository) Revoke(ctx context.Context, id string) error {
	n, err := r.revokeWhere(ctx, "id", id)
	if err == nil && n == 0 {
		err = fmt.Errorf("revoke refresh token: %w", core.ErrNotFound)
	}
	return err
}

func (r *repository) RevokeFamily(ctx context.Context, familyID string) error {
	_, err := r.revokeWhere(ctx, "family_id", familyID)
	return err
}

func (r *repository) RevokeUser(ctx context.Context, userID string) error {
	_, err := r.revokeWhere(ctx, "user_id", userID)
	return err
}

func (r *repository) revokeWhere(ctx context.Context, column, value string) (int64, error) {
	return r.exec(ctx, "revoke refresh tokens by "+column, `
		UPDATE refresh_tokens SET revoked_at = ?
		WHERE `+column+` = ? AND revoked_at IS NULL`,
		core.Now(), value,
	)
}

func (r *repository) ListActiveSessions(ctx context.Context, userID string) ([]RefreshToken, error) {
	query := r.db.Rebind(`SELECT ` + refreshTokenColumns + `
		FROM refresh_tokens
		WHERE user_id = ? AND revoked_at IS NULL AND is_used = FALSE AND expires_at > ?
		ORDER BY created_at DESC`)

	var tokens []RefreshToken
	if err := r.db.SelectContext(ctx, &tokens, query, userID, core.Now()); err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	return tokens, nil
}

func (r *repository) PurgeExpired(ctx context.Context) (int64, error) {
	return r.exec(ctx, "purge expired refresh tokens",
		`DELETE FROM refresh_tokens WHERE expires_at < ?`,
		core.Now().Add(-expiredGrace),
	)
}

func (r *repository) exec(ctx context.Context, op, query string, args ...any) (int64, error) {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
