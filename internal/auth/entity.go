// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// RefreshToken is the stored half of a refresh token. Only the hash is
// persisted; FamilyID ties together every token issued by rotation from
// one login.
type RefreshToken struct {
	ID           string     `db:"id"`
	UserID       string     `db:"user_id"`
	TokenHash    string     `db:"token_hash"`
	FamilyID     string     `db:"family_id"`
	ExpiresAt    time.Time  `db:"expires_at"`
	CreatedAt    time.Time  `db:"created_at"`
	IsUsed       bool       `db:"is_used"`
	UsedAt       *time.Time `db:"used_at"`
	RevokedAt    *time.Time `db:"revoked_at"`
	ReplacedByID *string    `db:"replaced_by_id"`
	UserAgent    string     `db:"user_agent"`
	IPAddress    string     `db:"ip_address"`
}

type TokenState int

const (
	TokenActive TokenState = iota
	// TokenUsed means the token was already rotated; presenting it again
	// is treated as theft of the whole family.
	TokenUsed
	TokenRevoked
	TokenExpired
)

// State orders checks so that reuse wins over revocation and expiry.
func (t *RefreshToken) State(now time.Time) TokenState {
	switch {
	case t.IsUsed:
		return TokenUsed
	case t.RevokedAt != nil:
		return TokenRevoked
	case !now.Before(t.ExpiresAt):
		return TokenExpired
	default:
		return TokenActive
	}
}
