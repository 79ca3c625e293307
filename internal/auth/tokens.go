// AngelaMos | 2026
// tokens.go

package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/waitlist-backend/internal/config"
	"github.com/carterperez-dev/waitlist-backend/internal/core"
	"github.com/carterperez-dev/waitlist-backend/internal/middleware"
)

const tokenTypeAccess = "access"

// AccessTokenClaims is what an access token asserts about its holder.
type AccessTokenClaims struct {
	UserID       string
	Username     string
	Role         string
	BusinessIDs  []string
	TokenVersion int
}

type SignedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// TokenManager signs and verifies access tokens and mints refresh tokens.
type TokenManager interface {
	CreateAccessToken(claims AccessTokenClaims) (*SignedToken, error)
	VerifyAccessToken(ctx context.Context, token string) (*middleware.AccessTokenClaims, error)
	CreateRefreshToken(userID, familyID string) (*RefreshTokenData, error)
	AccessTokenTTL() time.Duration
	Algorithm() string
}

// JWKSProvider is implemented by managers with a public key to publish.
type JWKSProvider interface {
	GetJWKSHandler() http.HandlerFunc
}

// NewTokenManager builds the manager for the configured algorithm. With
// ES256 and generate_keys set, a missing key pair is created first.
func NewTokenManager(cfg config.JWTConfig) (TokenManager, error) {
	switch cfg.Algorithm {
	case config.AlgorithmHS256:
		return NewHMACManager(cfg)
	case config.AlgorithmES256, "":
		if cfg.GenerateKeys {
			if err := ensureKeyPair(cfg.PrivateKeyPath, cfg.PublicKeyPath); err != nil {
				return nil, err
			}
		}
		return NewJWTManager(cfg)
	default:
		return nil, fmt.Errorf("unsupported jwt algorithm %q", cfg.Algorithm)
	}
}

type RefreshTokenData struct {
	Token     string
	Hash      string
	ExpiresAt time.Time
	FamilyID  string
}

func newRefreshToken(ttl time.Duration, familyID string) (*RefreshTokenData, error) {
	token, err := core.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if familyID == "" {
		familyID = uuid.NewString()
	}

	return &RefreshTokenData{
		Token:     token,
		Hash:      core.HashToken(token),
		ExpiresAt: core.Now().Add(ttl),
		FamilyID:  familyID,
	}, nil
}
