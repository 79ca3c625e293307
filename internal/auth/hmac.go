// AngelaMos | 2026
// hmac.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/carterperez-dev/waitlist-backend/internal/config"
	"github.com/carterperez-dev/waitlist-backend/internal/core"
	"github.com/carterperez-dev/waitlist-backend/internal/middleware"
)

const minSecretLength = 32

// HMACManager signs HS256 access tokens with a shared secret. It suits
// single-service deployments that have no use for a JWKS endpoint.
type HMACManager struct {
	secret []byte
	config config.JWTConfig
}

type hmacClaims struct {
	jwt.RegisteredClaims
	Username     string   `json:"username"`
	Role         string   `json:"role"`
	BusinessIDs  []string `json:"bids"`
	TokenVersion int      `json:"token_version"`
	Type         string   `json:"type"`
}

func NewHMACManager(cfg config.JWTConfig) (*HMACManager, error) {
	if len(cfg.Secret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", minSecretLength)
	}
	return &HMACManager{secret: []byte(cfg.Secret), config: cfg}, nil
}

func (m *HMACManager) Algorithm() string {
	return config.AlgorithmHS256
}

func (m *HMACManager) AccessTokenTTL() time.Duration {
	return m.config.AccessTokenExpire
}

func (m *HMACManager) CreateAccessToken(claims AccessTokenClaims) (*SignedToken, error) {
	now := time.Now()
	jti := uuid.NewString()
	expiresAt := now.Add(m.config.AccessTokenExpire)

	bids := claims.BusinessIDs
	if bids == nil {
		bids = []string{}
	}

	c := hmacClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    m.config.Issuer,
			Audience:  jwt.ClaimStrings{m.config.Audience},
			Subject:   claims.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username:     claims.Username,
		Role:         claims.Role,
		BusinessIDs:  bids,
		TokenVersion: claims.TokenVersion,
		Type:         tokenTypeAccess,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &SignedToken{Token: signed, ID: jti, ExpiresAt: expiresAt}, nil
}

func (m *HMACManager) VerifyAccessToken(
	_ context.Context,
	tokenString string,
) (*middleware.AccessTokenClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&hmacClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithAudience(m.config.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	c, ok := token.Claims.(*hmacClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}
	if c.Type != tokenTypeAccess {
		return nil, fmt.Errorf("verify token: invalid token type: %w", core.ErrTokenInvalid)
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("verify token: missing subject: %w", core.ErrTokenInvalid)
	}

	var exp time.Time
	if c.ExpiresAt != nil {
		exp = c.ExpiresAt.Time
	}

	return &middleware.AccessTokenClaims{
		TokenID:      c.ID,
		UserID:       c.Subject,
		Username:     c.Username,
		Role:         c.Role,
		BusinessIDs:  c.BusinessIDs,
		TokenVersion: c.TokenVersion,
		ExpiresAt:    exp,
	}, nil
}

func (m *HMACManager) CreateRefreshToken(userID, familyID string) (*RefreshTokenData, error) {
	return newRefreshToken(m.config.RefreshTokenExpire, familyID)
}
