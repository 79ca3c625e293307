// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/waitlist-backend/internal/core"
	"github.com/carterperez-dev/waitlist-backend/internal/middleware"
)

var (
	ErrInvalidCredentials = core.Errorf(core.ErrUnauthorized, "invalid username or password")
	ErrAccountInactive    = core.Errorf(core.ErrUnauthorized, "account is deactivated")
	ErrTokenReuse         = errors.New("token reuse detected")
)

const blacklistPrefix = "blacklist:"

// UserInfo is the account view the auth flows need. The user package
// provides it.
type UserInfo struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	TokenVersion int
	Businesses   []BusinessRef
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *UserInfo) BusinessIDs() []string {
	ids := make([]string, 0, len(u.Businesses))
	for _, b := range u.Businesses {
		ids = append(ids, b.ID)
	}
	return ids
}

type UserProvider interface {
	GetByUsername(ctx context.Context, username string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	RegisterOwner(ctx context.Context, req RegisterRequest, passwordHash string) (*UserInfo, error)
	IncrementTokenVersion(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type Service struct {
	repo         Repository
	tokens       TokenManager
	userProvider UserProvider
	redis        *redis.Client
	logger       *slog.Logger
}

// NewService wires the auth flows. redisClient may be nil, in which case
// logout only revokes refresh tokens and access tokens live out their TTL.
func NewService(
	repo Repository,
	tokens TokenManager,
	userProvider UserProvider,
	redisClient *redis.Client,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:         repo,
		tokens:       tokens,
		userProvider: userProvider,
		redis:        redisClient,
		logger:       logger,
	}
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	user, err := s.userProvider.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		&user.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	if newHash != "" {
		if err := s.userProvider.UpdatePassword(ctx, user.ID, newHash); err != nil {
			s.logger.WarnContext(ctx, "password rehash failed", "user_id", user.ID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID, "role", user.Role)

	return s.createAuthResponse(ctx, user, userAgent, ipAddress, "", nil)
}

// Register creates a business and its owner in one step and signs the
// owner in.
func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userProvider.RegisterOwner(ctx, req, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("register owner: %w", err)
	}

	return s.createAuthResponse(ctx, user, userAgent, ipAddress, "", nil)
}

func (s *Service) Profile(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// Validate reports whether token is a live access token. It never fails;
// any problem with the token yields valid=false.
func (s *Service) Validate(ctx context.Context, token string) ValidateResponse {
	if token == "" {
		return ValidateResponse{Valid: false}
	}

	claims, err := s.VerifyAccessToken(ctx, token)
	if err != nil {
		return ValidateResponse{Valid: false}
	}

	return ValidateResponse{Valid: true, Username: claims.Username}
}

// VerifyAccessToken checks the signature and then the token against current
// server state: the blacklist, the account's active flag and its token
// version. It satisfies middleware.TokenVerifier.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.tokens.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if claims.TokenID != "" {
		blacklisted, err := s.IsAccessTokenBlacklisted(ctx, claims.TokenID)
		if err != nil {
			s.logger.WarnContext(ctx, "blacklist lookup failed", "error", err)
		} else if blacklisted {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
		}
	}

	user, err := s.userProvider.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("verify token: %w", err)
	}

	if !user.IsActive || claims.TokenVersion < user.TokenVersion {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	return claims, nil
}

func (s *Service) Refresh(
	ctx context.Context,
	refreshToken, userAgent, ipAddress string,
) (*AuthResponse, error) {
	tokenHash := core.HashToken(refreshToken)

	storedToken, err := s.repo.FindByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	switch storedToken.State(core.Now()) {
	case TokenUsed:
		if err := s.repo.RevokeFamily(ctx, storedToken.FamilyID); err != nil {
			s.logger.ErrorContext(ctx, "revoke token family failed",
				"family_id", storedToken.FamilyID,
				"error", err,
			)
		}
		s.logger.WarnContext(ctx, "refresh token reuse detected",
			"user_id", storedToken.UserID,
			"family_id", storedToken.FamilyID,
		)
		return nil, ErrTokenReuse
	case TokenRevoked:
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
	case TokenExpired:
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	user, err := s.userProvider.GetByID(ctx, storedToken.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !user.IsActive {
		if err := s.repo.RevokeUser(ctx, user.ID); err != nil {
			s.logger.ErrorContext(ctx, "revoke sessions failed", "user_id", user.ID, "error", err)
		}
		return nil, ErrAccountInactive
	}

	return s.createAuthResponse(
		ctx,
		user,
		userAgent,
		ipAddress,
		storedToken.FamilyID,
		&storedToken.ID,
	)
}

// Logout revokes the given refresh token and blacklists the access token
// that authenticated the request.
func (s *Service) Logout(
	ctx context.Context,
	refreshToken string,
	claims *middleware.AccessTokenClaims,
) error {
	if claims == nil {
		return fmt.Errorf("logout: %w", core.ErrUnauthorized)
	}

	if refreshToken != "" {
		storedToken, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
		switch {
		case errors.Is(err, core.ErrNotFound):
		case err != nil:
			return fmt.Errorf("find token: %w", err)
		case storedToken.UserID != claims.UserID:
			return fmt.Errorf("logout: %w",
				core.Errorf(core.ErrForbidden, "cannot revoke another user's token"))
		default:
			if err := s.repo.Revoke(ctx, storedToken.ID); err != nil &&
				!errors.Is(err, core.ErrNotFound) {
				return fmt.Errorf("revoke token: %w", err)
			}
		}
	}

	if err := s.RevokeAccessToken(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		s.logger.WarnContext(ctx, "blacklist access token failed", "error", err)
	}

	return nil
}

func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.repo.RevokeUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	if err := s.userProvider.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	s.logger.InfoContext(ctx, "all sessions revoked", "user_id", userID)

	return nil
}

func (s *Service) RevokeAccessToken(
	ctx context.Context,
	jti string,
	expiresAt time.Time,
) error {
	if s.redis == nil || jti == "" {
		return nil
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := s.redis.Set(ctx, blacklistPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	return nil
}

func (s *Service) IsAccessTokenBlacklisted(
	ctx context.Context,
	jti string,
) (bool, error) {
	if s.redis == nil {
		return false, nil
	}

	exists, err := s.redis.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}

	return exists > 0, nil
}

func (s *Service) GetActiveSessions(
	ctx context.Context,
	userID string,
) ([]SessionInfo, error) {
	tokens, err := s.repo.ListActiveSessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}

	sessions := make([]SessionInfo, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, SessionInfo{
			ID:        t.ID,
			UserAgent: t.UserAgent,
			IPAddress: t.IPAddress,
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
		})
	}

	return sessions, nil
}

func (s *Service) RevokeSession(
	ctx context.Context,
	userID, sessionID string,
) error {
	token, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}

	if token.UserID != userID {
		return fmt.Errorf("revoke session: %w",
			core.Errorf(core.ErrForbidden, "cannot revoke another user's session"))
	}

	if err := s.repo.Revoke(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

// ChangePassword replaces the password and ends every session, including
// the caller's.
func (s *Service) ChangePassword(
	ctx context.Context,
	userID, currentPassword, newPassword string,
) error {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	valid, _, err := core.VerifyPasswordWithRehash(
		currentPassword,
		user.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return core.Errorf(core.ErrUnauthorized, "current password is incorrect")
	}

	newHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.userProvider.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.LogoutAll(ctx, userID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}

	return nil
}

// CleanupExpired drops refresh tokens well past their expiry.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.PurgeExpired(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "expired refresh tokens removed", "count", n)
	}
	return n, nil
}

func (s *Service) createAuthResponse(
	ctx context.Context,
	user *UserInfo,
	userAgent, ipAddress, familyID string,
	oldTokenID *string,
) (*AuthResponse, error) {
	accessToken, err := s.tokens.CreateAccessToken(AccessTokenClaims{
		UserID:       user.ID,
		Username:     user.Username,
		Role:         user.Role,
		BusinessIDs:  user.BusinessIDs(),
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refreshData, err := s.tokens.CreateRefreshToken(user.ID, familyID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	newTokenID := uuid.NewString()

	refreshTokenEntity := &RefreshToken{
		ID:        newTokenID,
		UserID:    user.ID,
		TokenHash: refreshData.Hash,
		FamilyID:  refreshData.FamilyID,
		ExpiresAt: refreshData.ExpiresAt,
		UserAgent: truncate(userAgent, 500),
		IPAddress: truncate(ipAddress, 64),
	}

	if err := s.repo.Create(ctx, refreshTokenEntity); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	if oldTokenID != nil {
		if err := s.repo.MarkRotated(ctx, *oldTokenID, newTokenID); err != nil {
			s.logger.WarnContext(ctx, "mark refresh token used failed",
				"token_id", *oldTokenID,
				"error", err,
			)
		}
	}

	return &AuthResponse{
		User: toUserResponse(user),
		Tokens: TokenResponse{
			AccessToken:  accessToken.Token,
			RefreshToken: refreshData.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(s.tokens.AccessTokenTTL() / time.Second),
			ExpiresAt:    accessToken.ExpiresAt,
		},
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ middleware.TokenVerifier = (*Service)(nil)
