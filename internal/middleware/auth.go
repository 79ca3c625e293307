// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/carterperez-dev/waitlist-backend/internal/access"
	"github.com/carterperez-dev/waitlist-backend/internal/core"
)

type claimsKey struct{}

// TokenVerifier resolves a bearer token into claims. Implementations return
// core.ErrTokenExpired, core.ErrTokenRevoked or core.ErrTokenInvalid.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (*AccessTokenClaims, error)
}

type AccessTokenClaims struct {
	TokenID      string
	UserID       string
	Username     string
	Role         string
	BusinessIDs  []string
	TokenVersion int
	ExpiresAt    time.Time
}

func (c *AccessTokenClaims) Identity() access.Identity {
	return access.Identity{
		UserID:      c.UserID,
		Username:    c.Username,
		Role:        access.Role(c.Role),
		BusinessIDs: c.BusinessIDs,
	}
}

// Authenticator rejects requests without a valid bearer token and places
// both the raw claims and the caller identity on the request context.
func Authenticator(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				core.JSONError(w, core.UnauthorizedError("missing authorization token"))
				return
			}

			claims, err := verifier.VerifyAccessToken(r.Context(), token)
			if err != nil {
				core.JSONError(w, tokenError(err))
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			ctx = access.WithIdentity(ctx, claims.Identity())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// tokenError keeps client-side verifier failures inside the 401 family.
// Server faults such as a failed user lookup stay 5xx so an outage does
// not read as a logout.
func tokenError(err error) *core.AppError {
	appErr := core.AsAppError(err, "token")
	switch {
	case appErr.StatusCode >= http.StatusInternalServerError:
		return appErr
	case appErr.StatusCode != http.StatusUnauthorized:
		return core.TokenInvalidError()
	default:
		return appErr
	}
}

func RequireRole(roles ...access.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := Caller(w, r)
			if !ok {
				return
			}
			if err := id.RequireRole(roles...); err != nil {
				core.JSONError(w, core.ForbiddenError("insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(access.RolePlatformAdmin)(next)
}

// RequireManager admits platform admins and business owners.
func RequireManager(next http.Handler) http.Handler {
	return RequireRole(access.RolePlatformAdmin, access.RoleBusinessOwner)(next)
}

func ExtractToken(r *http.Request) string {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func GetClaims(ctx context.Context) *AccessTokenClaims {
	claims, _ := ctx.Value(claimsKey{}).(*AccessTokenClaims)
	return claims
}

func GetUserID(ctx context.Context) string {
	id, _ := access.FromContext(ctx)
	return id.UserID
}

func GetIdentity(ctx context.Context) (access.Identity, bool) {
	return access.FromContext(ctx)
}

// Caller returns the authenticated identity or writes a 401 and reports
// false. Handlers mounted behind Authenticator use it.
func Caller(w http.ResponseWriter, r *http.Request) (access.Identity, bool) {
	id, err := access.MustFromContext(r.Context())
	if err != nil {
		core.JSONError(w, core.UnauthorizedError("authentication required"))
		return access.Identity{}, false
	}
	return id, true
}
