// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/waitlist-backend/internal/access"
	"github.com/carterperez-dev/waitlist-backend/internal/config"
)

type RateLimitConfig struct {
	Limit redis_rate.Limit
	// LimitFunc overrides Limit per request, e.g. by caller role.
	LimitFunc func(*http.Request) redis_rate.Limit
	KeyFunc   func(*http.Request) string
	FailOpen  bool
	// Label is echoed in X-RateLimit-Scope when set.
	Label func(*http.Request) string
}

type counter interface {
	allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

type RateLimiter struct {
	store  counter
	config RateLimitConfig
}

// NewRateLimiter counts in redis when rdb is non-nil and in process
// otherwise. Redis errors also fall back to the in-process counter.
func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}
	if cfg.LimitFunc == nil {
		limit := cfg.Limit
		cfg.LimitFunc = func(*http.Request) redis_rate.Limit { return limit }
	}

	mem := newMemoryCounter()
	var store counter = mem
	if rdb != nil {
		store = &redisCounter{limiter: redis_rate.NewLimiter(rdb), fallback: mem}
	}

	return &RateLimiter{store: store, config: cfg}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.config.KeyFunc(r)
		limit := rl.config.LimitFunc(r)

		res, err := rl.store.allow(r.Context(), key, limit)
		if err != nil {
			if !rl.config.FailOpen {
				http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
				return
			}
			slog.Warn("rate limiter error, failing open", "error", err, "key", key)
			next.ServeHTTP(w, r)
			return
		}

		if rl.config.Label != nil {
			w.Header().Set("X-RateLimit-Scope", rl.config.Label(r))
		}
		setRateLimitHeaders(w, res, limit)

		if res.Allowed == 0 {
			writeRateLimitExceeded(w, res)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type RoleLimit struct {
	RequestsPerMinute int
	BurstSize         int
}

// DefaultRoleLimits is applied to authenticated routes; unknown roles use
// the staff limits.
var DefaultRoleLimits = map[access.Role]RoleLimit{
	access.RoleBusinessStaff: {RequestsPerMinute: 120, BurstSize: 30},
	access.RoleBusinessOwner: {RequestsPerMinute: 300, BurstSize: 60},
	access.RolePlatformAdmin: {RequestsPerMinute: 1200, BurstSize: 200},
}

// RoleRateLimiter limits authenticated callers per user with a budget
// chosen by their role. It must run after Authenticator.
func RoleRateLimiter(
	rdb *redis.Client,
	limits map[access.Role]RoleLimit,
) func(http.Handler) http.Handler {
	roleOf := func(r *http.Request) access.Role {
		id, _ := access.FromContext(r.Context())
		if _, ok := limits[id.Role]; ok {
			return id.Role
		}
		return access.RoleBusinessStaff
	}

	return NewRateLimiter(rdb, RateLimitConfig{
		KeyFunc: KeyByUser,
		LimitFunc: func(r *http.Request) redis_rate.Limit {
			l := limits[roleOf(r)]
			return PerMinute(l.RequestsPerMinute, l.BurstSize)
		},
		Label:    func(r *http.Request) string { return string(roleOf(r)) },
		FailOpen: true,
	}).Handler
}

func PerSecond(rate, burst int) redis_rate.Limit {
	return redis_rate.Limit{Rate: rate, Burst: burst, Period: time.Second}
}

func PerMinute(rate, burst int) redis_rate.Limit {
	return redis_rate.Limit{Rate: rate, Burst: burst, Period: time.Minute}
}

func PerHour(rate, burst int) redis_rate.Limit {
	return redis_rate.Limit{Rate: rate, Burst: burst, Period: time.Hour}
}

// ConfigLimit builds the global limit from configuration. A missing
// window means per minute.
func ConfigLimit(cfg config.RateLimitConfig) redis_rate.Limit {
	period := cfg.Window
	if period <= 0 {
		period = time.Minute
	}
	return redis_rate.Limit{Rate: cfg.Requests, Burst: cfg.Burst, Period: period}
}

func KeyByIP(r *http.Request) string {
	return "ratelimit:ip:" + ClientIP(r)
}

// KeyByIPIn keys by client IP inside its own namespace so a limiter
// stacked under the global KeyByIP limiter keeps a separate bucket.
func KeyByIPIn(scope string) func(*http.Request) string {
	prefix := "ratelimit:" + scope + ":ip:"
	return func(r *http.Request) string {
		return prefix + ClientIP(r)
	}
}

func KeyByUser(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != "" {
		return "ratelimit:user:" + userID
	}
	return KeyByIP(r)
}

// KeyByUserAndEndpoint scopes the user key to the route shape so that
// /waitlist/{id}/notify shares one bucket across entries.
func KeyByUserAndEndpoint(r *http.Request) string {
	return KeyByUser(r) + ":endpoint:" + normalizeEndpoint(r.URL.Path)
}

// ClientIP takes the hop appended by the nearest proxy, then X-Real-IP,
// then the socket peer.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		return strings.TrimSpace(hops[len(hops)-1])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func normalizeEndpoint(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		if looksLikeID(part) {
			parts[i] = "{id}"
		}
	}
	return "/" + strings.Join(parts, "/")
}

func looksLikeID(s string) bool {
	if len(s) == 36 && s[8] == '-' && s[13] == '-' && s[18] == '-' && s[23] == '-' {
		return true
	}
	if s == "" {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}

func setRateLimitHeaders(w http.ResponseWriter, res *redis_rate.Result, limit redis_rate.Limit) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(res.ResetAfter).Unix(), 10))
	h.Set("RateLimit-Policy", fmt.Sprintf("%d;w=%d", limit.Rate, int(limit.Period.Seconds())))
	h.Set("RateLimit", fmt.Sprintf("%d;t=%d", res.Remaining, int(res.ResetAfter.Seconds())))
}

func writeRateLimitExceeded(w http.ResponseWriter, res *redis_rate.Result) {
	retryAfter := max(int(res.RetryAfter.Seconds()), 1)

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	//nolint:errcheck // best-effort response write
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error": map[string]string{
			"code":    "RATE_LIMITED",
			"message": fmt.Sprintf("Rate limit exceeded. Retry after %d seconds.", retryAfter),
		},
	})
}

type redisCounter struct {
	limiter  *redis_rate.Limiter
	fallback *memoryCounter
}

func (c *redisCounter) allow(
	ctx context.Context,
	key string,
	limit redis_rate.Limit,
) (*redis_rate.Result, error) {
	res, err := c.limiter.Allow(ctx, key, limit)
	if err != nil {
		slog.Debug("redis rate limit unavailable", "error", err)
		return c.fallback.allow(ctx, key, limit)
	}
	return res, nil
}

const bucketIdleTTL = 10 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// memoryCounter keeps a token bucket per key. Idle buckets are swept
// inline at most once per bucketIdleTTL.
type memoryCounter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newMemoryCounter() *memoryCounter {
	return &memoryCounter{buckets: make(map[string]*bucket), lastSweep: time.Now()}
}

func (c *memoryCounter) allow(
	_ context.Context,
	key string,
	limit redis_rate.Limit,
) (*redis_rate.Result, error) {
	if limit.Rate <= 0 || limit.Period <= 0 {
		return nil, fmt.Errorf("invalid rate limit %s", limit)
	}
	perSec := float64(limit.Rate) / limit.Period.Seconds()
	interval := time.Duration(float64(time.Second) / perSec)
	now := time.Now()

	c.mu.Lock()
	c.sweep(now)
	b, ok := c.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(perSec), limit.Burst)}
		c.buckets[key] = b
	}
	b.lastSeen = now
	allowed := b.limiter.AllowN(now, 1)
	remaining := max(int(b.limiter.TokensAt(now)), 0)
	c.mu.Unlock()

	res := &redis_rate.Result{
		Limit:      limit,
		Remaining:  remaining,
		RetryAfter: -1,
		ResetAfter: interval,
	}
	if allowed {
		res.Allowed = 1
	} else {
		res.RetryAfter = interval
	}
	return res, nil
}

func (c *memoryCounter) sweep(now time.Time) {
	if now.Sub(c.lastSweep) < bucketIdleTTL {
		return
	}
	c.lastSweep = now
	for key, b := range c.buckets {
		if now.Sub(b.lastSeen) > bucketIdleTTL {
			delete(c.buckets, key)
		}
	}
}
