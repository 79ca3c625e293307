// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/waitlist-backend/internal/access"
	"github.com/carterperez-dev/waitlist-backend/internal/core"
)

type BusinessCounter interface {
	Count(ctx context.Context) (total, active int, err error)
}

type CustomerCounter interface {
	Count(ctx context.Context) (int, error)
}

type UserCounter interface {
	CountByRole(ctx context.Context) (map[access.Role]int, error)
}

// TokenPurger drops refresh tokens that are long past their expiry.
type TokenPurger interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// StatusCounter reports row totals keyed by status name.
type StatusCounter func(ctx context.Context) (map[string]int, error)

// CountsByStatus adapts a repository counter keyed by a string-backed
// status type.
func CountsByStatus[S ~string](fn func(ctx context.Context) (map[S]int, error)) StatusCounter {
	return func(ctx context.Context) (map[string]int, error) {
		counts, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		out := make(map[string]int, len(counts))
		for k, v := range counts {
			out[string(k)] = v
		}
		return out, nil
	}
}

type Handler struct {
	dbStats       func() sql.DBStats
	redisStats    func() *redis.PoolStats
	redisPing     func(ctx context.Context) error
	dbPing        func(ctx context.Context) error
	businesses    BusinessCounter
	customers     CustomerCounter
	users         UserCounter
	reservations  StatusCounter
	waitlist      StatusCounter
	subscriptions StatusCounter
	tokens        TokenPurger
}

// HandlerConfig wires the stat sources. Any of them may be nil; redis is
// left nil when it is not configured.
type HandlerConfig struct {
	DBStats       func() sql.DBStats
	RedisStats    func() *redis.PoolStats
	RedisPing     func(ctx context.Context) error
	DBPing        func(ctx context.Context) error
	Businesses    BusinessCounter
	Customers     CustomerCounter
	Users         UserCounter
	Reservations  StatusCounter
	Waitlist      StatusCounter
	Subscriptions StatusCounter
	Tokens        TokenPurger
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		dbStats:       cfg.DBStats,
		redisStats:    cfg.RedisStats,
		redisPing:     cfg.RedisPing,
		dbPing:        cfg.DBPing,
		businesses:    cfg.Businesses,
		customers:     cfg.Customers,
		users:         cfg.Users,
		reservations:  cfg.Reservations,
		waitlist:      cfg.Waitlist,
		subscriptions: cfg.Subscriptions,
		tokens:        cfg.Tokens,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/stats", h.GetSystemStats)
		r.Get("/stats/db", h.GetDatabaseStats)
		r.Get("/stats/redis", h.GetRedisStats)
		r.Get("/stats/runtime", h.GetRuntimeStats)
		r.Get("/stats/platform", h.GetPlatformStats)
		r.Post("/maintenance/purge-tokens", h.PurgeExpiredTokens)
	})
}

type PurgeResponse struct {
	Deleted int64 `json:"deleted"`
}

// PurgeExpiredTokens runs the refresh token cleanup on demand.
func (h *Handler) PurgeExpiredTokens(w http.ResponseWriter, r *http.Request) {
	if h.tokens == nil {
		core.JSONError(w, core.NewAppError(core.ErrNotConfigured,
			"token cleanup is not configured", http.StatusNotImplemented, "NOT_CONFIGURED"))
		return
	}

	n, err := h.tokens.CleanupExpired(r.Context())
	if err != nil {
		core.WriteError(w, err, "refresh token")
		return
	}

	core.OK(w, PurgeResponse{Deleted: n})
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbHealthy := true
	if h.dbPing != nil {
		if err := h.dbPing(ctx); err != nil {
			dbHealthy = false
		}
	}

	redisHealthy := false
	if h.redisPing != nil {
		redisHealthy = true
		if err := h.redisPing(ctx); err != nil {
			redisHealthy = false
		}
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response := SystemStatsResponse{
		Database: DatabaseStatus{
			Healthy: dbHealthy,
			Stats:   h.getDBStats(),
		},
		Redis: RedisStatus{
			Enabled: h.redisPing != nil,
			Healthy: redisHealthy,
			Stats:   h.getRedisStats(),
		},
		Runtime: RuntimeStats{
			GoVersion:    runtime.Version(),
			NumGoroutine: runtime.NumGoroutine(),
			NumCPU:       runtime.NumCPU(),
			MemAlloc:     memStats.Alloc,
			MemSys:       memStats.Sys,
			NumGC:        memStats.NumGC,
		},
	}

	core.OK(w, response)
}

func (h *Handler) GetDatabaseStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.getDBStats())
}

func (h *Handler) GetRedisStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.getRedisStats())
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response := RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}

	core.OK(w, response)
}

// GetPlatformStats reports record counts across every business.
func (h *Handler) GetPlatformStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.platformStats(r.Context())
	if err != nil {
		core.WriteError(w, err, "stats")
		return
	}

	core.OK(w, stats)
}

func (h *Handler) platformStats(ctx context.Context) (*PlatformStats, error) {
	stats := &PlatformStats{
		Users:         map[string]int{},
		Reservations:  map[string]int{},
		Waitlist:      map[string]int{},
		Subscriptions: map[string]int{},
	}

	if h.businesses != nil {
		total, active, err := h.businesses.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count businesses: %w", err)
		}
		stats.Businesses = BusinessTotals{Total: total, Active: active}
	}

	if h.customers != nil {
		n, err := h.customers.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count customers: %w", err)
		}
		stats.Customers = n
	}

	if h.users != nil {
		byRole, err := h.users.CountByRole(ctx)
		if err != nil {
			return nil, fmt.Errorf("count users: %w", err)
		}
		for role, n := range byRole {
			stats.Users[string(role)] = n
		}
	}

	counters := []struct {
		name string
		fn   StatusCounter
		dst  map[string]int
	}{
		{"reservations", h.reservations, stats.Reservations},
		{"waitlist", h.waitlist, stats.Waitlist},
		{"subscriptions", h.subscriptions, stats.Subscriptions},
	}
	for _, c := range counters {
		if c.fn == nil {
			continue
		}
		counts, err := c.fn(ctx)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", c.name, err)
		}
		maps.Copy(c.dst, counts)
	}

	return stats, nil
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
		MaxIdleClosed:      stats.MaxIdleClosed,
		MaxIdleTimeClosed:  stats.MaxIdleTimeClosed,
		MaxLifetimeClosed:  stats.MaxLifetimeClosed,
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}

type BusinessTotals struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

type PlatformStats struct {
	Businesses    BusinessTotals `json:"businesses"`
	Customers     int            `json:"customers"`
	Users         map[string]int `json:"users"`
	Reservations  map[string]int `json:"reservations"`
	Waitlist      map[string]int `json:"waitlist"`
	Subscriptions map[string]int `json:"subscriptions"`
}

type SystemStatsResponse struct {
	Database DatabaseStatus `json:"database"`
	Redis    RedisStatus    `json:"redis"`
	Runtime  RuntimeStats   `json:"runtime"`
}

type DatabaseStatus struct {
	Healthy bool         `json:"healthy"`
	Stats   *DBPoolStats `json:"stats,omitempty"`
}

type RedisStatus struct {
	Enabled bool            `json:"enabled"`
	Healthy bool            `json:"healthy"`
	Stats   *RedisPoolStats `json:"stats,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
	MaxIdleClosed      int64  `json:"max_idle_closed"`
	MaxIdleTimeClosed  int64  `json:"max_idle_time_closed"`
	MaxLifetimeClosed  int64  `json:"max_lifetime_closed"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
	StaleConns uint32 `json:"stale_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}
