package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	statusConnected    = "connected"
	statusDisconnected = "disconnected"
	statusDisabled     = "disabled"
)

const probeTimeout = 2 * time.Second

// DBPinger PostgreSQL 连接池
type DBPinger interface {
	Ping(ctx context.Context) error
}

// RedisPinger Redis 客户端
type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// NATSConn NATS 连接
type NATSConn interface {
	IsConnected() bool
}

// Status 健康状态
type Status struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
	NATS     string `json:"nats"`
}

// Healthy 所有启用的依赖都已连接
func (s *Status) Healthy() bool {
	for _, v := range []string{s.Database, s.Redis, s.NATS} {
		if v == statusDisconnected {
			return false
		}
	}
	return true
}

// Checker 健康检查器，未配置的依赖记为 disabled
type Checker struct {
	db    DBPinger
	redis RedisPinger
	nc    NATSConn
}

// NewChecker 创建健康检查器
func NewChecker(db DBPinger, redisClient RedisPinger, nc NATSConn) *Checker {
	return &Checker{
		db:    db,
		redis: redisClient,
		nc:    nc,
	}
}

// Check 执行健康检查
func (h *Checker) Check(ctx context.Context) *Status {
	status := &Status{
		Database: statusDisabled,
		Redis:    statusDisabled,
		NATS:     statusDisabled,
	}

	// 检查 PostgreSQL
	if h.db != nil {
		dbCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		status.Database = connected(h.db.Ping(dbCtx) == nil)
		cancel()
	}

	// 检查 Redis
	if h.redis != nil {
		redisCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		status.Redis = connected(h.redis.Ping(redisCtx).Err() == nil)
		cancel()
	}

	// 检查 NATS
	if h.nc != nil {
		status.NATS = connected(h.nc.IsConnected())
	}

	return status
}

// IsHealthy 检查是否健康
func (h *Checker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx).Healthy()
}

// ServeHTTP HTTP 健康检查端点，返回各依赖状态
func (h *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if status.Healthy() {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}

// Ready 就绪探针
func (h *Checker) Ready(w http.ResponseWriter, r *http.Request) {
	if h.IsHealthy(r.Context()) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("Not Ready"))
}

func connected(ok bool) string {
	if ok {
		return statusConnected
	}
	return statusDisconnected
}
