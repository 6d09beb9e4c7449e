package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/wealthmap/internal/middleware"
	"golang.org/x/sync/errgroup"
)

const (
	APIVersion         = "0.1.0"
	HealthCheckTimeout = 2 * time.Second
)

// Pinger is a dependency the service cannot serve without.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionCounter reports how many map sessions are live.
type SessionCounter interface {
	Len() int
}

// HealthHandler serves liveness, readiness and build info.
type HealthHandler struct {
	deps      map[string]Pinger
	sessions  SessionCounter
	startTime time.Time
	env       string
}

// NewHealthHandler creates a HealthHandler. deps are probed by name on
// every readiness check; sessions may be nil.
func NewHealthHandler(deps map[string]Pinger, sessions SessionCounter, env string) *HealthHandler {
	return &HealthHandler{
		deps:      deps,
		sessions:  sessions,
		startTime: time.Now(),
		env:       env,
	}
}

type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse reports "up" or "down" per dependency.
type ReadyResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
}

type InfoResponse struct {
	Version        string `json:"version"`
	Environment    string `json:"environment"`
	Uptime         string `json:"uptime"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	ActiveSessions int    `json:"active_sessions"`
}

// Health is the liveness probe. It never touches dependencies.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy"})
}

// Ready pings every dependency in parallel and answers 503 if any is down.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
	defer cancel()

	var (
		mu     sync.Mutex
		status = make(map[string]string, len(h.deps))
		down   int
	)
	var g errgroup.Group
	for name, dep := range h.deps {
		g.Go(func() error {
			err := dep.Ping(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				status[name] = "down"
				down++
				if log := middleware.GetLogger(c); log != nil {
					log.Error("Readiness check failed", err, map[string]interface{}{
						"dependency": name,
						"timeout":    HealthCheckTimeout.String(),
					})
				}
				return nil
			}
			status[name] = "up"
			return nil
		})
	}
	_ = g.Wait()

	if down > 0 {
		c.Header("Retry-After", "5")
		c.JSON(http.StatusServiceUnavailable, ReadyResponse{Status: "not_ready", Dependencies: status})
		return
	}
	c.JSON(http.StatusOK, ReadyResponse{Status: "ready", Dependencies: status})
}

// Info handles GET /api/v1/info.
func (h *HealthHandler) Info(c *gin.Context) {
	uptime := time.Since(h.startTime)
	resp := InfoResponse{
		Version:       APIVersion,
		Environment:   h.env,
		Uptime:        formatUptime(uptime),
		UptimeSeconds: int64(uptime / time.Second),
	}
	if h.sessions != nil {
		resp.ActiveSessions = h.sessions.Len()
	}
	c.JSON(http.StatusOK, resp)
}

// formatUptime renders d as "2d 3h 4m 5s", dropping the day part when zero.
func formatUptime(d time.Duration) string {
	total := int64(d / time.Second)
	days := total / 86400
	hours := total % 86400 / 3600
	minutes := total % 3600 / 60
	seconds := total % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
