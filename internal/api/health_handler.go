package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/microlearning/site-api/internal/pkg/httputil"
)

// HealthStatus represents the overall health of the system.
type HealthStatus struct {
	Status  string                    `json:"status"` // "healthy", "degraded", "unhealthy"
	Version string                    `json:"version"`
	Uptime  string                    `json:"uptime"`
	Checks  map[string]ComponentCheck `json:"checks"`
}

// ComponentCheck represents the health of a single component.
type ComponentCheck struct {
	Status  string `json:"status"` // "up", "down", "degraded"
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// Pinger is a dependency that can prove it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker reports on the contact store and Redis.
type HealthChecker struct {
	store       Pinger
	storeType   string
	redisClient *redis.Client
	startTime   time.Time
}

// NewHealthChecker creates a new HealthChecker. redisClient may be nil.
func NewHealthChecker(store Pinger, storeType string, redisClient *redis.Client) *HealthChecker {
	return &HealthChecker{
		store:       store,
		storeType:   storeType,
		redisClient: redisClient,
		startTime:   time.Now(),
	}
}

const healthVersion = "1.0.0"

const notConfigured = "not configured"

// HandleHealth returns the status of every component. Always 200; the
// body carries the verdict.
//
//	GET /health
func (hc *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks := hc.runAllChecks(r.Context())

	httputil.OK(w, HealthStatus{
		Status:  determineOverallStatus(checks),
		Version: healthVersion,
		Uptime:  formatUptime(time.Since(hc.startTime)),
		Checks:  checks,
	})
}

// HandleLiveness always returns 200 while the process runs.
//
//	GET /health/live
func (hc *HealthChecker) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]interface{}{
		"status": "alive",
		"uptime": formatUptime(time.Since(hc.startTime)),
	})
}

// HandleReadiness returns 503 when the contact store is unreachable.
//
//	GET /health/ready
func (hc *HealthChecker) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	checks := hc.runAllChecks(r.Context())
	overall := determineOverallStatus(checks)

	ready := overall != "unhealthy"
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	httputil.JSON(w, status, map[string]interface{}{
		"ready":  ready,
		"status": overall,
		"checks": checks,
	})
}

func (hc *HealthChecker) runAllChecks(ctx context.Context) map[string]ComponentCheck {
	checkers := map[string]func(context.Context) ComponentCheck{
		"store": hc.checkStore,
		"redis": hc.checkRedis,
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		checks = make(map[string]ComponentCheck, len(checkers))
	)
	for name, check := range checkers {
		wg.Add(1)
		go func(name string, check func(context.Context) ComponentCheck) {
			defer wg.Done()
			c := check(ctx)
			mu.Lock()
			checks[name] = c
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()
	return checks
}

// checkStore does one cheap read against the contact store.
func (hc *HealthChecker) checkStore(ctx context.Context) ComponentCheck {
	if hc.store == nil {
		return ComponentCheck{Status: "down", Message: notConfigured}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	err := hc.store.Ping(pingCtx)
	latency := time.Since(start)

	if err != nil {
		return ComponentCheck{
			Status:  "down",
			Latency: latency.String(),
			Message: fmt.Sprintf("%s store unreachable: %v", hc.storeType, err),
		}
	}

	status := "up"
	msg := fmt.Sprintf("%s store reachable", hc.storeType)
	if latency > 2*time.Second {
		status = "degraded"
		msg = fmt.Sprintf("slow response (%s)", latency)
	}
	return ComponentCheck{Status: status, Latency: latency.String(), Message: msg}
}

// checkRedis pings Redis with a 2-second timeout.
func (hc *HealthChecker) checkRedis(ctx context.Context) ComponentCheck {
	if hc.redisClient == nil {
		return ComponentCheck{Status: "down", Message: notConfigured}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := hc.redisClient.Ping(pingCtx).Err()
	latency := time.Since(start)

	if err != nil {
		return ComponentCheck{
			Status:  "down",
			Latency: latency.String(),
			Message: fmt.Sprintf("ping failed: %v", err),
		}
	}

	status := "up"
	msg := "connected"
	if latency > 500*time.Millisecond {
		status = "degraded"
		msg = fmt.Sprintf("slow response (%s)", latency)
	}
	return ComponentCheck{Status: status, Latency: latency.String(), Message: msg}
}

// determineOverallStatus is "unhealthy" when the contact store is down and
// "degraded" when anything else is slow or a configured Redis is down.
func determineOverallStatus(checks map[string]ComponentCheck) string {
	if store, ok := checks["store"]; ok && store.Status == "down" {
		return "unhealthy"
	}
	for _, c := range checks {
		if c.Status == "degraded" {
			return "degraded"
		}
		if c.Status == "down" && c.Message != notConfigured {
			return "degraded"
		}
	}
	return "healthy"
}

func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
