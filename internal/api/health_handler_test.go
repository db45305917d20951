package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(_ context.Context) error { return f.err }

func TestHealth_StoreUpRedisNotConfigured(t *testing.T) {
	hc := NewHealthChecker(fakePinger{}, "sheets", nil)
	router := SetupRoutes(NewHandlers(&mockContacts{}, &mockSweeps{}, ""), hc, nil)

	rec, body := do(t, router, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])

	rec, body = do(t, router, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ready"])
}

func TestHealth_StoreDown(t *testing.T) {
	hc := NewHealthChecker(fakePinger{err: errors.New("403 from sheets")}, "sheets", nil)
	router := SetupRoutes(NewHandlers(&mockContacts{}, &mockSweeps{}, ""), hc, nil)

	rec, body := do(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "unhealthy", body["status"])

	rec, body = do(t, router, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, false, body["ready"])

	rec, _ = do(t, router, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	hc := NewHealthChecker(fakePinger{}, "postgres", client)
	checks := hc.runAllChecks(context.Background())
	assert.Equal(t, "up", checks["redis"].Status)
	assert.Equal(t, "up", checks["store"].Status)
	assert.Equal(t, "healthy", determineOverallStatus(checks))
}

func TestDetermineOverallStatus(t *testing.T) {
	assert.Equal(t, "degraded", determineOverallStatus(map[string]ComponentCheck{
		"store": {Status: "up"},
		"redis": {Status: "down", Message: "ping failed: refused"},
	}))
	assert.Equal(t, "healthy", determineOverallStatus(map[string]ComponentCheck{
		"store": {Status: "up"},
		"redis": {Status: "down", Message: notConfigured},
	}))
}

func TestMetricsEndpoint(t *testing.T) {
	router := SetupRoutes(NewHandlers(&mockContacts{}, &mockSweeps{}, ""), nil, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
