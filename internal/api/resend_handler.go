package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/microlearning/site-api/internal/domain"
	"github.com/microlearning/site-api/internal/metrics"
	"github.com/microlearning/site-api/internal/pkg/httputil"
	"github.com/microlearning/site-api/internal/service/resend"
)

type sweepResponse struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Result    *resend.Result `json:"result"`
	Duration  string         `json:"duration"`
	Timestamp string         `json:"timestamp"`
}

type statusResponse struct {
	Success   bool          `json:"success"`
	Message   string        `json:"message"`
	Stats     *resend.Stats `json:"stats"`
	Timestamp string        `json:"timestamp"`
}

// authorized compares the bearer token by exact string match. An empty
// configured token disables the check.
func (h *Handlers) authorized(r *http.Request) bool {
	if h.resendToken == "" {
		return true
	}
	return r.Header.Get("Authorization") == "Bearer "+h.resendToken
}

// TriggerResend handles POST /api/resend-confirmations.
func (h *Handlers) TriggerResend(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		httputil.Unauthorized(w)
		return
	}

	start := time.Now()
	// a sweep runs to completion even if the caller disconnects
	res, err := h.sweeps.RunSweep(context.WithoutCancel(r.Context()))
	if errors.Is(err, resend.ErrSweepInProgress) {
		metrics.RecordSweepNotRun(metrics.SweepLocked)
		httputil.Conflict(w, "Resend confirmation routine is already running")
		return
	}
	if err != nil {
		metrics.RecordSweepNotRun(metrics.SweepError)
		httputil.InternalError(w, r, "Internal server error", err)
		return
	}
	elapsed := time.Since(start)
	metrics.RecordSweep(res.Sent, res.Failed, res.Skipped, elapsed)

	httputil.OK(w, sweepResponse{
		Success:   true,
		Message:   "Resend confirmation routine completed",
		Result:    res,
		Duration:  fmt.Sprintf("%dms", elapsed.Milliseconds()),
		Timestamp: string(domain.NewTimestamp(time.Now())),
	})
}

// ResendStatus handles GET /api/resend-confirmations.
func (h *Handlers) ResendStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := h.sweeps.Stats(r.Context())
	if err != nil {
		httputil.InternalError(w, r, "Failed to fetch system status", err)
		return
	}
	httputil.OK(w, statusResponse{
		Success:   true,
		Message:   "System status",
		Stats:     stats,
		Timestamp: string(domain.NewTimestamp(time.Now())),
	})
}
