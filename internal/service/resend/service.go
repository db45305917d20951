package resend

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/microlearning/site-api/internal/domain"
	"github.com/microlearning/site-api/internal/pkg/logger"
	"github.com/microlearning/site-api/internal/service/sending"
)

// DefaultThreshold is the wait between confirmation and follow-up.
const DefaultThreshold = 24 * time.Hour

// RecordError describes one record the sweep could not finish.
type RecordError struct {
	RowIndex int    `json:"rowIndex"`
	Email    string `json:"email"`
	Error    string `json:"error"`
}

// Result summarizes one sweep.
type Result struct {
	RunID     string        `json:"runId"`
	TotalRows int           `json:"totalRows"`
	Eligible  int           `json:"eligible"`
	Sent      int           `json:"sent"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Errors    []RecordError `json:"errors"`

	// Aborted is set when the sweep lock was lost mid-run. Records after
	// that point were left for the next sweep.
	Aborted bool `json:"aborted,omitempty"`

	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"-"`
}

// Stats is the status snapshot served on GET.
type Stats struct {
	TotalContacts    int `json:"totalContacts"`
	ConfirmationSent int `json:"confirmationSent"`
	ResendSent       int `json:"resendSent"`
	Pending          int `json:"pending"`
	Confirmed        int `json:"confirmed"`
	Resent           int `json:"resent"`
	Replied          int `json:"replied"`
	Eligible         int `json:"eligible"`
}

// outcome is the per-record result. err is nil when the follow-up went
// out and the row was marked.
type outcome struct {
	rec domain.ContactRecord
	err error
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithReportStore archives every finished sweep under reports.
func WithReportStore(reports ReportStore) Option {
	return func(s *Service) { s.reports = reports }
}

// WithLock makes every sweep hold a lock from newLock for its duration.
// A fresh lock is requested per sweep.
func WithLock(newLock func() Lock) Option {
	return func(s *Service) { s.newLock = newLock }
}

// Service runs sweeps. Concurrent sweeps in one process are only
// serialized when a lock is configured.
type Service struct {
	repo      Repository
	sender    sending.Sender
	threshold time.Duration
	now       func() time.Time
	reports   ReportStore
	newLock   func() Lock
}

// NewService creates a sweep service. A non-positive threshold means
// DefaultThreshold.
func NewService(repo Repository, sender sending.Sender, threshold time.Duration, opts ...Option) *Service {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	s := &Service{
		repo:      repo,
		sender:    sender,
		threshold: threshold,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Threshold returns the configured eligibility threshold.
func (s *Service) Threshold() time.Duration { return s.threshold }

// RunSweep sends the follow-up email to every eligible record. The
// returned error is non-nil only when the sweep could not start: the lock
// is held elsewhere (ErrSweepInProgress) or the records could not be read.
func (s *Service) RunSweep(ctx context.Context) (*Result, error) {
	var lock Lock
	if s.newLock != nil {
		lock = s.newLock()
		ok, err := lock.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquiring sweep lock: %w", err)
		}
		if !ok {
			return nil, ErrSweepInProgress
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("failed to release sweep lock", "error", err)
			}
		}()
	}

	start := s.now()
	res := &Result{
		RunID:     uuid.NewString(),
		StartedAt: start,
		Errors:    []RecordError{},
	}

	records, err := s.repo.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading contacts: %w", err)
	}
	res.TotalRows = len(records)

	eligible := make([]domain.ContactRecord, 0)
	for _, rec := range records {
		ok, err := Eligible(rec, start, s.threshold)
		if err != nil {
			logger.Warn("skipping record with unreadable confirmation time",
				"row_index", rec.RowIndex, "email", rec.Email, "error", err)
			res.Skipped++
			continue
		}
		if ok {
			eligible = append(eligible, rec)
		}
	}
	res.Eligible = len(eligible)

	logger.Info("resend sweep started", "run_id", res.RunID, "total_rows", res.TotalRows, "eligible", res.Eligible)

	for _, rec := range eligible {
		if !s.stillLocked(ctx, lock) {
			res.Aborted = true
			break
		}
		out := s.process(ctx, rec)
		if out.err != nil {
			res.Failed++
			res.Errors = append(res.Errors, RecordError{
				RowIndex: rec.RowIndex,
				Email:    rec.Email,
				Error:    out.err.Error(),
			})
			logger.Error("resend failed", "row_index", rec.RowIndex, "email", rec.Email, "error", out.err)
			continue
		}
		res.Sent++
	}

	res.Duration = s.now().Sub(start)
	logger.Info("resend sweep finished",
		"run_id", res.RunID,
		"eligible", res.Eligible,
		"sent", res.Sent,
		"failed", res.Failed,
		"skipped", res.Skipped,
		"aborted", res.Aborted,
		"duration_ms", res.Duration.Milliseconds(),
	)

	s.archive(ctx, res)
	return res, nil
}

// stillLocked renews an expiring lock. A lost lock or a backend error
// stops the sweep, since another sweep may now be sending.
func (s *Service) stillLocked(ctx context.Context, lock Lock) bool {
	r, ok := lock.(Refresher)
	if !ok {
		return true
	}
	held, err := r.Refresh(context.WithoutCancel(ctx))
	if err != nil {
		logger.Error("sweep lock refresh failed, stopping sweep", "error", err)
		return false
	}
	if !held {
		logger.Error("sweep lock lost, stopping sweep")
		return false
	}
	return true
}

// process sends the follow-up to one record and marks its row. The row is
// only updated after the provider accepted the email.
func (s *Service) process(ctx context.Context, rec domain.ContactRecord) (out outcome) {
	out.rec = rec
	defer func() {
		if r := recover(); r != nil {
			out.err = fmt.Errorf("panic: %v", r)
		}
	}()

	err := s.sender.Send(ctx, domain.TemplateResend, domain.EmailRequest{
		To:      rec.Email,
		Name:    rec.Name,
		Message: rec.Message,
	})
	if err != nil {
		out.err = err
		return out
	}

	// Once the provider accepted the email the row must be marked, or the
	// next sweep sends it again.
	if err := s.repo.UpdateByIndex(context.WithoutCancel(ctx), rec.RowIndex, domain.ResendCompleted(s.now())); err != nil {
		out.err = fmt.Errorf("email sent but row %d not marked: %w", rec.RowIndex, err)
		return out
	}
	return out
}

// archive stores the report. Failures are logged only.
func (s *Service) archive(ctx context.Context, res *Result) {
	if s.reports == nil {
		return
	}
	key := ReportKey(res.StartedAt, res.RunID)
	report := struct {
		*Result
		DurationMS int64  `json:"durationMs"`
		Threshold  string `json:"threshold"`
	}{res, res.Duration.Milliseconds(), s.threshold.String()}

	if err := s.reports.SaveJSON(ctx, key, report); err != nil {
		logger.Warn("failed to archive sweep report", "run_id", res.RunID, "key", key, "error", err)
		return
	}
	logger.Debug("sweep report archived", "run_id", res.RunID, "key", key)
}

// ReportKey is the object key a sweep report is archived under.
func ReportKey(startedAt time.Time, runID string) string {
	return fmt.Sprintf("resend-sweeps/%s/%s.json", startedAt.UTC().Format("2006/01/02"), runID)
}

// Stats counts records per state. Eligible is computed with the same
// predicate a sweep would use right now.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	records, err := s.repo.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading contacts: %w", err)
	}

	now := s.now()
	st := &Stats{TotalContacts: len(records)}
	for _, rec := range records {
		if rec.ConfirmationSent.IsYes() {
			st.ConfirmationSent++
		}
		if rec.ResendSent.IsYes() {
			st.ResendSent++
		}
		switch rec.Status {
		case domain.StatusPending:
			st.Pending++
		case domain.StatusConfirmed:
			st.Confirmed++
		case domain.StatusResent:
			st.Resent++
		case domain.StatusReplied:
			st.Replied++
		}
		if ok, _ := Eligible(rec, now, s.threshold); ok {
			st.Eligible++
		}
	}
	return st, nil
}
