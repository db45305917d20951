package api

import (
	"context"

	"github.com/microlearning/site-api/internal/service/contact"
	"github.com/microlearning/site-api/internal/service/resend"
)

// ContactSubmitter accepts contact form submissions.
type ContactSubmitter interface {
	Submit(ctx context.Context, name, email, message string) (*contact.Result, error)
}

// SweepService runs and reports on the follow-up sweep.
type SweepService interface {
	RunSweep(ctx context.Context) (*resend.Result, error)
	Stats(ctx context.Context) (*resend.Stats, error)
}

// Handlers contains the HTTP handlers for the site API.
type Handlers struct {
	contacts    ContactSubmitter
	sweeps      SweepService
	resendToken string
}

// NewHandlers creates handlers. An empty resendToken leaves the sweep
// trigger open.
func NewHandlers(contacts ContactSubmitter, sweeps SweepService, resendToken string) *Handlers {
	return &Handlers{
		contacts:    contacts,
		sweeps:      sweeps,
		resendToken: resendToken,
	}
}
