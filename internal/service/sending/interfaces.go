// Package sending defines the interfaces for transactional email delivery.
//
// The contact and resend services depend on Sender. The mailing package
// implements Sender by rendering a template and handing the message to a
// Transport (SES in production, a logging transport in development).
package sending

import (
	"context"
	"errors"

	"github.com/microlearning/site-api/internal/domain"
)

// ErrSendFailed wraps every failure to hand a message to the provider,
// including a provider that is not configured.
var ErrSendFailed = errors.New("email send failed")

// Sender sends one templated email synchronously. A nil error means the
// provider accepted the message. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, tmpl domain.EmailTemplate, req domain.EmailRequest) error
}

// Transport delivers a fully rendered message through a provider.
type Transport interface {
	Deliver(ctx context.Context, msg *domain.EmailMessage) (*domain.SendResult, error)
}
