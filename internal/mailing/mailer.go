package mailing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/microlearning/site-api/internal/config"
	"github.com/microlearning/site-api/internal/domain"
	"github.com/microlearning/site-api/internal/pkg/logger"
	"github.com/microlearning/site-api/internal/service/sending"
)

// ErrNotConfigured is returned when no delivery transport is available.
var ErrNotConfigured = errors.New("email provider not configured")

// Mailer implements sending.Sender on top of a Transport.
type Mailer struct {
	templates *TemplateService
	transport sending.Transport
	email     config.EmailConfig
	site      config.SiteConfig
	now       func() time.Time
}

var _ sending.Sender = (*Mailer)(nil)

// NewMailer creates a mailer. A nil transport is allowed: every send then
// fails with ErrNotConfigured, which the contact pipeline treats like any
// other provider failure.
func NewMailer(transport sending.Transport, email config.EmailConfig, site config.SiteConfig) *Mailer {
	return &Mailer{
		templates: NewTemplateService(),
		transport: transport,
		email:     email,
		site:      site,
		now:       time.Now,
	}
}

// Render builds the message for tmpl without sending it.
func (m *Mailer) Render(tmpl domain.EmailTemplate, req domain.EmailRequest) (*domain.EmailMessage, error) {
	t, ok := defaultTemplates[tmpl]
	if !ok {
		return nil, fmt.Errorf("unknown email template %q", tmpl)
	}

	bindings := map[string]interface{}{
		"name":        req.Name,
		"email":       req.To,
		"message":     req.Message,
		"has_message": strings.TrimSpace(req.Message) != "",
		"site_name":   m.site.Name,
		"site_url":    m.site.URL,
		"contact_url": m.site.ContactURL(),
		"tagline":     m.site.Tagline,
		"year":        m.now().Year(),
	}

	subject, err := m.templates.Render(string(tmpl)+":subject", t.Subject, bindings)
	if err != nil {
		return nil, err
	}
	htmlBody, err := m.templates.Render(string(tmpl)+":html", t.HTML, bindings)
	if err != nil {
		return nil, err
	}
	textBody, err := m.templates.Render(string(tmpl)+":text", t.Text, bindings)
	if err != nil {
		return nil, err
	}

	return &domain.EmailMessage{
		To:          req.To,
		FromName:    m.email.FromName,
		FromEmail:   m.email.FromEmail,
		ReplyTo:     m.email.ReplyTo,
		Subject:     strings.TrimSpace(subject),
		HTMLContent: htmlBody,
		TextContent: textBody,
		Tags: map[string]string{
			"template":   string(tmpl),
			"message_id": uuid.NewString(),
		},
	}, nil
}

// Send renders tmpl and delivers it. Every failure wraps sending.ErrSendFailed.
func (m *Mailer) Send(ctx context.Context, tmpl domain.EmailTemplate, req domain.EmailRequest) error {
	if m.transport == nil {
		return fmt.Errorf("%w: %w", sending.ErrSendFailed, ErrNotConfigured)
	}

	msg, err := m.Render(tmpl, req)
	if err != nil {
		return fmt.Errorf("%w: %v", sending.ErrSendFailed, err)
	}

	if timeout := m.email.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := m.transport.Deliver(ctx, msg)
	if err != nil {
		return fmt.Errorf("%w: %w", sending.ErrSendFailed, err)
	}

	logger.Info("email sent", "template", string(tmpl), "to", req.To, "provider", result.Provider, "provider_message_id", result.MessageID)
	return nil
}

// LogTransport writes messages to the log instead of sending them. It is
// selected with email.provider: log for local development.
type LogTransport struct{}

// Deliver logs the message and reports success.
func (LogTransport) Deliver(_ context.Context, msg *domain.EmailMessage) (*domain.SendResult, error) {
	logger.Info("email delivery skipped (log provider)", "to", msg.To, "subject", msg.Subject)
	return &domain.SendResult{
		MessageID: "log-" + uuid.NewString(),
		Provider:  config.EmailProviderLog,
		SentAt:    time.Now(),
	}, nil
}
