package mailing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microlearning/site-api/internal/config"
	"github.com/microlearning/site-api/internal/domain"
	"github.com/microlearning/site-api/internal/service/sending"
)

type recordingTransport struct {
	sent []*domain.EmailMessage
	err  error
}

func (r *recordingTransport) Deliver(_ context.Context, msg *domain.EmailMessage) (*domain.SendResult, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.sent = append(r.sent, msg)
	return &domain.SendResult{MessageID: "m-1", Provider: "test", SentAt: time.Now()}, nil
}

func newTestMailer(transport sending.Transport) *Mailer {
	m := NewMailer(transport,
		config.EmailConfig{FromEmail: "hello@micro-learning.app", FromName: "Microlearning", ReplyTo: "team@micro-learning.app"},
		config.SiteConfig{Name: "Microlearning", URL: "https://micro-learning.app", Tagline: "Training"},
	)
	m.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	return m
}

func TestMailer_RenderConfirmation(t *testing.T) {
	m := newTestMailer(nil)

	msg, err := m.Render(domain.TemplateConfirmation, domain.EmailRequest{
		To:      "jane@co.com",
		Name:    "Jane <b>",
		Message: "Line one\n<script>alert(1)</script>",
	})
	require.NoError(t, err)

	assert.Equal(t, "Thank you for contacting Microlearning", msg.Subject)
	assert.Equal(t, "jane@co.com", msg.To)
	assert.Equal(t, "team@micro-learning.app", msg.ReplyTo)
	assert.Contains(t, msg.HTMLContent, "Thank you for reaching out, Jane &lt;b&gt;!")
	assert.Contains(t, msg.HTMLContent, "Line one<br>\n&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.NotContains(t, msg.HTMLContent, "<script>")
	assert.Contains(t, msg.HTMLContent, "&copy; 2025 Microlearning")
	assert.Contains(t, msg.TextContent, "Your Message:\nLine one\n<script>alert(1)</script>")
	assert.Equal(t, "confirmation", msg.Tags["template"])
}

func TestMailer_RenderConfirmationWithoutMessage(t *testing.T) {
	msg, err := newTestMailer(nil).Render(domain.TemplateConfirmation, domain.EmailRequest{To: "a@b.co", Name: "Al"})
	require.NoError(t, err)

	assert.NotContains(t, msg.HTMLContent, "Your Message")
	assert.NotContains(t, msg.TextContent, "Your Message")
}

func TestMailer_RenderResend(t *testing.T) {
	msg, err := newTestMailer(nil).Render(domain.TemplateResend, domain.EmailRequest{To: "a@b.co", Name: ""})
	require.NoError(t, err)

	assert.Equal(t, "Following up on your Microlearning inquiry", msg.Subject)
	assert.Contains(t, msg.HTMLContent, "Still interested, there?")
	assert.Contains(t, msg.HTMLContent, `href="https://micro-learning.app/#contact"`)
	assert.Contains(t, msg.TextContent, "https://micro-learning.app/#contact")
}

func TestMailer_RenderUnknownTemplate(t *testing.T) {
	_, err := newTestMailer(nil).Render("newsletter", domain.EmailRequest{})
	assert.Error(t, err)
}

func TestMailer_Send(t *testing.T) {
	transport := &recordingTransport{}
	m := newTestMailer(transport)

	require.NoError(t, m.Send(context.Background(), domain.TemplateResend, domain.EmailRequest{To: "a@b.co", Name: "Al"}))
	require.Len(t, transport.sent, 1)
	assert.Equal(t, "hello@micro-learning.app", transport.sent[0].FromEmail)
}

func TestMailer_SendFailureWrapsErrSendFailed(t *testing.T) {
	providerErr := errors.New("MessageRejected: Email address is not verified")
	m := newTestMailer(&recordingTransport{err: providerErr})

	err := m.Send(context.Background(), domain.TemplateConfirmation, domain.EmailRequest{To: "a@b.co", Name: "Al"})
	assert.True(t, errors.Is(err, sending.ErrSendFailed))
	assert.True(t, errors.Is(err, providerErr))
}

func TestMailer_SendWithoutTransport(t *testing.T) {
	err := newTestMailer(nil).Send(context.Background(), domain.TemplateConfirmation, domain.EmailRequest{To: "a@b.co"})
	assert.True(t, errors.Is(err, sending.ErrSendFailed))
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestLogTransport(t *testing.T) {
	res, err := LogTransport{}.Deliver(context.Background(), &domain.EmailMessage{To: "a@b.co", Subject: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "log", res.Provider)
}

func TestTemplateService_Filters(t *testing.T) {
	ts := NewTemplateService()

	out, err := ts.Render("", `{{ v | default: "x" }}|{{ s | escape | nl2br }}`, map[string]interface{}{
		"v": "  ",
		"s": "a&b\r\nc",
	})
	require.NoError(t, err)
	assert.Equal(t, "x|a&amp;b<br>\nc", out)

	assert.Error(t, ts.Parse("{% if %}"))
}
