package domain

import "time"

// EmailTemplate selects which transactional email to send.
type EmailTemplate string

const (
	TemplateConfirmation EmailTemplate = "confirmation"
	TemplateResend       EmailTemplate = "resend"
)

// EmailRequest is what the contact pipeline hands to a sender. Message is
// optional and only echoed back in the confirmation email.
type EmailRequest struct {
	To      string `json:"to"`
	Name    string `json:"name"`
	Message string `json:"message,omitempty"`
}

// EmailMessage is the fully rendered message ready for a transport.
type EmailMessage struct {
	To          string            `json:"to"`
	FromName    string            `json:"from_name"`
	FromEmail   string            `json:"from_email"`
	ReplyTo     string            `json:"reply_to,omitempty"`
	Subject     string            `json:"subject"`
	HTMLContent string            `json:"html_content"`
	TextContent string            `json:"text_content"`
	Tags        map[string]string `json:"tags,omitempty"`
}

// SendResult is returned by a transport after a successful hand-off.
type SendResult struct {
	MessageID string    `json:"message_id"`
	Provider  string    `json:"provider"`
	SentAt    time.Time `json:"sent_at"`
}
