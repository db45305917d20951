package contact

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microlearning/site-api/internal/domain"
	"github.com/microlearning/site-api/internal/pkg/logger"
	"github.com/microlearning/site-api/internal/service/sending"
)

// MaxMessageLength caps the message in runes.
const MaxMessageLength = 5000

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Result is what a successful submission reports back.
type Result struct {
	Success   bool `json:"success"`
	EmailSent bool `json:"emailSent"`
	RowIndex  int  `json:"rowIndex,omitempty"`
}

// Service accepts submissions. It is safe for concurrent use.
type Service struct {
	repo   Repository
	sender sending.Sender
	now    func() time.Time
}

// NewService creates a submission service.
func NewService(repo Repository, sender sending.Sender) *Service {
	return &Service{repo: repo, sender: sender, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Validate checks a submission after trimming. It returns a
// *ValidationError or nil.
func Validate(name, email, message string) error {
	switch {
	case name == "":
		return &ValidationError{Field: "name", Reason: MsgMissingFields}
	case email == "":
		return &ValidationError{Field: "email", Reason: MsgMissingFields}
	case message == "":
		return &ValidationError{Field: "message", Reason: MsgMissingFields}
	}
	if !emailPattern.MatchString(email) {
		return &ValidationError{Field: "email", Reason: MsgInvalidEmail}
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return &ValidationError{Field: "message", Reason: MsgMessageTooLong}
	}
	return nil
}

// Submit validates the input, attempts the confirmation email and stores
// one row recording whether it went out. Only a validation failure or a
// store failure is returned as an error.
func (s *Service) Submit(ctx context.Context, name, email, message string) (*Result, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	message = strings.TrimSpace(message)

	if err := Validate(name, email, message); err != nil {
		return nil, err
	}

	rec := domain.ContactRecord{
		Email:       email,
		Name:        name,
		Message:     message,
		SubmittedAt: domain.NewTimestamp(s.now()),
	}

	sendErr := s.sender.Send(ctx, domain.TemplateConfirmation, domain.EmailRequest{
		To:      email,
		Name:    name,
		Message: message,
	})
	if sendErr == nil {
		rec.ConfirmationSent = domain.FlagYes
		rec.ConfirmationSentAt = domain.NewTimestamp(s.now())
		rec.Status = domain.StatusConfirmed
	} else {
		logger.Warn("confirmation email failed, storing submission as pending", "email", email, "error", sendErr)
		rec.ConfirmationSent = domain.FlagNo
		rec.Status = domain.StatusPending
	}

	// The email may already be out. Store the lead even if the caller has
	// gone away; the store's own timeouts still bound the write.
	rowIndex, err := s.repo.Append(context.WithoutCancel(ctx), rec)
	if err != nil {
		return nil, fmt.Errorf("storing submission: %w", err)
	}

	logger.Info("contact submission stored", "email", email, "row_index", rowIndex, "email_sent", sendErr == nil)
	return &Result{Success: true, EmailSent: sendErr == nil, RowIndex: rowIndex}, nil
}
