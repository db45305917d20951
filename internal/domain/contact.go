package domain

import (
	"fmt"
	"strings"
	"time"
)

// Flag is the tri-state marker kept in the confirmation_sent and
// resend_sent columns. Anything other than YES or NO reads as unset.
type Flag string

const (
	FlagYes   Flag = "YES"
	FlagNo    Flag = "NO"
	FlagUnset Flag = ""
)

// IsYes reports whether the flag is exactly YES.
func (f Flag) IsYes() bool { return f == FlagYes }

// ContactStatus tracks where a submission is in the confirm/resend lifecycle.
type ContactStatus string

const (
	StatusUnset     ContactStatus = ""
	StatusPending   ContactStatus = "pending"
	StatusConfirmed ContactStatus = "confirmed"
	StatusResent    ContactStatus = "resent"
	// StatusReplied is set outside this service (support desk, manual edit)
	// and permanently blocks the follow-up email.
	StatusReplied ContactStatus = "replied"
)

// TimestampLayout matches the millisecond UTC form browsers produce with
// Date.prototype.toISOString, e.g. 2024-05-01T09:30:00.000Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp is a point in time as stored in the row store. The raw text is
// kept so rows written by other tools round-trip unchanged.
type Timestamp string

// NewTimestamp formats t in UTC using TimestampLayout.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t.UTC().Format(TimestampLayout))
}

// IsZero reports whether no timestamp is stored.
func (ts Timestamp) IsZero() bool { return strings.TrimSpace(string(ts)) == "" }

// Time parses the stored value. Both RFC 3339 with and without fractional
// seconds are accepted.
func (ts Timestamp) Time() (time.Time, error) {
	raw := strings.TrimSpace(string(ts))
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t, nil
}

// ContactRecord is one contact or pilot-request submission.
type ContactRecord struct {
	Email              string        `json:"email"`
	Name               string        `json:"name"`
	Message            string        `json:"message"`
	SubmittedAt        Timestamp     `json:"submitted_at"`
	ConfirmationSent   Flag          `json:"confirmation_sent"`
	ConfirmationSentAt Timestamp     `json:"confirmation_sent_at"`
	ResendSent         Flag          `json:"resend_sent"`
	ResendSentAt       Timestamp     `json:"resend_sent_at"`
	Status             ContactStatus `json:"status"`

	// RowIndex is the 1-based physical row in the store (header is row 1).
	// Zero until the record has been appended.
	RowIndex int `json:"row_index,omitempty"`
}

// FirstDataRow is the row index of the first record; row 1 holds the header.
const FirstDataRow = 2

// ContactUpdate is a partial update. Nil fields keep their stored value.
type ContactUpdate struct {
	Email              *string
	Name               *string
	Message            *string
	SubmittedAt        *Timestamp
	ConfirmationSent   *Flag
	ConfirmationSentAt *Timestamp
	ResendSent         *Flag
	ResendSentAt       *Timestamp
	Status             *ContactStatus
}

// Apply returns rec with every non-nil field of u written over it.
func (u ContactUpdate) Apply(rec ContactRecord) ContactRecord {
	if u.Email != nil {
		rec.Email = *u.Email
	}
	if u.Name != nil {
		rec.Name = *u.Name
	}
	if u.Message != nil {
		rec.Message = *u.Message
	}
	if u.SubmittedAt != nil {
		rec.SubmittedAt = *u.SubmittedAt
	}
	if u.ConfirmationSent != nil {
		rec.ConfirmationSent = *u.ConfirmationSent
	}
	if u.ConfirmationSentAt != nil {
		rec.ConfirmationSentAt = *u.ConfirmationSentAt
	}
	if u.ResendSent != nil {
		rec.ResendSent = *u.ResendSent
	}
	if u.ResendSentAt != nil {
		rec.ResendSentAt = *u.ResendSentAt
	}
	if u.Status != nil {
		rec.Status = *u.Status
	}
	return rec
}

// IsEmpty reports whether the update would change nothing.
func (u ContactUpdate) IsEmpty() bool {
	return u == ContactUpdate{}
}

// ResendCompleted is the update applied after a follow-up email goes out.
func ResendCompleted(at time.Time) ContactUpdate {
	flag := FlagYes
	ts := NewTimestamp(at)
	status := StatusResent
	return ContactUpdate{ResendSent: &flag, ResendSentAt: &ts, Status: &status}
}

// PilotRequest is the structured pilot sub-form. It is folded into the
// free-text message column.
type PilotRequest struct {
	Company     string `json:"company"`
	WorkerCount string `json:"workerCount"`
	Phone       string `json:"phone"`
	Industry    string `json:"industry"`
}

// IsEmpty reports whether none of the sub-form fields were filled in.
func (p PilotRequest) IsEmpty() bool {
	return strings.TrimSpace(p.Company+p.WorkerCount+p.Phone+p.Industry) == ""
}

// Message renders the sub-form as the stored message text.
func (p PilotRequest) Message() string {
	return fmt.Sprintf("Company: %s\nWorker Count: %s\nPhone: %s\nIndustry: %s\n\nRequest for pilot proposal.",
		strings.TrimSpace(p.Company),
		strings.TrimSpace(p.WorkerCount),
		strings.TrimSpace(p.Phone),
		strings.TrimSpace(p.Industry),
	)
}
