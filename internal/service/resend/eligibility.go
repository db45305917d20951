package resend

import (
	"time"

	"github.com/microlearning/site-api/internal/domain"
)

// Eligible reports whether rec should get the follow-up email at now.
//
// A record qualifies when its confirmation was sent, it has not been
// resent, it is not marked replied and at least threshold has passed
// since confirmation_sent_at. A non-nil error means the record would
// otherwise qualify but its confirmation time cannot be read; callers
// skip it.
func Eligible(rec domain.ContactRecord, now time.Time, threshold time.Duration) (bool, error) {
	if !rec.ConfirmationSent.IsYes() {
		return false, nil
	}
	if rec.ResendSent.IsYes() {
		return false, nil
	}
	if rec.Status == domain.StatusReplied {
		return false, nil
	}
	sentAt, err := rec.ConfirmationSentAt.Time()
	if err != nil {
		return false, err
	}
	return now.Sub(sentAt) >= threshold, nil
}
