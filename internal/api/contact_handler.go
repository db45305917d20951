package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/microlearning/site-api/internal/domain"
	"github.com/microlearning/site-api/internal/metrics"
	"github.com/microlearning/site-api/internal/pkg/httputil"
	"github.com/microlearning/site-api/internal/service/contact"
)

const (
	msgContactThanks      = "Thank you! We have received your message and sent you a confirmation email."
	msgContactEmailFailed = "Form submitted but confirmation email failed. Our team will contact you directly."
	msgContactServerError = "Internal server error. Please try again later."
	msgContactUsePost     = "Method not allowed. Use POST to submit the contact form."
)

// looseString accepts a JSON string or number. The pilot form sends the
// worker count either way.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = looseString(n.String())
	return nil
}

type contactRequest struct {
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Message     string      `json:"message"`
	Company     string      `json:"company"`
	WorkerCount looseString `json:"workerCount"`
	Phone       string      `json:"phone"`
	Industry    string      `json:"industry"`
}

// message returns the free-text message, or the pilot sub-form rendered as
// text when no message was given.
func (req contactRequest) message() string {
	if req.Message != "" {
		return req.Message
	}
	pilot := domain.PilotRequest{
		Company:     req.Company,
		WorkerCount: string(req.WorkerCount),
		Phone:       req.Phone,
		Industry:    req.Industry,
	}
	if pilot.IsEmpty() {
		return ""
	}
	return pilot.Message()
}

type contactResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	EmailSent bool   `json:"emailSent"`
	RowIndex  int    `json:"rowIndex,omitempty"`
}

// SubmitContact handles POST /api/contact.
func (h *Handlers) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if !httputil.Decode(w, r, &req) {
		metrics.RecordValidationFailure()
		return
	}

	res, err := h.contacts.Submit(context.WithoutCancel(r.Context()), req.Name, req.Email, req.message())
	if err != nil {
		var verr *contact.ValidationError
		if errors.As(err, &verr) {
			metrics.RecordValidationFailure()
			httputil.BadRequest(w, verr.Reason)
			return
		}
		httputil.InternalError(w, r, msgContactServerError, err)
		return
	}

	metrics.RecordContactSubmission(res.EmailSent)

	msg := msgContactThanks
	if !res.EmailSent {
		msg = msgContactEmailFailed
	}
	httputil.OK(w, contactResponse{
		Success:   res.Success,
		Message:   msg,
		EmailSent: res.EmailSent,
		RowIndex:  res.RowIndex,
	})
}

// ContactMethodNotAllowed answers every non-POST method on /api/contact.
func (h *Handlers) ContactMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httputil.MethodNotAllowed(w, http.MethodPost, msgContactUsePost)
}
