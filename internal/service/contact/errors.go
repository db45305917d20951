package contact

import "fmt"

// Messages returned to the submitter.
const (
	MsgMissingFields  = "Missing required fields: name, email, and message are required"
	MsgInvalidEmail   = "Invalid email format"
	MsgMessageTooLong = "Message is too long"
)

// ValidationError reports input the submitter has to fix. No email is
// sent and nothing is stored when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
