// Package contact implements the contact and pilot-request submission
// flow.
//
// A valid submission always ends with exactly one appended row. The
// confirmation email is attempted first: the row is stored as confirmed
// only after the provider accepted it, and as pending otherwise. The
// submitter sees success in both cases, because losing the lead is worse
// than a missing confirmation email.
//
// The service depends only on the Repository interface defined in
// repository.go and on sending.Sender. It never imports net/http.
package contact
