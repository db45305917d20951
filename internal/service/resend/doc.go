// Package resend implements the follow-up email sweep.
//
// A sweep reads every contact record, picks the ones whose confirmation
// went out at least the configured threshold ago and that have neither
// been resent nor replied to, sends each the follow-up email and marks
// the row resent. The resend flag is the only idempotency key: running
// the sweep again sends nothing to records it already handled.
//
// Records are processed one at a time. A failure on one record is
// collected into the Result and never stops the sweep.
package resend
