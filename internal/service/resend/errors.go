package resend

import "errors"

// ErrSweepInProgress is returned when another sweep holds the sweep lock.
var ErrSweepInProgress = errors.New("resend sweep already in progress")
