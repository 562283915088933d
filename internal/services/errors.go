package services

import "errors"

// ErrEndNotAfterStart rejects events whose end time is not strictly after
// their start time.
var ErrEndNotAfterStart = errors.New("event end time must be after start time")
