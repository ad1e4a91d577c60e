package service

import "errors"

// ErrCampaignLocked means the campaign's status flag already says "Sending".
// The flag is advisory, not a mutex; callers can force past it.
var ErrCampaignLocked = errors.New("campaign is already sending")

var ErrNotFound = errors.New("not found")

// ValidationError is a per-request input problem, distinct from upstream
// failures.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func newValidationError(msg string) error {
	return &ValidationError{msg: msg}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
