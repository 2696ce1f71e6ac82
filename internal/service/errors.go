package service

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalid      = errors.New("invalid")
	ErrInvalidState = errors.New("invalid workflow state")
	ErrForbidden    = errors.New("forbidden")
	ErrUnavailable  = errors.New("provider unavailable")
)

// StateError reports a rejected workflow transition with the states involved.
type StateError struct {
	TranslationID int64
	From          string
	To            string
}

func (e *StateError) Error() string {
	return "cannot transition translation from " + e.From + " to " + e.To
}

func (e *StateError) Is(target error) bool {
	return target == ErrInvalidState
}
