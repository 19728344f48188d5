package progression

import (
	"errors"

	"xiuxian/internal/app/ports"
	"xiuxian/internal/domain/cultivation"
)

var (
	ErrInvalidRequest    = errors.New("invalid progression request")
	ErrActionInProgress  = errors.New("progression action in progress")
	ErrPersistenceFailed = errors.New("progression persistence failed")
)

// PersistenceError reports a storage failure. The action's writes were rolled
// back before it was returned.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return ErrPersistenceFailed.Error() + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistenceFailed, e.Err}
}

// IsPrecondition reports whether err rejected the action before any state
// changed because of the character or the request itself.
func IsPrecondition(err error) bool {
	return isPrecondition(err)
}

func isPrecondition(err error) bool {
	return errors.Is(err, cultivation.ErrInvalidYears) ||
		errors.Is(err, cultivation.ErrInsufficientProgress) ||
		errors.Is(err, cultivation.ErrTerminalTier) ||
		errors.Is(err, cultivation.ErrCharacterDeceased) ||
		errors.Is(err, cultivation.ErrInvalidTier)
}

// classify leaves domain and lookup errors as they are and marks everything
// else as a persistence failure.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if isPrecondition(err) || errors.Is(err, ports.ErrNotFound) || errors.Is(err, ports.ErrConflict) {
		return err
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Err: err}
}
