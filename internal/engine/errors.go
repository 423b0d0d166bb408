package engine

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Failure taxonomy surfaced to the request layer. Each kind maps to a
// distinct HTTP status; none is fatal to the process.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("store unavailable")
)

// storeErr wraps an unexpected gorm error (timeouts, dropped connections,
// cancelled contexts) as ErrUnavailable so callers can tell an outage from
// a bad request. Record-not-found is handled at call sites.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
