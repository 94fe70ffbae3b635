package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicate      = errors.New("already exists")
	ErrSessionClosed  = errors.New("session is closed")
	ErrInvalidRequest = errors.New("invalid request")
)

// translate maps gorm errors onto the package sentinels and leaves anything else untouched.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

// wrap returns the sentinel for known gorm errors, otherwise err with context.
func wrap(err error, action string) error {
	if t := translate(err); t != err {
		return t
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
