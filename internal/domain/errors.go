package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrBookingNotActive   = errors.New("booking is not active")
	ErrPlaceUnavailable   = errors.New("place is already booked for this interval")
)

// ValidationError marks malformed or out-of-range input. The HTTP
// boundary maps it to 400; everything carrying it stays a plain error
// for the services.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
