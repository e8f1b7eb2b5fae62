package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Error kinds. Every domain failure returned by this package matches exactly one of them via errors.Is.
var (
	ErrBadInput      = errors.New("bad input")
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
	ErrStale         = errors.New("stale")
	ErrAlreadyExists = errors.New("already exists")
)

// DomainError is a recoverable rejection of a request, tagged with its kind.
type DomainError struct {
	Kind    error
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

func (e *DomainError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func domainError(kind error, format string, args ...interface{}) error {
	return &DomainError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func badInput(format string, args ...interface{}) error {
	return domainError(ErrBadInput, format, args...)
}

func notFound(format string, args ...interface{}) error {
	return domainError(ErrNotFound, format, args...)
}

func forbidden(format string, args ...interface{}) error {
	return domainError(ErrForbidden, format, args...)
}

func conflict(format string, args ...interface{}) error {
	return domainError(ErrConflict, format, args...)
}

// lookupError turns a missing record into NotFound and passes other failures through.
func lookupError(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &DomainError{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...), Err: err}
	}
	return err
}

// validationError converts validator failures into a BadInput error naming the offending fields.
func validationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &DomainError{Kind: ErrBadInput, Message: "invalid request payload", Err: err}
	}

	parts := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		parts = append(parts, fmt.Sprintf("%s failed on %s", strings.ToLower(fieldErr.Field()), fieldErr.Tag()))
	}
	return &DomainError{Kind: ErrBadInput, Message: strings.Join(parts, "; "), Err: err}
}
