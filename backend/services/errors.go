package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateCode      = errors.New("a course with this code already exists, choose another code")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrDuplicateEmail     = errors.New("email is already in use")
	ErrSelfDelete         = errors.New("the signed-in account cannot be deleted")
	ErrInvalidImage       = errors.New("only .jpg, .jpeg, .png or .gif images up to 5 MB are accepted")
	ErrMissingContent     = errors.New("upload a video or provide a content link")
	ErrMissingOwner       = errors.New("could not resolve the course instructor")
	ErrUnknownReference   = errors.New("referenced record does not exist")
	ErrAlreadyEnrolled    = errors.New("you are already registered for this course")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// FieldError binds an error kind to the input field that caused it.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
	Kind  error  `json:"-"`
}

func fieldError(field string, kind error) FieldError {
	return FieldError{Field: field, Error: kind.Error(), Kind: kind}
}

// ValidationError reports rejected input before anything was written. Input
// carries the submitted values back so the caller can redisplay them.
type ValidationError struct {
	Err    error
	Fields []FieldError
	Input  interface{}
}

func NewValidationError(input interface{}, flds ...FieldError) *ValidationError {
	return &ValidationError{Err: ErrInvalidInput, Fields: flds, Input: input}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		f := e.Fields[0]
		if f.Field == "" {
			return f.Error
		}
		return f.Field + ": " + f.Error
	}
	return fmt.Sprintf("%v: %d fields rejected", e.Err, len(e.Fields))
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is matches the kind of any rejected field, so errors.Is(err, ErrDuplicateCode)
// holds even when other fields failed too.
func (e *ValidationError) Is(target error) bool {
	for _, f := range e.Fields {
		if f.Kind != nil && errors.Is(f.Kind, target) {
			return true
		}
	}
	return false
}

func (e *ValidationError) FieldMap() map[string]string {
	m := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		key := f.Field
		if key == "" {
			key = "_"
		}
		if _, ok := m[key]; !ok {
			m[key] = f.Error
		}
	}
	return m
}

func (e *ValidationError) HasField(name string) bool {
	for _, f := range e.Fields {
		if f.Field == name {
			return true
		}
	}
	return false
}

type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// ConstraintError wraps an unexpected storage rejection. It is never retried.
type ConstraintError struct {
	Err error
}

func (e *ConstraintError) Error() string { return e.Err.Error() }

func (e *ConstraintError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
