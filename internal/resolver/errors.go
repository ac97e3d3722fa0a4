package resolver

import (
	"errors"
	"strings"
)

// FieldError reports the declaration path at which resolution failed.
type FieldError struct {
	Path []string
	Err  error
}

func (e *FieldError) Error() string {
	return strings.Join(e.Path, ".") + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func wrapField(label string, err error) error {
	var fe *FieldError
	if errors.As(err, &fe) {
		fe.Path = append([]string{label}, fe.Path...)
		return fe
	}
	return &FieldError{Path: []string{label}, Err: err}
}
