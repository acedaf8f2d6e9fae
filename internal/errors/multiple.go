package errors

import (
	"fmt"
	"strings"
)

// MultipleErrors collects several errors into one. Used when a run hits
// independent failures that should all be reported, not just the first.
type MultipleErrors struct {
	Errors []error
}

// NewMultipleErrors creates an empty error collection
func NewMultipleErrors() *MultipleErrors {
	return &MultipleErrors{}
}

// Add appends an error to the collection, ignoring nils
func (m *MultipleErrors) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors returns true if any errors were collected
func (m *MultipleErrors) HasErrors() bool {
	return len(m.Errors) > 0
}

// ErrorOrNil returns the collection as an error, or nil if empty. A single
// collected error is returned unwrapped.
func (m *MultipleErrors) ErrorOrNil() error {
	switch len(m.Errors) {
	case 0:
		return nil
	case 1:
		return m.Errors[0]
	default:
		return m
	}
}

// Error implements the error interface
func (m *MultipleErrors) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors occurred:", len(m.Errors))
	for _, err := range m.Errors {
		sb.WriteString("\n  * ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Unwrap returns the collected errors for errors.Is and errors.As
func (m *MultipleErrors) Unwrap() []error {
	return m.Errors
}
