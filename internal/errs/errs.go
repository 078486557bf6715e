// Package errs defines the typed errors shared across the service.
package errs

import "fmt"

// ValidationError reports caller input that violates a precondition.
// Field tags which argument failed ("coordinates", "bbox", "refs", ...).
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

func Validation(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// UpstreamError reports a transport failure talking to one registry.
// Status carries the HTTP status code, or 0 for timeout/network failure.
type UpstreamError struct {
	Source string
	Status int
	Msg    string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upstream %s unreachable: %s", e.Source, e.Msg)
	}
	return fmt.Sprintf("upstream %s status %d: %s", e.Source, e.Status, e.Msg)
}

// GeometryError reports malformed or empty geometry input.
type GeometryError struct {
	Msg string
}

func (e *GeometryError) Error() string { return "geometry: " + e.Msg }

func Geometry(format string, args ...any) *GeometryError {
	return &GeometryError{Msg: fmt.Sprintf(format, args...)}
}
