package models

import (
	"errors"
	"fmt"
)

// FetchError reports a failed document retrieval. Fatal when the category
// list cannot be fetched; recoverable by skipping for an individual recipe.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StructureError reports a mandatory element missing from a parsed document.
// Extraction of that document cannot continue; no default is guessed.
type StructureError struct {
	Selector string
	URL      string
}

func (e *StructureError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("document missing required element %q", e.Selector)
	}
	return fmt.Sprintf("document %s missing required element %q", e.URL, e.Selector)
}

// UIError reports an interactive element that never appeared or could not be
// driven during filter selection or pagination. Fatal for the category.
type UIError struct {
	Category string
	Err      error
}

func (e *UIError) Error() string {
	if e.Category == "" {
		return fmt.Sprintf("ui interaction failed: %v", e.Err)
	}
	return fmt.Sprintf("ui interaction failed for category %q: %v", e.Category, e.Err)
}

func (e *UIError) Unwrap() error { return e.Err }

// TransientDriverError wraps a transport or session level browser failure
// raised while attempting an interaction. Always retried with backoff, never
// surfaced directly.
type TransientDriverError struct {
	Op  string
	Err error
}

func (e *TransientDriverError) Error() string {
	return fmt.Sprintf("transient driver error during %s: %v", e.Op, e.Err)
}

func (e *TransientDriverError) Unwrap() error { return e.Err }

// IsFetchError reports whether err is or wraps a FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// IsStructureError reports whether err is or wraps a StructureError.
func IsStructureError(err error) bool {
	var se *StructureError
	return errors.As(err, &se)
}

// IsTransientDriverError reports whether err is or wraps a TransientDriverError.
func IsTransientDriverError(err error) bool {
	var te *TransientDriverError
	return errors.As(err, &te)
}
