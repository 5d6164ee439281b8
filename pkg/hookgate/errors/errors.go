// Package errors provides the fault taxonomy for the dispatch engine.
//
// Nothing in hookgate propagates an unhandled fault past the chain, the
// controller, or a connection handler: the overarching contract is to
// never deny service due to an internal error. Categorization exists so
// each boundary knows which recovery applies:
//   - Handler faults are confined to one handler ("no decision").
//   - Config faults put the daemon into degraded mode instead of failing
//     startup.
//   - Request faults convert to an allow carrying an internal_error
//     diagnostic.
//   - Transport faults answer one connection with an error envelope.
package errors

import (
	"errors"
	"fmt"
)

// Category classifies where a fault is absorbed.
type Category int

const (
	// CategoryHandler faults are caught at the chain level; the handler
	// simply produced no decision.
	CategoryHandler Category = iota

	// CategoryConfig faults are caught at controller initialisation and
	// trigger degraded mode.
	CategoryConfig

	// CategoryRequest faults are caught at the controller boundary and
	// convert to a fail-open allow.
	CategoryRequest

	// CategoryTransport faults are caught per connection and answered
	// with an error envelope.
	CategoryTransport
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryHandler:
		return "handler"
	case CategoryConfig:
		return "config"
	case CategoryRequest:
		return "request"
	case CategoryTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// CategorizedError wraps an error with its category and the operation that
// was being attempted.
type CategorizedError struct {
	Err      error
	Category Category
	Context  string
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (category: %s)", e.Context, e.Err, e.Category)
	}
	return fmt.Sprintf("%s (category: %s)", e.Err, e.Category)
}

// Unwrap returns the underlying error.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// New creates a categorized error.
func New(err error, category Category, context string) *CategorizedError {
	return &CategorizedError{Err: err, Category: category, Context: context}
}

// Handler wraps a handler-local fault.
func Handler(err error, context string) *CategorizedError {
	return New(err, CategoryHandler, context)
}

// Config wraps a configuration fault.
func Config(err error, context string) *CategorizedError {
	return New(err, CategoryConfig, context)
}

// Request wraps a request-level fault.
func Request(err error, context string) *CategorizedError {
	return New(err, CategoryRequest, context)
}

// Transport wraps a transport fault.
func Transport(err error, context string) *CategorizedError {
	return New(err, CategoryTransport, context)
}

// Categorize returns the category of an error, defaulting to request for
// anything unclassified.
func Categorize(err error) Category {
	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr.Category
	}
	return CategoryRequest
}
