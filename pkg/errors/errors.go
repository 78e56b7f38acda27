package errors

import "fmt"

// ErrNotFound is returned when a resource is not found
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized is returned when no session can be resolved for a shop
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrValidation is returned when request validation fails
type ErrValidation struct {
	Message string
	Fields  map[string]string
}

func (e *ErrValidation) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// ErrUpstreamUnavailable is returned when a Shopify call cannot be completed
// (network error, timeout, malformed response). Soft-failed in the capacity
// pre-check, terminal elsewhere.
type ErrUpstreamUnavailable struct {
	Op  string
	Err error
}

func (e *ErrUpstreamUnavailable) Error() string {
	return fmt.Sprintf("shopify unavailable during %s: %v", e.Op, e.Err)
}

func (e *ErrUpstreamUnavailable) Unwrap() error {
	return e.Err
}

// ErrUpstreamRejected is returned when Shopify answered but refused the write.
// Detail carries the raw response body for diagnostics.
type ErrUpstreamRejected struct {
	Status int
	Detail string
}

func (e *ErrUpstreamRejected) Error() string {
	return fmt.Sprintf("shopify rejected request: status %d", e.Status)
}
