package omniture

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a collection lookup matches nothing.
	ErrNotFound = errors.New("not found")

	// ErrNotImplemented is returned by declared but unsupported capabilities
	// such as sorting, element filters, trended reports and async retrieval.
	ErrNotImplemented = errors.New("not implemented")

	// ErrNotQueued is returned by operations that need a report id before
	// the query has been queued.
	ErrNotQueued = errors.New("report has not been queued")

	// ErrNoReportType is returned when a query is queued without choosing
	// ranked, trended or over-time.
	ErrNoReportType = errors.New("no report type selected")

	// ErrMalformedResponse is returned when the API answers with a payload
	// that lacks the fields a call depends on.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrMissingCredentials is returned when a credential source lacks a key.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrInvalidParams is returned when request parameters cannot be scoped
	// to a report suite.
	ErrInvalidParams = errors.New("invalid parameters")

	// ErrNotAuthenticated is returned when an account is used before Authenticate.
	ErrNotAuthenticated = errors.New("account is not authenticated")
)

// NotFoundError describes a failed collection lookup.
type NotFoundError struct {
	Collection string
	Key        any
}

func (e *NotFoundError) Error() string {
	if e.Collection == "" {
		return fmt.Sprintf("%v: %s", e.Key, ErrNotFound)
	}
	return fmt.Sprintf("%s: %v: %s", e.Collection, e.Key, ErrNotFound)
}

// Unwrap lets errors.Is match ErrNotFound.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// APIError is an error response returned by the reporting API.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	msg := e.Code
	if msg == "" {
		msg = "request failed"
	}
	if e.Description != "" {
		msg += ": " + e.Description
	}
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, msg)
}
