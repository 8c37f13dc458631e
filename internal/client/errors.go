// Package client implements the generic JSON request helper shared by every
// skyforge command. It builds outbound requests, attaches the bearer
// credential when one is supplied, and classifies responses into the typed
// errors the command boundary knows how to render.
package client

import (
	"fmt"
	"sort"
	"strings"
)

// ConnectionError reports a failure to reach the server at all.
type ConnectionError struct {
	// Host is the server the client attempted to reach.
	Host string
	// Cause is the underlying transport error.
	Cause error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Host, e.Cause)
}

func (e *ConnectionError) Unwrap() error { return e.Cause }

// MalformedResponseError reports a response body that is not valid JSON.
type MalformedResponseError struct {
	// URL is the request URL that produced the body.
	URL string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: body is not valid JSON", e.URL)
}

// ValidationError carries the field-level error map of an HTTP 400 response.
type ValidationError struct {
	// Fields maps field names to their validation messages.
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return "validation failed: " + strings.Join(parts, ", ")
}

// UnauthorizedError reports an HTTP 401 response.
type UnauthorizedError struct {
	// Message is the server-provided message.
	Message string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("%s, please login again (skyforge auth login)", e.Message)
}

// RejectedError reports a request the server refused with a msg body
// (HTTP 403, 404 or 409).
type RejectedError struct {
	// Message is the msg field of the response body.
	Message string
	// Status is the HTTP status code.
	Status int
}

func (e *RejectedError) Error() string { return e.Message }

// HTTPError reports any other non-2xx status.
type HTTPError struct {
	// Status is the HTTP status code.
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("request failed with status %d", e.Status)
}
