// Package errors defines domain-level errors used throughout the application.
// These errors represent business logic failures and are mapped to appropriate HTTP status codes at the API boundary.
//
// NOTE: Important for developers
// When adding a new error here, you MUST consider how it should be handled when returned from API endpoints.
//
// Unmapped errors will default to HTTP 500 Internal Server Error.
//
// Don't forget to:
// 1. Add your error to mapError (internal/daemon/api_server.go)
// 2. Add a test case to TestMapError (internal/daemon/api_server_test.go)
package errors

import (
	"errors"
)

var (
	// ErrBadRequest indicates that the client provided invalid input or made a malformed request.
	// Recommended to map to HTTP 400 Bad Request.
	ErrBadRequest = errors.New("bad request")

	// ErrServerNotFound indicates that the requested capability server is unknown to the
	// registry, the status pool and the backend inventory.
	// Recommended to map to HTTP 404 Not Found.
	ErrServerNotFound = errors.New("server not found")

	// ErrToolNotFound indicates that the requested tool is not present in the tool index,
	// i.e. no currently activated server provides it.
	// Recommended to map to HTTP 404 Not Found.
	ErrToolNotFound = errors.New("tool not found")

	// ErrProfileNotFound indicates that the requested activation profile does not exist.
	// Recommended to map to HTTP 404 Not Found.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrCommandFailed indicates that the backend control plane reported a failure for a
	// command (non-zero exit, error payload). The wrapped message carries the backend output.
	// Recommended to map to HTTP 502 Bad Gateway.
	ErrCommandFailed = errors.New("backend command failed")

	// ErrParseFailed indicates that a backend response could not be parsed.
	// During discovery this is degraded per-server; during tool/config calls it surfaces.
	// Recommended to map to HTTP 502 Bad Gateway.
	ErrParseFailed = errors.New("failed to parse backend response")

	// ErrConnectionFailed indicates that a server which was expected to be active is not,
	// according to the backend. The status pool entry is invalidated exactly once before
	// this error surfaces.
	// Recommended to map to HTTP 502 Bad Gateway.
	ErrConnectionFailed = errors.New("server connection failed")

	// ErrTimeout indicates that a backend call exceeded its deadline. Timed-out calls are
	// definite failures: they are never retried automatically and never mutate caches.
	// Recommended to map to HTTP 504 Gateway Timeout.
	ErrTimeout = errors.New("backend call timed out")
)
