package domain

import "errors"

// Sentinel errors for the chat domain. These provide consistent, checkable
// errors for protocol guard failures and store problems.
var (
	// ErrUnauthenticated is returned when a connection acts before joining.
	ErrUnauthenticated = errors.New("connection has not joined")

	// ErrDeviceBanned is returned when a join presents a banned device
	// fingerprint. It is fatal for the connection.
	ErrDeviceBanned = errors.New("device is banned")

	// ErrRestricted is returned when a restricted user attempts to post.
	ErrRestricted = errors.New("user is restricted from posting")

	// ErrForbidden is returned when the acting user's role is insufficient
	// for the requested operation.
	ErrForbidden = errors.New("insufficient role for operation")

	// ErrNotFound is returned for operations on messages that no longer exist.
	ErrNotFound = errors.New("requested resource not found")

	// ErrValidationFailed is returned for malformed or out-of-bounds requests.
	ErrValidationFailed = errors.New("request failed validation")

	// ErrStoreUnavailable is returned when a durable write or read fails.
	// The mutation is not applied and nothing is broadcast.
	ErrStoreUnavailable = errors.New("durable store unavailable")
)
