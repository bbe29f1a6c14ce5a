// Package service contains the application's business logic.
package service

import "errors"

// Error taxonomy surfaced to the HTTP layer. Handlers map these onto
// distinct status codes; everything else is an internal error.
var (
	// ErrNoCredits gates every billable operation.
	ErrNoCredits = errors.New("no credits left")

	// ErrNotFound covers missing records, sources and conversations.
	ErrNotFound = errors.New("not found")

	// ErrInvalidID covers malformed identifiers in request payloads.
	ErrInvalidID = errors.New("invalid id format")

	// ErrInvalidPayload covers payloads that parse but violate a contract,
	// like a wrong embedding dimension or an unknown enum value.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrUpstreamUnavailable means the ML service never answered the health
	// probe within the retry budget.
	ErrUpstreamUnavailable = errors.New("ml service unavailable")

	// ErrUpstream means the ML service answered but failed the call.
	ErrUpstream = errors.New("ml service error")

	// ErrInvalidCredentials covers a wrong password on an existing account.
	ErrInvalidCredentials = errors.New("incorrect password")
)
