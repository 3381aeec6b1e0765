package domain

import "errors"

var (
	// ErrAuthInvalid is an explicit 401 from the profile service; the only
	// network outcome that invalidates a cached session.
	ErrAuthInvalid = errors.New("authentication invalid")
	// ErrTransient covers network failures, timeouts, 5xx and undecodable responses.
	ErrTransient = errors.New("transient profile service failure")
	// ErrMalformedRecord is a persisted credential that cannot be decoded.
	ErrMalformedRecord = errors.New("malformed credential record")
	// ErrNotLoggedIn is returned by operations that need a credential.
	ErrNotLoggedIn = errors.New("not logged in")

	ErrInvalidTransition  = errors.New("invalid verification transition")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already exists")
	ErrForbidden          = errors.New("access forbidden")
	ErrUnknownRole        = errors.New("unknown role")
)
