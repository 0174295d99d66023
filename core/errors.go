package core

import "errors"

// Admission errors are sentinels so callers can branch with errors.Is.
// The split matters to clients: an expired challenge or session means
// "request a new one", a failed proof or signature means "retry the same
// one until it expires", a malformed key is fatal.
var (
	// Proof-of-work path
	ErrInvalidToken     = errors.New("challenge token not found")
	ErrChallengeExpired = errors.New("challenge has expired")
	ErrInvalidProof     = errors.New("proof of work does not satisfy the challenge")

	// Signature path
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionExpired   = errors.New("session has expired")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrMalformedKey     = errors.New("malformed public key")

	// Credential path
	ErrCredentialInvalid = errors.New("invalid credential")
	ErrCredentialExpired = errors.New("credential has expired")

	// Account collaborator
	ErrAccountExists      = errors.New("account already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountInactive    = errors.New("account is not active")
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrStoreUnavailable marks transient collaborator failures. It is the
	// only class callers may retry transparently.
	ErrStoreUnavailable = errors.New("record store unavailable")
)
