package ports

import "time"

// Tokenizer mints and validates bearer credentials. Tokens are stateless:
// validity is decided by signature and expiry alone, so any instance
// sharing the signing key can validate tokens issued by any other.
type Tokenizer interface {
	// Issue encodes the subject and an absolute expiry ttl from now into a
	// signed token string.
	Issue(subject string, ttl time.Duration) (string, error)

	// Validate returns the subject carried by a structurally sound,
	// correctly signed, unexpired token. Failures map onto
	// core.ErrCredentialInvalid and core.ErrCredentialExpired.
	Validate(token string) (string, error)
}
