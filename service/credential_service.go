package service

import (
	"time"

	"github.com/agora-market/admission/ports"
)

// DefaultCredentialTTL is the bearer-credential lifetime.
const DefaultCredentialTTL = 30 * time.Minute

// CredentialService mints and validates bearer credentials through the
// Tokenizer port. Credentials are stateless: no server-side record backs
// them, so validation is purely a signature and expiry check.
type CredentialService struct {
	tokenizer ports.Tokenizer
	ttl       time.Duration
}

// NewCredentialService creates a credential service. A non-positive ttl
// selects DefaultCredentialTTL.
func NewCredentialService(tokenizer ports.Tokenizer, ttl time.Duration) *CredentialService {
	if ttl <= 0 {
		ttl = DefaultCredentialTTL
	}
	return &CredentialService{tokenizer: tokenizer, ttl: ttl}
}

// Issue mints a credential for the subject with the service's default
// lifetime.
func (s *CredentialService) Issue(subject string) (string, error) {
	return s.IssueWithTTL(subject, s.ttl)
}

// IssueWithTTL mints a credential with an explicit lifetime. A zero ttl
// produces a token that is already expired on validation.
func (s *CredentialService) IssueWithTTL(subject string, ttl time.Duration) (string, error) {
	return s.tokenizer.Issue(subject, ttl)
}

// Validate returns the subject of a well-formed, correctly signed,
// unexpired credential.
func (s *CredentialService) Validate(token string) (string, error) {
	return s.tokenizer.Validate(token)
}

// TTL reports the default credential lifetime.
func (s *CredentialService) TTL() time.Duration {
	return s.ttl
}
