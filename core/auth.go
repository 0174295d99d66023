package core

import "time"

// Challenge represents a proof-of-work admission challenge.
type Challenge struct {
	Token      string    `json:"token"`      // Opaque identifier presented on redemption
	Challenge  string    `json:"challenge"`  // Random value the client hashes against
	Difficulty int       `json:"difficulty"` // Required count of leading zero hex characters
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the challenge lifetime has passed at the given instant.
func (c *Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Session represents a signature challenge-response session.
type Session struct {
	ID        string    `json:"session_id"`
	PublicKey string    `json:"public_key"` // Claimed identity in bech32 npub form
	Challenge string    `json:"challenge"`  // Derived string the client must sign
	ExpiresAt time.Time `json:"expires_at"`
	Verified  bool      `json:"verified"`
}

// Expired reports whether the session lifetime has passed at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Account represents a marketplace account as seen by the admission core.
// Proof-of-work fields submitted during registration are never stored here.
type Account struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	PublicKey    string    `json:"public_key,omitempty"` // bech32 npub
	RawSeed      string    `json:"raw_seed,omitempty"`   // hex seed kept for legacy signers
	Email        string    `json:"email,omitempty"`
	FullName     string    `json:"full_name,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}
