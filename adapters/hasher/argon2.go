// Package hasher implements the password-hash collaborator with Argon2id,
// encoded in PHC string format so parameters travel with the digest.
package hasher

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/agora-market/admission/core"
	"github.com/agora-market/admission/ports"
)

const (
	saltLength  = 16
	keyLength   = 32
	iterations  = 3
	memory      = 64 * 1024
	parallelism = 2
)

// Argon2 hashes and verifies passwords using Argon2id.
type Argon2 struct{}

// NewArgon2 creates the default Argon2id hasher.
func NewArgon2() ports.Hasher {
	return Argon2{}
}

// Hash generates a PHC-format Argon2id hash string including salt and
// parameters.
func (Argon2) Hash(plaintext string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(plaintext), salt, iterations, memory, parallelism, keyLength)

	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory,
		iterations,
		parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify compares a plaintext password against a PHC-style Argon2id hash.
// Mismatches and malformed digests both report core.ErrInvalidCredentials
// so callers cannot tell a bad password from a bad record.
func (Argon2) Verify(plaintext, encoded string) error {
	parts := strings.Split(encoded, "$")

	// Expected: ["", "argon2id", "v=19", "m=X,t=Y,p=Z", salt, hash]
	if len(parts) != 6 || parts[1] != "argon2id" || parts[2] != "v=19" {
		return core.ErrInvalidCredentials
	}

	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return core.ErrInvalidCredentials
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return core.ErrInvalidCredentials
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return core.ErrInvalidCredentials
	}

	computed := argon2.IDKey([]byte(plaintext), salt, iters, mem, par, uint32(len(expected)))
	if subtle.ConstantTimeCompare(computed, expected) != 1 {
		return core.ErrInvalidCredentials
	}
	return nil
}
