// Package pow implements the proof-of-work check used for registration
// admission. A client is handed a random challenge string and must find a
// nonce such that the SHA-256 of the challenge concatenated with the nonce
// has a required number of leading zero hex characters.
package pow

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Target returns the required hash prefix for a difficulty: that many '0'
// characters. A difficulty of zero or less yields an empty target.
func Target(difficulty int) string {
	if difficulty <= 0 {
		return ""
	}
	return strings.Repeat("0", difficulty)
}

// Hash computes the canonical proof hash: the lowercase hex SHA-256 of the
// challenge string immediately followed by the nonce. Clients must produce
// byte-identical input, so the concatenation here is the wire contract.
func Hash(challenge, nonce string) string {
	sum := sha256.Sum256([]byte(challenge + nonce))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the proof hash and checks it against the claimed hash
// and the difficulty target. Missing nonce or hash fields yield false;
// Verify never panics and keeps no state.
func Verify(challenge, nonce, claimedHash string, difficulty int) bool {
	if nonce == "" || claimedHash == "" {
		return false
	}
	computed := Hash(challenge, nonce)
	return computed == claimedHash && strings.HasPrefix(claimedHash, Target(difficulty))
}

// Mine searches nonces 0, 1, 2, ... until the proof hash meets the target.
// It mirrors the client-side computation and exists for tests and tooling;
// the server never mines.
func Mine(challenge string, difficulty int) (nonce, hash string) {
	target := Target(difficulty)
	for i := 0; ; i++ {
		nonce = strconv.Itoa(i)
		hash = Hash(challenge, nonce)
		if strings.HasPrefix(hash, target) {
			return nonce, hash
		}
	}
}
