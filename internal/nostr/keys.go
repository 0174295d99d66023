// Package nostr handles the identity side of admission: decoding bech32
// encoded public keys and verifying detached Ed25519 signatures over
// session challenges.
package nostr

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/agora-market/admission/core"
)

// PublicKeyHRP is the human-readable part of an encoded public key.
const PublicKeyHRP = "npub"

// DecodePublicKey decodes a bech32 "npub" public key into its raw 32-byte
// Ed25519 form. Any decode failure or length mismatch wraps
// core.ErrMalformedKey.
func DecodePublicKey(encoded string) (ed25519.PublicKey, error) {
	hrp, data, err := bech32.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedKey, err)
	}
	if hrp != PublicKeyHRP {
		return nil, fmt.Errorf("%w: unexpected prefix %q", core.ErrMalformedKey, hrp)
	}

	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedKey, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: key is %d bytes, want %d", core.ErrMalformedKey, len(raw), ed25519.PublicKeySize)
	}

	return ed25519.PublicKey(raw), nil
}

// EncodePublicKey encodes a raw 32-byte public key into bech32 npub form.
func EncodePublicKey(raw ed25519.PublicKey) (string, error) {
	if len(raw) != ed25519.PublicKeySize {
		return "", fmt.Errorf("%w: key is %d bytes, want %d", core.ErrMalformedKey, len(raw), ed25519.PublicKeySize)
	}

	grouped, err := bech32.ConvertBits(raw, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrMalformedKey, err)
	}

	return bech32.Encode(PublicKeyHRP, grouped)
}

// DerivePublicKey reproduces the key derivation used by seed-based signing
// clients: the public half of the Ed25519 key expanded from a raw 32-byte
// seed. The seed is supplied hex encoded, as stored on the account.
func DerivePublicKey(rawSeedHex string) (ed25519.PublicKey, error) {
	seed, err := hex.DecodeString(rawSeedHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedKey, err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: seed is %d bytes, want %d", core.ErrMalformedKey, len(seed), ed25519.SeedSize)
	}

	priv := ed25519.NewKeyFromSeed(seed)
	return priv.Public().(ed25519.PublicKey), nil
}

// Verify checks a detached Ed25519 signature. It returns false for any
// cryptographic mismatch and never panics on short inputs.
func Verify(pub ed25519.PublicKey, message, signature []byte) bool {
	if len(pub) != ed25519.PublicKeySize || len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, message, signature)
}

// SeedLookup resolves the stored raw seed (hex) for the identity being
// verified. The second return reports whether a seed is on file.
type SeedLookup func() (string, bool, error)

// VerifyWithFallback verifies against the primary decoded key first. Only
// when that cryptographic check fails does it consult the stored seed and
// retry with the seed-derived key. The fallback covers clients whose
// signing implementation derives its public key from the raw seed rather
// than the bech32 key on file; it is a compatibility shim, never the
// authoritative path.
func VerifyWithFallback(primary ed25519.PublicKey, message, signature []byte, lookup SeedLookup) (bool, error) {
	if Verify(primary, message, signature) {
		return true, nil
	}

	if lookup == nil {
		return false, nil
	}

	seedHex, ok, err := lookup()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	derived, err := DerivePublicKey(seedHex)
	if err != nil {
		return false, err
	}

	return Verify(derived, message, signature), nil
}
