package service

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agora-market/admission/adapters/accounts"
	"github.com/agora-market/admission/adapters/store"
	"github.com/agora-market/admission/core"
	"github.com/agora-market/admission/internal/nostr"
)

func testIdentity(t *testing.T) (string, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	npub, err := nostr.EncodePublicKey(pub)
	require.NoError(t, err)
	return npub, priv
}

func TestSessionOpen(t *testing.T) {
	ctx := context.Background()
	registry := NewSessionRegistry(store.NewMemoryStore(), nil, 0)
	npub, _ := testIdentity(t)

	session, err := registry.Open(ctx, npub)
	require.NoError(t, err)
	require.NotEmpty(t, session.ID)
	require.Equal(t, npub, session.PublicKey)
	require.Equal(t, sessionChallengePrefix+session.ID, session.Challenge)
	require.False(t, session.Verified)

	verified, err := registry.IsVerified(ctx, session.ID)
	require.NoError(t, err)
	require.False(t, verified)

	// Unverified sessions expose no identity.
	_, ok, err := registry.PublicKeyFor(ctx, session.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSessionSubmitProof(t *testing.T) {
	ctx := context.Background()

	t.Run("valid signature verifies the session", func(t *testing.T) {
		registry := NewSessionRegistry(store.NewMemoryStore(), nil, 0)
		npub, priv := testIdentity(t)

		session, err := registry.Open(ctx, npub)
		require.NoError(t, err)

		sig := ed25519.Sign(priv, []byte(session.Challenge))
		proved, err := registry.SubmitProof(ctx, session.ID, sig)
		require.NoError(t, err)
		require.True(t, proved.Verified)
		require.Equal(t, npub, proved.PublicKey)

		verified, err := registry.IsVerified(ctx, session.ID)
		require.NoError(t, err)
		require.True(t, verified)

		key, ok, err := registry.PublicKeyFor(ctx, session.ID)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, npub, key)
	})

	t.Run("signature over another session's challenge fails", func(t *testing.T) {
		registry := NewSessionRegistry(store.NewMemoryStore(), nil, 0)
		npub, priv := testIdentity(t)

		first, err := registry.Open(ctx, npub)
		require.NoError(t, err)
		second, err := registry.Open(ctx, npub)
		require.NoError(t, err)

		sig := ed25519.Sign(priv, []byte(first.Challenge))
		_, err = registry.SubmitProof(ctx, second.ID, sig)
		require.ErrorIs(t, err, core.ErrInvalidSignature)
	})

	t.Run("bad signature keeps the session for retries", func(t *testing.T) {
		registry := NewSessionRegistry(store.NewMemoryStore(), nil, 0)
		npub, priv := testIdentity(t)

		session, err := registry.Open(ctx, npub)
		require.NoError(t, err)

		_, wrongPriv, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		_, err = registry.SubmitProof(ctx, session.ID, ed25519.Sign(wrongPriv, []byte(session.Challenge)))
		require.ErrorIs(t, err, core.ErrInvalidSignature)

		// Retry with the right key succeeds.
		_, err = registry.SubmitProof(ctx, session.ID, ed25519.Sign(priv, []byte(session.Challenge)))
		require.NoError(t, err)
	})

	t.Run("unknown session", func(t *testing.T) {
		registry := NewSessionRegistry(store.NewMemoryStore(), nil, 0)
		_, err := registry.SubmitProof(ctx, "missing", make([]byte, ed25519.SignatureSize))
		require.ErrorIs(t, err, core.ErrSessionNotFound)
	})

	t.Run("malformed stored key is fatal", func(t *testing.T) {
		backing := store.NewMemoryStore()
		registry := NewSessionRegistry(backing, nil, 0)

		session := &core.Session{
			ID:        "bad-key-session",
			PublicKey: "not-an-npub",
			Challenge: sessionChallengePrefix + "bad-key-session",
			ExpiresAt: time.Now().Add(time.Hour),
		}
		record, err := encodeSession(session)
		require.NoError(t, err)
		require.NoError(t, backing.Put(ctx, sessionKeyPrefix+session.ID, record, 0))

		_, err = registry.SubmitProof(ctx, session.ID, make([]byte, ed25519.SignatureSize))
		require.ErrorIs(t, err, core.ErrMalformedKey)
	})
}

func TestSessionSeedFallback(t *testing.T) {
	ctx := context.Background()

	// The account's npub names one key, but the client signs with a key
	// expanded from the stored raw seed. The fallback must cover this.
	npub, _ := testIdentity(t)

	seed := make([]byte, ed25519.SeedSize)
	_, err := rand.Read(seed)
	require.NoError(t, err)
	seedSigner := ed25519.NewKeyFromSeed(seed)

	accountStore := accounts.NewMemoryAccounts()
	require.NoError(t, accountStore.Insert(ctx, &core.Account{
		Username:  "mallory",
		PublicKey: npub,
		RawSeed:   hex.EncodeToString(seed),
		Active:    true,
	}))

	registry := NewSessionRegistry(store.NewMemoryStore(), accountStore, 0)
	session, err := registry.Open(ctx, npub)
	require.NoError(t, err)

	sig := ed25519.Sign(seedSigner, []byte(session.Challenge))
	_, err = registry.SubmitProof(ctx, session.ID, sig)
	require.NoError(t, err)

	verified, err := registry.IsVerified(ctx, session.ID)
	require.NoError(t, err)
	require.True(t, verified)
}

func TestSessionExpiry(t *testing.T) {
	ctx := context.Background()
	backing := store.NewMemoryStore()
	registry := NewSessionRegistry(backing, nil, 0)
	npub, priv := testIdentity(t)

	expired := &core.Session{
		ID:        "expired-session",
		PublicKey: npub,
		Challenge: sessionChallengePrefix + "expired-session",
		ExpiresAt: time.Now().Add(-time.Minute),
		Verified:  true,
	}
	record, err := encodeSession(expired)
	require.NoError(t, err)
	require.NoError(t, backing.Put(ctx, sessionKeyPrefix+expired.ID, record, 0))

	t.Run("submit on an expired session", func(t *testing.T) {
		sig := ed25519.Sign(priv, []byte(expired.Challenge))
		_, err := registry.SubmitProof(ctx, expired.ID, sig)
		require.ErrorIs(t, err, core.ErrSessionExpired)
		require.Zero(t, backing.Len(), "expired session must be lazily deleted")
	})

	t.Run("expired session reads as unverified and anonymous", func(t *testing.T) {
		verified, err := registry.IsVerified(ctx, expired.ID)
		require.NoError(t, err)
		require.False(t, verified)

		_, ok, err := registry.PublicKeyFor(ctx, expired.ID)
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestSessionVerifiedIsMonotonic(t *testing.T) {
	ctx := context.Background()
	registry := NewSessionRegistry(store.NewMemoryStore(), nil, 0)
	npub, priv := testIdentity(t)

	session, err := registry.Open(ctx, npub)
	require.NoError(t, err)
	_, err = registry.SubmitProof(ctx, session.ID, ed25519.Sign(priv, []byte(session.Challenge)))
	require.NoError(t, err)

	// A later bad submission errors but cannot revert the verified flag.
	_, err = registry.SubmitProof(ctx, session.ID, make([]byte, ed25519.SignatureSize))
	require.ErrorIs(t, err, core.ErrInvalidSignature)

	verified, err := registry.IsVerified(ctx, session.ID)
	require.NoError(t, err)
	require.True(t, verified)
}

func TestSessionClose(t *testing.T) {
	ctx := context.Background()
	registry := NewSessionRegistry(store.NewMemoryStore(), nil, 0)
	npub, _ := testIdentity(t)

	session, err := registry.Open(ctx, npub)
	require.NoError(t, err)
	require.NoError(t, registry.Close(ctx, session.ID))

	verified, err := registry.IsVerified(ctx, session.ID)
	require.NoError(t, err)
	require.False(t, verified)
}
