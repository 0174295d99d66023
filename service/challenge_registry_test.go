package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agora-market/admission/adapters/store"
	"github.com/agora-market/admission/core"
	"github.com/agora-market/admission/internal/pow"
)

func TestChallengeIssue(t *testing.T) {
	ctx := context.Background()
	registry := NewChallengeRegistry(store.NewMemoryStore(), 0)

	first, err := registry.Issue(ctx, 4)
	require.NoError(t, err)
	require.NotEmpty(t, first.Token)
	require.NotEmpty(t, first.Challenge)
	require.NotEqual(t, first.Token, first.Challenge)
	require.Equal(t, 4, first.Difficulty)
	require.True(t, first.ExpiresAt.After(first.IssuedAt))

	second, err := registry.Issue(ctx, 4)
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)
	require.NotEqual(t, first.Challenge, second.Challenge)
}

func TestChallengeRedeem(t *testing.T) {
	ctx := context.Background()

	t.Run("valid proof consumes the record", func(t *testing.T) {
		backing := store.NewMemoryStore()
		registry := NewChallengeRegistry(backing, 0)

		challenge, err := registry.Issue(ctx, 2)
		require.NoError(t, err)

		nonce, hash := pow.Mine(challenge.Challenge, 2)
		require.NoError(t, registry.Redeem(ctx, challenge.Token, nonce, hash))
		require.Zero(t, backing.Len())

		// Second redemption of the same token always fails: the record is gone.
		err = registry.Redeem(ctx, challenge.Token, nonce, hash)
		require.ErrorIs(t, err, core.ErrInvalidToken)
	})

	t.Run("unknown token", func(t *testing.T) {
		registry := NewChallengeRegistry(store.NewMemoryStore(), 0)
		err := registry.Redeem(ctx, "no-such-token", "1", "abc")
		require.ErrorIs(t, err, core.ErrInvalidToken)
	})

	t.Run("bad proof keeps the record for retries", func(t *testing.T) {
		backing := store.NewMemoryStore()
		registry := NewChallengeRegistry(backing, 0)

		challenge, err := registry.Issue(ctx, 2)
		require.NoError(t, err)

		err = registry.Redeem(ctx, challenge.Token, "1", "not-the-hash")
		require.ErrorIs(t, err, core.ErrInvalidProof)
		require.Equal(t, 1, backing.Len())

		// The same challenge still redeems with a correct proof.
		nonce, hash := pow.Mine(challenge.Challenge, 2)
		require.NoError(t, registry.Redeem(ctx, challenge.Token, nonce, hash))
	})

	t.Run("expired challenge rejects even a valid proof", func(t *testing.T) {
		backing := store.NewMemoryStore()
		registry := NewChallengeRegistry(backing, 0)

		expired := &core.Challenge{
			Token:      "expired-token",
			Challenge:  "stale",
			Difficulty: 1,
			IssuedAt:   time.Now().Add(-time.Hour),
			ExpiresAt:  time.Now().Add(-54 * time.Minute),
		}
		record, err := encodeChallenge(expired)
		require.NoError(t, err)
		require.NoError(t, backing.Put(ctx, challengeKeyPrefix+expired.Token, record, 0))

		nonce, hash := pow.Mine(expired.Challenge, 1)
		err = registry.Redeem(ctx, expired.Token, nonce, hash)
		require.ErrorIs(t, err, core.ErrChallengeExpired)

		// Lazy deletion: the record is gone after the expiry check.
		require.Zero(t, backing.Len())
	})
}

func TestChallengeRedeemIsAtMostOnce(t *testing.T) {
	ctx := context.Background()
	registry := NewChallengeRegistry(store.NewMemoryStore(), 0)

	challenge, err := registry.Issue(ctx, 1)
	require.NoError(t, err)
	nonce, hash := pow.Mine(challenge.Challenge, 1)

	const racers = 8
	var wg sync.WaitGroup
	outcomes := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes <- registry.Redeem(ctx, challenge.Token, nonce, hash)
		}()
	}
	wg.Wait()
	close(outcomes)

	var successes int
	for err := range outcomes {
		if err == nil {
			successes++
		} else {
			require.ErrorIs(t, err, core.ErrInvalidToken)
		}
	}
	require.Equal(t, 1, successes)
}
