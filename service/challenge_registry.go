package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agora-market/admission/core"
	"github.com/agora-market/admission/internal/pow"
	"github.com/agora-market/admission/ports"
)

// DefaultChallengeTTL is the proof-of-work challenge lifetime.
const DefaultChallengeTTL = 6 * time.Minute

const challengeKeyPrefix = "pow:"

// ChallengeRegistry issues and consumes one-time proof-of-work challenges
// backed by the Record Store. A token maps to at most one live challenge
// and is never reused: redemption consumes the record.
type ChallengeRegistry struct {
	store ports.Store
	ttl   time.Duration
}

// NewChallengeRegistry creates a challenge registry. A non-positive ttl
// selects DefaultChallengeTTL.
func NewChallengeRegistry(store ports.Store, ttl time.Duration) *ChallengeRegistry {
	if ttl <= 0 {
		ttl = DefaultChallengeTTL
	}
	return &ChallengeRegistry{store: store, ttl: ttl}
}

// Issue creates a new challenge at the given difficulty and persists it
// keyed by its token.
func (r *ChallengeRegistry) Issue(ctx context.Context, difficulty int) (*core.Challenge, error) {
	// Token and challenge string are independent random values: the token
	// only names the record, the challenge string is what gets hashed.
	nonceSource := make([]byte, 32)
	if _, err := rand.Read(nonceSource); err != nil {
		return nil, fmt.Errorf("failed to generate challenge: %w", err)
	}

	now := time.Now()
	challenge := &core.Challenge{
		Token:      uuid.New().String(),
		Challenge:  hex.EncodeToString(nonceSource),
		Difficulty: difficulty,
		IssuedAt:   now,
		ExpiresAt:  now.Add(r.ttl),
	}

	record, err := encodeChallenge(challenge)
	if err != nil {
		return nil, err
	}
	if err := r.store.Put(ctx, challengeKeyPrefix+challenge.Token, record, r.ttl); err != nil {
		return nil, err
	}

	return challenge, nil
}

// Redeem verifies a candidate proof against the stored challenge.
//
// A failed proof leaves the record in place so the client may retry until
// expiry; an expired record is deleted lazily. On success the record is
// consumed atomically: of two concurrent redemptions for the same token, at
// most one succeeds. The difficulty checked is the one stored at issue
// time, never one supplied by the redeeming caller.
func (r *ChallengeRegistry) Redeem(ctx context.Context, token, nonce, hash string) error {
	record, err := r.store.Get(ctx, challengeKeyPrefix+token)
	if err != nil {
		if errors.Is(err, ports.ErrRecordNotFound) {
			return core.ErrInvalidToken
		}
		return err
	}

	challenge, err := decodeChallenge(record)
	if err != nil {
		return err
	}

	if challenge.Expired(time.Now()) {
		if _, err := r.store.Delete(ctx, challengeKeyPrefix+token); err != nil {
			return err
		}
		return core.ErrChallengeExpired
	}

	if !pow.Verify(challenge.Challenge, nonce, hash, challenge.Difficulty) {
		return core.ErrInvalidProof
	}

	deleted, err := r.store.Delete(ctx, challengeKeyPrefix+token)
	if err != nil {
		return err
	}
	if !deleted {
		// Another redemption consumed the token first.
		return core.ErrInvalidToken
	}

	return nil
}

func encodeChallenge(challenge *core.Challenge) (string, error) {
	payload, err := json.Marshal(challenge)
	if err != nil {
		return "", fmt.Errorf("encode challenge: %w", err)
	}
	return string(payload), nil
}

func decodeChallenge(record string) (*core.Challenge, error) {
	var challenge core.Challenge
	if err := json.Unmarshal([]byte(record), &challenge); err != nil {
		return nil, fmt.Errorf("decode challenge: %w", err)
	}
	return &challenge, nil
}
