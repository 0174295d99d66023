package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agora-market/admission/core"
	"github.com/agora-market/admission/internal/nostr"
	"github.com/agora-market/admission/ports"
)

// DefaultSessionTTL is the signature-session lifetime.
const DefaultSessionTTL = time.Hour

const (
	sessionKeyPrefix = "session:"

	// sessionChallengePrefix namespaces the string a client signs. The
	// session id is embedded so a signature binds to exactly one session
	// and cannot be replayed against another.
	sessionChallengePrefix = "auth-challenge:"
)

// SessionRegistry issues, verifies and tracks signature challenge-response
// sessions backed by the Record Store. A session starts unverified and
// flips to verified at most once, after a successful signature check;
// expired sessions are deleted lazily on the next touch.
type SessionRegistry struct {
	store    ports.Store
	accounts ports.AccountStore
	ttl      time.Duration
}

// NewSessionRegistry creates a session registry. The account store is
// consulted only for the seed-derivation signature fallback. A
// non-positive ttl selects DefaultSessionTTL.
func NewSessionRegistry(store ports.Store, accounts ports.AccountStore, ttl time.Duration) *SessionRegistry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionRegistry{store: store, accounts: accounts, ttl: ttl}
}

// Open creates an unverified session for the claimed public key and returns
// it together with the challenge string the client must sign.
func (r *SessionRegistry) Open(ctx context.Context, publicKey string) (*core.Session, error) {
	id := uuid.New().String()
	session := &core.Session{
		ID:        id,
		PublicKey: publicKey,
		Challenge: sessionChallengePrefix + id,
		ExpiresAt: time.Now().Add(r.ttl),
		Verified:  false,
	}

	record, err := encodeSession(session)
	if err != nil {
		return nil, err
	}
	if err := r.store.Put(ctx, sessionKeyPrefix+id, record, r.ttl); err != nil {
		return nil, err
	}

	return session, nil
}

// SubmitProof checks a detached signature over the session's challenge
// string against the session's claimed public key and returns the verified
// session, so callers can trust its identity without a second read.
//
// A bad signature leaves the session untouched so the client may retry
// until expiry. On success the verified flag is persisted; verification is
// monotonic and one-way for the session's lifetime.
func (r *SessionRegistry) SubmitProof(ctx context.Context, sessionID string, signature []byte) (*core.Session, error) {
	session, err := r.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	pub, err := nostr.DecodePublicKey(session.PublicKey)
	if err != nil {
		return nil, err
	}

	ok, err := nostr.VerifyWithFallback(pub, []byte(session.Challenge), signature, r.seedLookup(ctx, session.PublicKey))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.ErrInvalidSignature
	}

	session.Verified = true
	record, err := encodeSession(session)
	if err != nil {
		return nil, err
	}
	if err := r.store.Put(ctx, sessionKeyPrefix+sessionID, record, time.Until(session.ExpiresAt)); err != nil {
		return nil, err
	}
	return session, nil
}

// IsVerified reports whether the session exists, is unexpired and has
// passed its signature check.
func (r *SessionRegistry) IsVerified(ctx context.Context, sessionID string) (bool, error) {
	session, err := r.load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, core.ErrSessionNotFound) || errors.Is(err, core.ErrSessionExpired) {
			return false, nil
		}
		return false, err
	}
	return session.Verified, nil
}

// PublicKeyFor returns the session's claimed public key only when the
// session exists, is unexpired and is verified. This is the read path other
// components use to trust an identity claim.
func (r *SessionRegistry) PublicKeyFor(ctx context.Context, sessionID string) (string, bool, error) {
	session, err := r.load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, core.ErrSessionNotFound) || errors.Is(err, core.ErrSessionExpired) {
			return "", false, nil
		}
		return "", false, err
	}
	if !session.Verified {
		return "", false, nil
	}
	return session.PublicKey, true, nil
}

// Close tears down a session regardless of its state.
func (r *SessionRegistry) Close(ctx context.Context, sessionID string) error {
	_, err := r.store.Delete(ctx, sessionKeyPrefix+sessionID)
	return err
}

// load fetches a session and enforces lazy expiry: an expired record is
// deleted and reported as ErrSessionExpired.
func (r *SessionRegistry) load(ctx context.Context, sessionID string) (*core.Session, error) {
	record, err := r.store.Get(ctx, sessionKeyPrefix+sessionID)
	if err != nil {
		if errors.Is(err, ports.ErrRecordNotFound) {
			return nil, core.ErrSessionNotFound
		}
		return nil, err
	}

	session, err := decodeSession(record)
	if err != nil {
		return nil, err
	}

	if session.Expired(time.Now()) {
		if _, err := r.store.Delete(ctx, sessionKeyPrefix+sessionID); err != nil {
			return nil, err
		}
		return nil, core.ErrSessionExpired
	}

	return session, nil
}

// seedLookup resolves the stored raw seed for the claimed identity, for
// clients whose signer derives its key from the seed instead of the bech32
// key on file.
func (r *SessionRegistry) seedLookup(ctx context.Context, publicKey string) nostr.SeedLookup {
	if r.accounts == nil {
		return nil
	}
	return func() (string, bool, error) {
		account, err := r.accounts.FindByPublicKey(ctx, publicKey)
		if err != nil {
			if errors.Is(err, core.ErrAccountNotFound) {
				return "", false, nil
			}
			return "", false, err
		}
		if account.RawSeed == "" {
			return "", false, nil
		}
		return account.RawSeed, true, nil
	}
}

func encodeSession(session *core.Session) (string, error) {
	payload, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	return string(payload), nil
}

func decodeSession(record string) (*core.Session, error) {
	var session core.Session
	if err := json.Unmarshal([]byte(record), &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}
