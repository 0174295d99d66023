// Package accounts provides Account Store adapters. The admission core only
// needs keyed lookup and insert; listing-side account features live
// elsewhere.
package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/agora-market/admission/core"
	"github.com/agora-market/admission/ports"
)

// RedisAccounts stores accounts as JSON records keyed by username, with a
// secondary key mapping public keys back to usernames.
type RedisAccounts struct {
	client *redis.Client
	prefix string
}

// NewRedisAccounts creates a Redis-backed account store.
func NewRedisAccounts(client *redis.Client) ports.AccountStore {
	return &RedisAccounts{
		client: client,
		prefix: "accounts:",
	}
}

func (s *RedisAccounts) userKey(username string) string {
	return s.prefix + "user:" + username
}

func (s *RedisAccounts) pubkeyKey(publicKey string) string {
	return s.prefix + "pubkey:" + publicKey
}

// Exists reports whether an account with the username is on file.
func (s *RedisAccounts) Exists(ctx context.Context, username string) (bool, error) {
	n, err := s.client.Exists(ctx, s.userKey(username)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: exists %s: %v", core.ErrStoreUnavailable, username, err)
	}
	return n > 0, nil
}

// Insert persists a new account record. A duplicate username fails with
// core.ErrAccountExists.
func (s *RedisAccounts) Insert(ctx context.Context, account *core.Account) error {
	payload, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.userKey(account.Username), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: insert %s: %v", core.ErrStoreUnavailable, account.Username, err)
	}
	if !ok {
		return core.ErrAccountExists
	}

	if account.PublicKey != "" {
		if err := s.client.Set(ctx, s.pubkeyKey(account.PublicKey), account.Username, 0).Err(); err != nil {
			return fmt.Errorf("%w: index %s: %v", core.ErrStoreUnavailable, account.Username, err)
		}
	}
	return nil
}

// FindByUsername loads an account record by username.
func (s *RedisAccounts) FindByUsername(ctx context.Context, username string) (*core.Account, error) {
	payload, err := s.client.Get(ctx, s.userKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: find %s: %v", core.ErrStoreUnavailable, username, err)
	}

	var account core.Account
	if err := json.Unmarshal([]byte(payload), &account); err != nil {
		return nil, fmt.Errorf("decode account %s: %w", username, err)
	}
	return &account, nil
}

// FindByPublicKey loads an account record through the public-key index.
func (s *RedisAccounts) FindByPublicKey(ctx context.Context, publicKey string) (*core.Account, error) {
	username, err := s.client.Get(ctx, s.pubkeyKey(publicKey)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: find by key: %v", core.ErrStoreUnavailable, err)
	}
	return s.FindByUsername(ctx, username)
}
