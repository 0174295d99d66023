package accounts

import (
	"context"
	"sync"

	"github.com/agora-market/admission/core"
	"github.com/agora-market/admission/ports"
)

// MemoryAccounts is an in-memory account store for tests and single-process
// deployments.
type MemoryAccounts struct {
	byUsername  map[string]core.Account
	byPublicKey map[string]string
	mu          sync.RWMutex
}

// NewMemoryAccounts creates an empty in-memory account store.
func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{
		byUsername:  make(map[string]core.Account),
		byPublicKey: make(map[string]string),
	}
}

var _ ports.AccountStore = (*MemoryAccounts)(nil)

// Exists reports whether an account with the username is on file.
func (s *MemoryAccounts) Exists(ctx context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byUsername[username]
	return ok, nil
}

// Insert persists a new account record.
func (s *MemoryAccounts) Insert(ctx context.Context, account *core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[account.Username]; ok {
		return core.ErrAccountExists
	}
	s.byUsername[account.Username] = *account
	if account.PublicKey != "" {
		s.byPublicKey[account.PublicKey] = account.Username
	}
	return nil
}

// FindByUsername loads an account record by username.
func (s *MemoryAccounts) FindByUsername(ctx context.Context, username string) (*core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.byUsername[username]
	if !ok {
		return nil, core.ErrAccountNotFound
	}
	return &account, nil
}

// FindByPublicKey loads an account record by its bech32 public key.
func (s *MemoryAccounts) FindByPublicKey(ctx context.Context, publicKey string) (*core.Account, error) {
	s.mu.RLock()
	username, ok := s.byPublicKey[publicKey]
	s.mu.RUnlock()
	if !ok {
		return nil, core.ErrAccountNotFound
	}
	return s.FindByUsername(ctx, username)
}
