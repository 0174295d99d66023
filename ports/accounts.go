package ports

import (
	"context"

	"github.com/agora-market/admission/core"
)

// AccountStore is the account collaborator contract. Lookups return
// core.ErrAccountNotFound when no account matches.
type AccountStore interface {
	Exists(ctx context.Context, username string) (bool, error)
	Insert(ctx context.Context, account *core.Account) error
	FindByUsername(ctx context.Context, username string) (*core.Account, error)
	FindByPublicKey(ctx context.Context, publicKey string) (*core.Account, error)
}
