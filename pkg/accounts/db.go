// Package accounts provides record storage for X1-Ledger.
package accounts

import (
	"github.com/fortiblox/x1-ledger/pkg/types"
)

// AccountsDB defines the interface for record storage.
type AccountsDB interface {
	// GetAccount retrieves an account by pubkey.
	// Returns nil, nil if the account does not exist.
	GetAccount(pubkey types.Pubkey) (*types.Account, error)

	// SetAccount stores an account.
	SetAccount(pubkey types.Pubkey, account *types.Account) error

	// DeleteAccount removes an account.
	DeleteAccount(pubkey types.Pubkey) error

	// HasAccount returns true if the account exists.
	HasAccount(pubkey types.Pubkey) bool

	// AllAccounts returns every stored account. Order is unspecified.
	AllAccounts() ([]types.AccountRef, error)

	// GetAccountsCount returns the total number of accounts.
	GetAccountsCount() uint64

	// Close closes the database.
	Close() error
}
