// Package token implements the X1-Ledger fungible token program.
package token

import "errors"

// Token program errors
var (
	// ErrInvalidInstructionData indicates the instruction data is malformed.
	ErrInvalidInstructionData = errors.New("invalid instruction data")

	// ErrInvalidAccountData indicates the record data is malformed.
	ErrInvalidAccountData = errors.New("invalid account data")

	// ErrAlreadyInitialized indicates the record is already initialized.
	ErrAlreadyInitialized = errors.New("already initialized")

	// ErrNotInitialized indicates the record is not initialized.
	ErrNotInitialized = errors.New("not initialized")

	// ErrNotRentExempt indicates the backing balance is below the
	// rent-exemption threshold.
	ErrNotRentExempt = errors.New("balance below rent-exempt threshold")

	// ErrInvalidMint indicates the mint record is missing or uninitialized.
	ErrInvalidMint = errors.New("invalid mint")

	// ErrMintMismatch indicates an account's mint doesn't match the expected mint.
	ErrMintMismatch = errors.New("mint mismatch")

	// ErrSelfTransfer indicates source and destination are the same record.
	ErrSelfTransfer = errors.New("self transfer")

	// ErrInsufficientFunds indicates the balance or delegated allowance is
	// too small.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrOverflow indicates checked arithmetic would wrap.
	ErrOverflow = errors.New("overflow")

	// ErrFixedSupply indicates the mint has no authority, so supply cannot change.
	ErrFixedSupply = errors.New("fixed supply")

	// ErrOwnerMismatch indicates the authority address doesn't match.
	ErrOwnerMismatch = errors.New("owner mismatch")

	// ErrMissingRequiredSignature indicates the authority did not sign.
	ErrMissingRequiredSignature = errors.New("missing required signature")

	// ErrInvalidNumberOfAccounts indicates too few accounts were provided.
	ErrInvalidNumberOfAccounts = errors.New("invalid number of accounts")

	// ErrAccountNotWritable indicates a required writable account is not writable.
	ErrAccountNotWritable = errors.New("account is not writable")
)
