package token

import (
	"fmt"

	"github.com/fortiblox/x1-ledger/pkg/runtime"
	"github.com/fortiblox/x1-ledger/pkg/types"
)

// Every handler follows the same discipline: fetch and validate all
// handles, decode records into in-memory copies, run every check against
// the copies, and only then serialize the results back into the record
// buffers. A handler that returns an error must not have written anything.

// handleInitializeMint handles the InitializeMint instruction.
// Account layout:
//
//	[0] mint (writable) - The mint to initialize
//	[1] rent sysvar
func handleInitializeMint(ctx *runtime.ExecutionContext, inst *InitializeMintInstruction) error {
	if ctx.AccountCount() < 2 {
		return fmt.Errorf("%w: InitializeMint requires 2 accounts, got %d",
			ErrInvalidNumberOfAccounts, ctx.AccountCount())
	}

	mintAcc, err := ctx.GetAccountByIndex(0)
	if err != nil {
		return err
	}
	if !mintAcc.IsWritable {
		return fmt.Errorf("%w: mint account", ErrAccountNotWritable)
	}

	// The rent sysvar handle is consumed positionally; the exemption
	// parameters come from the invocation context.
	if _, err := ctx.GetAccountByIndex(1); err != nil {
		return err
	}

	mint, err := DeserializeMintUnchecked(mintAcc.Data)
	if err != nil {
		return err
	}
	if mint.IsInitialized {
		return ErrAlreadyInitialized
	}

	if !ctx.Rent().IsExempt(*mintAcc.Lamports, len(mintAcc.Data)) {
		return ErrNotRentExempt
	}

	mint.MintAuthority = COption{IsSome: true, Value: inst.MintAuthority}
	mint.Decimals = inst.Decimals
	mint.IsInitialized = true

	copy(mintAcc.Data, mint.Serialize())

	return nil
}

// handleInitializeAccount handles the InitializeAccount instruction.
// Account layout:
//
//	[0] account (writable) - The account to initialize
//	[1] mint - The mint for this account
//	[2] owner - The owner of the new account
//	[3] rent sysvar
func handleInitializeAccount(ctx *runtime.ExecutionContext) error {
	if ctx.AccountCount() < 4 {
		return fmt.Errorf("%w: InitializeAccount requires 4 accounts, got %d",
			ErrInvalidNumberOfAccounts, ctx.AccountCount())
	}

	newAcc, err := ctx.GetAccountByIndex(0)
	if err != nil {
		return err
	}
	if !newAcc.IsWritable {
		return fmt.Errorf("%w: token account", ErrAccountNotWritable)
	}

	mintAcc, err := ctx.GetAccountByIndex(1)
	if err != nil {
		return err
	}

	ownerAcc, err := ctx.GetAccountByIndex(2)
	if err != nil {
		return err
	}

	if _, err := ctx.GetAccountByIndex(3); err != nil {
		return err
	}

	account, err := DeserializeAccountUnchecked(newAcc.Data)
	if err != nil {
		return err
	}
	if account.State != AccountStateUninitialized {
		return ErrAlreadyInitialized
	}

	if !ctx.Rent().IsExempt(*newAcc.Lamports, len(newAcc.Data)) {
		return ErrNotRentExempt
	}

	// The mint must already exist and be initialized.
	if _, err := DeserializeMint(mintAcc.Data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMint, err)
	}

	account.Mint = mintAcc.Pubkey
	account.Owner = ownerAcc.Pubkey
	account.Amount = 0
	account.Delegate = COption{}
	account.DelegatedAmount = 0
	account.State = AccountStateInitialized

	copy(newAcc.Data, account.Serialize())

	return nil
}

// handleTransfer handles the Transfer instruction.
// Account layout:
//
//	[0] source (writable) - The source account
//	[1] destination (writable) - The destination account
//	[2] authority (signer) - The source owner or delegate
func handleTransfer(ctx *runtime.ExecutionContext, inst *TransferInstruction) error {
	if ctx.AccountCount() < 3 {
		return fmt.Errorf("%w: Transfer requires 3 accounts, got %d",
			ErrInvalidNumberOfAccounts, ctx.AccountCount())
	}

	sourceAcc, err := ctx.GetAccountByIndex(0)
	if err != nil {
		return err
	}
	destAcc, err := ctx.GetAccountByIndex(1)
	if err != nil {
		return err
	}
	if sourceAcc.Pubkey == destAcc.Pubkey {
		return ErrSelfTransfer
	}
	if !sourceAcc.IsWritable {
		return fmt.Errorf("%w: source account", ErrAccountNotWritable)
	}
	if !destAcc.IsWritable {
		return fmt.Errorf("%w: destination account", ErrAccountNotWritable)
	}

	authorityAcc, err := ctx.GetAccountByIndex(2)
	if err != nil {
		return err
	}

	source, err := DeserializeAccount(sourceAcc.Data)
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}
	dest, err := DeserializeAccount(destAcc.Data)
	if err != nil {
		return fmt.Errorf("destination: %w", err)
	}

	if source.Amount < inst.Amount {
		return ErrInsufficientFunds
	}
	if source.Mint != dest.Mint {
		return ErrMintMismatch
	}

	if source.Delegate.IsSome && source.Delegate.Value == authorityAcc.Pubkey {
		if err := validateOwner(source.Delegate.Value, authorityAcc); err != nil {
			return err
		}
		if source.DelegatedAmount < inst.Amount {
			return ErrInsufficientFunds
		}
		source.DelegatedAmount, err = checkedSub(source.DelegatedAmount, inst.Amount)
		if err != nil {
			return err
		}
		if source.DelegatedAmount == 0 {
			source.Delegate = COption{}
		}
	} else {
		if err := validateOwner(source.Owner, authorityAcc); err != nil {
			return err
		}
	}

	source.Amount, err = checkedSub(source.Amount, inst.Amount)
	if err != nil {
		return err
	}
	dest.Amount, err = checkedAdd(dest.Amount, inst.Amount)
	if err != nil {
		return err
	}

	copy(sourceAcc.Data, source.Serialize())
	copy(destAcc.Data, dest.Serialize())

	return nil
}

// handleApprove handles the Approve instruction.
// Account layout:
//
//	[0] source (writable) - The account to delegate from
//	[1] delegate - The delegate
//	[2] owner (signer) - The source owner
//
// Approve replaces any prior delegation unconditionally; allowances never
// accumulate.
func handleApprove(ctx *runtime.ExecutionContext, inst *ApproveInstruction) error {
	if ctx.AccountCount() < 3 {
		return fmt.Errorf("%w: Approve requires 3 accounts, got %d",
			ErrInvalidNumberOfAccounts, ctx.AccountCount())
	}

	sourceAcc, err := ctx.GetAccountByIndex(0)
	if err != nil {
		return err
	}
	if !sourceAcc.IsWritable {
		return fmt.Errorf("%w: source account", ErrAccountNotWritable)
	}

	delegateAcc, err := ctx.GetAccountByIndex(1)
	if err != nil {
		return err
	}

	ownerAcc, err := ctx.GetAccountByIndex(2)
	if err != nil {
		return err
	}

	source, err := DeserializeAccount(sourceAcc.Data)
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}

	if err := validateOwner(source.Owner, ownerAcc); err != nil {
		return err
	}

	source.Delegate = COption{IsSome: true, Value: delegateAcc.Pubkey}
	source.DelegatedAmount = inst.Amount

	copy(sourceAcc.Data, source.Serialize())

	return nil
}

// handleMintTo handles the MintTo instruction.
// Account layout:
//
//	[0] mint (writable) - The mint
//	[1] destination (writable) - The account to mint to
//	[2] mint_authority (signer) - The mint authority
func handleMintTo(ctx *runtime.ExecutionContext, inst *MintToInstruction) error {
	if ctx.AccountCount() < 3 {
		return fmt.Errorf("%w: MintTo requires 3 accounts, got %d",
			ErrInvalidNumberOfAccounts, ctx.AccountCount())
	}

	mintAcc, err := ctx.GetAccountByIndex(0)
	if err != nil {
		return err
	}
	if !mintAcc.IsWritable {
		return fmt.Errorf("%w: mint account", ErrAccountNotWritable)
	}

	destAcc, err := ctx.GetAccountByIndex(1)
	if err != nil {
		return err
	}
	if !destAcc.IsWritable {
		return fmt.Errorf("%w: destination account", ErrAccountNotWritable)
	}

	authorityAcc, err := ctx.GetAccountByIndex(2)
	if err != nil {
		return err
	}

	dest, err := DeserializeAccount(destAcc.Data)
	if err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	if dest.Mint != mintAcc.Pubkey {
		return ErrMintMismatch
	}

	mint, err := DeserializeMint(mintAcc.Data)
	if err != nil {
		return fmt.Errorf("mint: %w", err)
	}
	if !mint.MintAuthority.IsSome {
		return ErrFixedSupply
	}
	if err := validateOwner(mint.MintAuthority.Value, authorityAcc); err != nil {
		return err
	}

	dest.Amount, err = checkedAdd(dest.Amount, inst.Amount)
	if err != nil {
		return err
	}
	mint.Supply, err = checkedAdd(mint.Supply, inst.Amount)
	if err != nil {
		return err
	}

	copy(destAcc.Data, dest.Serialize())
	copy(mintAcc.Data, mint.Serialize())

	return nil
}

// handleBurn handles the Burn instruction.
// Account layout:
//
//	[0] source (writable) - The account to burn from
//	[1] mint (writable) - The mint
//	[2] authority (signer) - The source owner or delegate
func handleBurn(ctx *runtime.ExecutionContext, inst *BurnInstruction) error {
	if ctx.AccountCount() < 3 {
		return fmt.Errorf("%w: Burn requires 3 accounts, got %d",
			ErrInvalidNumberOfAccounts, ctx.AccountCount())
	}

	sourceAcc, err := ctx.GetAccountByIndex(0)
	if err != nil {
		return err
	}
	if !sourceAcc.IsWritable {
		return fmt.Errorf("%w: source account", ErrAccountNotWritable)
	}

	mintAcc, err := ctx.GetAccountByIndex(1)
	if err != nil {
		return err
	}
	if !mintAcc.IsWritable {
		return fmt.Errorf("%w: mint account", ErrAccountNotWritable)
	}

	authorityAcc, err := ctx.GetAccountByIndex(2)
	if err != nil {
		return err
	}

	source, err := DeserializeAccount(sourceAcc.Data)
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}

	if source.Amount < inst.Amount {
		return ErrInsufficientFunds
	}
	if source.Mint != mintAcc.Pubkey {
		return ErrMintMismatch
	}

	if source.Delegate.IsSome && source.Delegate.Value == authorityAcc.Pubkey {
		if err := validateOwner(source.Delegate.Value, authorityAcc); err != nil {
			return err
		}
		if source.DelegatedAmount < inst.Amount {
			return ErrInsufficientFunds
		}
		source.DelegatedAmount, err = checkedSub(source.DelegatedAmount, inst.Amount)
		if err != nil {
			return err
		}
		if source.DelegatedAmount == 0 {
			source.Delegate = COption{}
		}
	} else {
		if err := validateOwner(source.Owner, authorityAcc); err != nil {
			return err
		}
	}

	source.Amount, err = checkedSub(source.Amount, inst.Amount)
	if err != nil {
		return err
	}

	mint, err := DeserializeMint(mintAcc.Data)
	if err != nil {
		return fmt.Errorf("mint: %w", err)
	}
	mint.Supply, err = checkedSub(mint.Supply, inst.Amount)
	if err != nil {
		return err
	}

	copy(sourceAcc.Data, source.Serialize())
	copy(mintAcc.Data, mint.Serialize())

	return nil
}

// validateOwner verifies that the claimed authority handle carries the
// expected address and actually signed. The same check serves both direct
// owners and approved delegates.
func validateOwner(expected types.Pubkey, authorityAcc *runtime.AccountInfo) error {
	if expected != authorityAcc.Pubkey {
		return ErrOwnerMismatch
	}
	if !authorityAcc.IsSigner {
		return ErrMissingRequiredSignature
	}
	return nil
}

// checkedAdd adds two u64 values, failing instead of wrapping.
func checkedAdd(a, b uint64) (uint64, error) {
	if a > ^uint64(0)-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// checkedSub subtracts b from a, failing instead of wrapping.
func checkedSub(a, b uint64) (uint64, error) {
	if a < b {
		return 0, ErrOverflow
	}
	return a - b, nil
}
