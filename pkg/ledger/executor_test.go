package ledger

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/fortiblox/x1-ledger/pkg/accounts"
	"github.com/fortiblox/x1-ledger/pkg/token"
	"github.com/fortiblox/x1-ledger/pkg/types"
)

func testPubkey(seed string) types.Pubkey {
	return types.Pubkey(sha256.Sum256([]byte(seed)))
}

// seedBlank stores a zero-filled rent-exempt record owned by the token
// program, ready for initialization.
func seedBlank(t *testing.T, db accounts.AccountsDB, pubkey types.Pubkey, size int) {
	t.Helper()
	account := types.NewAccount(types.Lamports(10_000_000_000), size, types.TokenProgramID)
	if err := db.SetAccount(pubkey, account); err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}
}

func tokenInstruction(data []byte, metas ...types.AccountMeta) *types.Instruction {
	return &types.Instruction{
		ProgramID: types.TokenProgramID,
		Accounts:  metas,
		Data:      data,
	}
}

func writable(pubkey types.Pubkey) types.AccountMeta {
	return types.AccountMeta{Pubkey: pubkey, IsWritable: true}
}

func signer(pubkey types.Pubkey) types.AccountMeta {
	return types.AccountMeta{Pubkey: pubkey, IsSigner: true}
}

func readonly(pubkey types.Pubkey) types.AccountMeta {
	return types.AccountMeta{Pubkey: pubkey}
}

// mustExecute runs an instruction and requires a committed result.
func mustExecute(t *testing.T, executor *Executor, instruction *types.Instruction) *Result {
	t.Helper()
	result, err := executor.Execute(instruction)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("instruction failed: %v\nlogs: %v", result.Err, result.Logs)
	}
	return result
}

func loadTokenAccount(t *testing.T, db accounts.AccountsDB, pubkey types.Pubkey) *token.Account {
	t.Helper()
	stored, err := db.GetAccount(pubkey)
	if err != nil || stored == nil {
		t.Fatalf("account %s not found: %v", pubkey, err)
	}
	account, err := token.DeserializeAccount(stored.Data)
	if err != nil {
		t.Fatalf("failed to decode token account: %v", err)
	}
	return account
}

func loadMint(t *testing.T, db accounts.AccountsDB, pubkey types.Pubkey) *token.Mint {
	t.Helper()
	stored, err := db.GetAccount(pubkey)
	if err != nil || stored == nil {
		t.Fatalf("mint %s not found: %v", pubkey, err)
	}
	mint, err := token.DeserializeMint(stored.Data)
	if err != nil {
		t.Fatalf("failed to decode mint: %v", err)
	}
	return mint
}

func TestExecutor_TokenLifecycle(t *testing.T) {
	db := accounts.NewMemoryDB()
	defer db.Close()
	executor := NewExecutor(db)

	mint := testPubkey("mint")
	authority := testPubkey("authority")
	alice := testPubkey("alice_account")
	aliceOwner := testPubkey("alice")
	bob := testPubkey("bob_account")
	bobOwner := testPubkey("bob")

	seedBlank(t, db, mint, token.MintSize)
	seedBlank(t, db, alice, token.AccountSize)
	seedBlank(t, db, bob, token.AccountSize)

	// Create the mint
	mustExecute(t, executor, tokenInstruction(
		(&token.InitializeMintInstruction{Decimals: 9, MintAuthority: authority}).Encode(),
		writable(mint), readonly(types.SysvarRentID),
	))

	// Open both token accounts
	for _, account := range []struct {
		pubkey types.Pubkey
		owner  types.Pubkey
	}{{alice, aliceOwner}, {bob, bobOwner}} {
		mustExecute(t, executor, tokenInstruction(
			(&token.InitializeAccountInstruction{}).Encode(),
			writable(account.pubkey), readonly(mint), readonly(account.owner), readonly(types.SysvarRentID),
		))
	}

	// Mint to alice
	mustExecute(t, executor, tokenInstruction(
		(&token.MintToInstruction{Amount: 1000}).Encode(),
		writable(mint), writable(alice), signer(authority),
	))

	if got := loadMint(t, db, mint).Supply; got != 1000 {
		t.Errorf("expected supply 1000, got %d", got)
	}
	if got := loadTokenAccount(t, db, alice).Amount; got != 1000 {
		t.Errorf("expected alice balance 1000, got %d", got)
	}

	// Transfer alice -> bob
	mustExecute(t, executor, tokenInstruction(
		(&token.TransferInstruction{Amount: 400}).Encode(),
		writable(alice), writable(bob), signer(aliceOwner),
	))

	if got := loadTokenAccount(t, db, alice).Amount; got != 600 {
		t.Errorf("expected alice balance 600, got %d", got)
	}
	if got := loadTokenAccount(t, db, bob).Amount; got != 400 {
		t.Errorf("expected bob balance 400, got %d", got)
	}

	// Burn from bob
	mustExecute(t, executor, tokenInstruction(
		(&token.BurnInstruction{Amount: 100}).Encode(),
		writable(bob), writable(mint), signer(bobOwner),
	))

	if got := loadMint(t, db, mint).Supply; got != 900 {
		t.Errorf("expected supply 900, got %d", got)
	}
	if got := loadTokenAccount(t, db, bob).Amount; got != 300 {
		t.Errorf("expected bob balance 300, got %d", got)
	}
}

func TestExecutor_DelegatedTransfer(t *testing.T) {
	db := accounts.NewMemoryDB()
	defer db.Close()
	executor := NewExecutor(db)

	mint := testPubkey("mint")
	authority := testPubkey("authority")
	source := testPubkey("source_account")
	owner := testPubkey("owner")
	dest := testPubkey("dest_account")
	destOwner := testPubkey("dest_owner")
	delegate := testPubkey("delegate")

	seedBlank(t, db, mint, token.MintSize)
	seedBlank(t, db, source, token.AccountSize)
	seedBlank(t, db, dest, token.AccountSize)

	mustExecute(t, executor, tokenInstruction(
		(&token.InitializeMintInstruction{MintAuthority: authority}).Encode(),
		writable(mint), readonly(types.SysvarRentID),
	))
	mustExecute(t, executor, tokenInstruction(
		(&token.InitializeAccountInstruction{}).Encode(),
		writable(source), readonly(mint), readonly(owner), readonly(types.SysvarRentID),
	))
	mustExecute(t, executor, tokenInstruction(
		(&token.InitializeAccountInstruction{}).Encode(),
		writable(dest), readonly(mint), readonly(destOwner), readonly(types.SysvarRentID),
	))
	mustExecute(t, executor, tokenInstruction(
		(&token.MintToInstruction{Amount: 500}).Encode(),
		writable(mint), writable(source), signer(authority),
	))

	// Owner grants an allowance, delegate spends all of it
	mustExecute(t, executor, tokenInstruction(
		(&token.ApproveInstruction{Amount: 200}).Encode(),
		writable(source), readonly(delegate), signer(owner),
	))
	mustExecute(t, executor, tokenInstruction(
		(&token.TransferInstruction{Amount: 200}).Encode(),
		writable(source), writable(dest), signer(delegate),
	))

	sourceAccount := loadTokenAccount(t, db, source)
	if sourceAccount.Amount != 300 {
		t.Errorf("expected source balance 300, got %d", sourceAccount.Amount)
	}
	if sourceAccount.Delegate.IsSome {
		t.Error("delegate should be cleared after the allowance is spent")
	}
	if got := loadTokenAccount(t, db, dest).Amount; got != 200 {
		t.Errorf("expected dest balance 200, got %d", got)
	}
}

func TestExecutor_RollbackOnFailure(t *testing.T) {
	db := accounts.NewMemoryDB()
	defer db.Close()
	executor := NewExecutor(db)

	mint := testPubkey("mint")
	authority := testPubkey("authority")
	source := testPubkey("source_account")
	owner := testPubkey("owner")
	dest := testPubkey("dest_account")

	seedBlank(t, db, mint, token.MintSize)
	seedBlank(t, db, source, token.AccountSize)
	seedBlank(t, db, dest, token.AccountSize)

	mustExecute(t, executor, tokenInstruction(
		(&token.InitializeMintInstruction{MintAuthority: authority}).Encode(),
		writable(mint), readonly(types.SysvarRentID),
	))
	mustExecute(t, executor, tokenInstruction(
		(&token.InitializeAccountInstruction{}).Encode(),
		writable(source), readonly(mint), readonly(owner), readonly(types.SysvarRentID),
	))
	mustExecute(t, executor, tokenInstruction(
		(&token.InitializeAccountInstruction{}).Encode(),
		writable(dest), readonly(mint), readonly(owner), readonly(types.SysvarRentID),
	))
	mustExecute(t, executor, tokenInstruction(
		(&token.MintToInstruction{Amount: 100}).Encode(),
		writable(mint), writable(source), signer(authority),
	))

	rootBefore, err := executor.StateRoot()
	if err != nil {
		t.Fatalf("StateRoot failed: %v", err)
	}
	sourceBefore, _ := db.GetAccount(source)

	// Overdraw: program fails, nothing may reach storage
	result, err := executor.Execute(tokenInstruction(
		(&token.TransferInstruction{Amount: 101}).Encode(),
		writable(source), writable(dest), signer(owner),
	))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Success {
		t.Fatal("overdraw should not succeed")
	}
	if !errors.Is(result.Err, token.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", result.Err)
	}

	sourceAfter, _ := db.GetAccount(source)
	if !bytes.Equal(sourceAfter.Data, sourceBefore.Data) {
		t.Error("failed instruction must not modify storage")
	}

	rootAfter, err := executor.StateRoot()
	if err != nil {
		t.Fatalf("StateRoot failed: %v", err)
	}
	if rootAfter != rootBefore {
		t.Error("state root should be unchanged after a failed instruction")
	}
}

func TestExecutor_StateRootTracksCommits(t *testing.T) {
	db := accounts.NewMemoryDB()
	defer db.Close()
	executor := NewExecutor(db)

	emptyRoot, err := executor.StateRoot()
	if err != nil {
		t.Fatalf("StateRoot failed: %v", err)
	}
	if emptyRoot != types.ZeroHash {
		t.Error("empty ledger should have a zero state root")
	}

	mint := testPubkey("mint")
	seedBlank(t, db, mint, token.MintSize)

	seededRoot, err := executor.StateRoot()
	if err != nil {
		t.Fatalf("StateRoot failed: %v", err)
	}
	if seededRoot == emptyRoot {
		t.Error("seeding an account should change the state root")
	}

	mustExecute(t, executor, tokenInstruction(
		(&token.InitializeMintInstruction{MintAuthority: testPubkey("authority")}).Encode(),
		writable(mint), readonly(types.SysvarRentID),
	))

	committedRoot, err := executor.StateRoot()
	if err != nil {
		t.Fatalf("StateRoot failed: %v", err)
	}
	if committedRoot == seededRoot {
		t.Error("committed instruction should change the state root")
	}
}

func TestExecutor_DuplicateAccountHandles(t *testing.T) {
	// The same pubkey presented through two handles shares backing state,
	// so the self-transfer guard sees identical balances either way.
	db := accounts.NewMemoryDB()
	defer db.Close()
	executor := NewExecutor(db)

	mint := testPubkey("mint")
	authority := testPubkey("authority")
	source := testPubkey("source_account")
	owner := testPubkey("owner")

	seedBlank(t, db, mint, token.MintSize)
	seedBlank(t, db, source, token.AccountSize)

	mustExecute(t, executor, tokenInstruction(
		(&token.InitializeMintInstruction{MintAuthority: authority}).Encode(),
		writable(mint), readonly(types.SysvarRentID),
	))
	mustExecute(t, executor, tokenInstruction(
		(&token.InitializeAccountInstruction{}).Encode(),
		writable(source), readonly(mint), readonly(owner), readonly(types.SysvarRentID),
	))

	result, err := executor.Execute(tokenInstruction(
		(&token.TransferInstruction{Amount: 1}).Encode(),
		writable(source), writable(source), signer(owner),
	))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Success {
		t.Fatal("self transfer should fail")
	}
	if !errors.Is(result.Err, token.ErrSelfTransfer) {
		t.Errorf("expected ErrSelfTransfer, got %v", result.Err)
	}
}

func TestExecutor_NilInstruction(t *testing.T) {
	executor := NewExecutor(accounts.NewMemoryDB())

	if _, err := executor.Execute(nil); !errors.Is(err, ErrInvalidInstruction) {
		t.Errorf("expected ErrInvalidInstruction, got %v", err)
	}
}

func TestExecutor_UnknownProgram(t *testing.T) {
	executor := NewExecutor(accounts.NewMemoryDB())

	instruction := &types.Instruction{
		ProgramID: testPubkey("some_other_program"),
		Data:      []byte{0},
	}
	if _, err := executor.Execute(instruction); !errors.Is(err, ErrUnknownProgram) {
		t.Errorf("expected ErrUnknownProgram, got %v", err)
	}
}

func TestExecutor_FailureCarriesLogs(t *testing.T) {
	db := accounts.NewMemoryDB()
	defer db.Close()
	executor := NewExecutor(db)

	mint := testPubkey("mint")
	seedBlank(t, db, mint, token.MintSize)
	mustExecute(t, executor, tokenInstruction(
		(&token.InitializeMintInstruction{MintAuthority: testPubkey("authority")}).Encode(),
		writable(mint), readonly(types.SysvarRentID),
	))

	// Second initialization fails after the instruction log was emitted
	result, err := executor.Execute(tokenInstruction(
		(&token.InitializeMintInstruction{MintAuthority: testPubkey("authority")}).Encode(),
		writable(mint), readonly(types.SysvarRentID),
	))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Success {
		t.Fatal("reinitialization should fail")
	}
	if !errors.Is(result.Err, token.ErrAlreadyInitialized) {
		t.Errorf("expected ErrAlreadyInitialized, got %v", result.Err)
	}
	if len(result.Logs) == 0 || result.Logs[0] != "Instruction: InitializeMint" {
		t.Errorf("expected instruction log, got %v", result.Logs)
	}
}
