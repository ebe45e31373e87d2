// Package ledger executes instructions against persistent account
// storage. Execution is all-or-nothing: account changes reach storage
// only when the whole instruction succeeds.
package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fortiblox/x1-ledger/pkg/accounts"
	"github.com/fortiblox/x1-ledger/pkg/metrics"
	"github.com/fortiblox/x1-ledger/pkg/runtime"
	"github.com/fortiblox/x1-ledger/pkg/token"
	"github.com/fortiblox/x1-ledger/pkg/types"
)

// Executor errors
var (
	// ErrInvalidInstruction indicates the instruction is nil or malformed.
	ErrInvalidInstruction = errors.New("invalid instruction")

	// ErrUnknownProgram indicates the instruction names a program the
	// executor cannot run.
	ErrUnknownProgram = errors.New("unknown program")
)

// Result contains the outcome of executing one instruction.
type Result struct {
	// Success indicates whether the instruction committed.
	Success bool

	// Logs contains the log messages emitted during execution,
	// including logs from failed executions.
	Logs []string

	// Err contains the execution error when Success is false.
	Err error
}

// Executor runs token instructions against an accounts database.
type Executor struct {
	mu sync.Mutex

	db      accounts.AccountsDB
	program *token.Program
	rent    runtime.Rent
	metrics *metrics.Metrics
}

// NewExecutor creates an executor backed by the given accounts database.
func NewExecutor(db accounts.AccountsDB) *Executor {
	return &Executor{
		db:      db,
		program: token.New(),
		rent:    runtime.DefaultRent(),
	}
}

// SetRent overrides the rent parameters used for subsequent executions.
func (e *Executor) SetRent(rent runtime.Rent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rent = rent
}

// SetMetrics enables instruction metrics recording.
func (e *Executor) SetMetrics(m *metrics.Metrics) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = m
}

// Execute runs a single instruction. Accounts named by the instruction
// are loaded from storage, the program runs against in-memory copies,
// and writable accounts are stored back only if execution succeeds. The
// returned error reports executor-level failures; program-level failures
// are reported through Result.Err with a nil error.
func (e *Executor) Execute(instruction *types.Instruction) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := &Result{
		Logs: make([]string, 0),
	}

	if instruction == nil {
		return nil, ErrInvalidInstruction
	}
	if instruction.ProgramID != e.program.GetProgramID() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProgram, instruction.ProgramID)
	}

	loaded, err := e.loadInstructionAccounts(instruction)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	ctx := runtime.NewExecutionContext(instruction.ProgramID, loaded.infos, instruction.Data)
	ctx.SetRent(e.rent)

	start := time.Now()
	execErr := e.program.Execute(ctx, instruction)
	result.Logs = append(result.Logs, ctx.GetLogs()...)
	if execErr != nil {
		e.recordMetrics(instruction, false, time.Since(start))
		result.Err = execErr
		return result, nil
	}

	if err := e.commit(instruction, loaded); err != nil {
		return nil, fmt.Errorf("failed to commit accounts: %w", err)
	}

	e.recordMetrics(instruction, true, time.Since(start))

	result.Success = true
	return result, nil
}

// recordMetrics records instruction metrics when a collector is set.
func (e *Executor) recordMetrics(instruction *types.Instruction, success bool, duration time.Duration) {
	if e.metrics == nil {
		return
	}
	var discriminator uint8
	if len(instruction.Data) > 0 {
		discriminator = instruction.Data[0]
	}
	e.metrics.RecordInstruction(discriminator, success, duration)
	e.metrics.AccountsCount.SetUint64(e.db.GetAccountsCount())
}

// StateRoot computes the state hash over every stored account.
func (e *Executor) StateRoot() (types.Hash, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return accounts.StateHash(e.db)
}

// loadedAccounts holds the per-handle views built for one instruction.
// Handles naming the same pubkey share backing state, so a write through
// one handle is visible through the others.
type loadedAccounts struct {
	infos  []*runtime.AccountInfo
	shared map[types.Pubkey]*runtime.AccountInfo
}

// loadInstructionAccounts loads every account named by the instruction
// into in-memory handles. Missing accounts load as empty.
func (e *Executor) loadInstructionAccounts(instruction *types.Instruction) (*loadedAccounts, error) {
	loaded := &loadedAccounts{
		infos:  make([]*runtime.AccountInfo, len(instruction.Accounts)),
		shared: make(map[types.Pubkey]*runtime.AccountInfo),
	}

	for i, meta := range instruction.Accounts {
		base, ok := loaded.shared[meta.Pubkey]
		if !ok {
			account, err := e.db.GetAccount(meta.Pubkey)
			if err != nil {
				return nil, err
			}
			if account == nil {
				account = &types.Account{}
			}

			lamports := uint64(account.Lamports)
			data := make([]byte, len(account.Data))
			copy(data, account.Data)

			base = &runtime.AccountInfo{
				Pubkey:   meta.Pubkey,
				Lamports: &lamports,
				Data:     data,
				Owner:    account.Owner,
			}
			loaded.shared[meta.Pubkey] = base
		}

		// Per-handle flags over shared backing state.
		loaded.infos[i] = &runtime.AccountInfo{
			Pubkey:     base.Pubkey,
			Lamports:   base.Lamports,
			Data:       base.Data,
			Owner:      base.Owner,
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		}
	}

	return loaded, nil
}

// commit stores every writable handle back to the accounts database.
func (e *Executor) commit(instruction *types.Instruction, loaded *loadedAccounts) error {
	written := make(map[types.Pubkey]bool)
	for i, meta := range instruction.Accounts {
		if !meta.IsWritable || written[meta.Pubkey] {
			continue
		}
		written[meta.Pubkey] = true

		info := loaded.infos[i]
		account := &types.Account{
			Lamports: types.Lamports(*info.Lamports),
			Data:     info.Data,
			Owner:    info.Owner,
		}
		if err := e.db.SetAccount(meta.Pubkey, account); err != nil {
			return fmt.Errorf("failed to store account %s: %w", meta.Pubkey, err)
		}
	}
	return nil
}
