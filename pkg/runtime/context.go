// Package runtime provides the invocation context the ledger programs
// execute against: the ordered record handles supplied by the host, the
// per-invocation log buffer, and the rent parameters.
package runtime

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fortiblox/x1-ledger/pkg/types"
)

// Context errors
var (
	ErrInvalidAccountIndex = errors.New("invalid account index")
	ErrMaxLogsExceeded     = errors.New("maximum log entries exceeded")
	ErrLogTooLong          = errors.New("log message too long")
)

// Limits for execution
const (
	MaxLogMessages      = 64
	MaxLogMessageLength = 10000
)

// AccountInfo is one record handle as seen by a program: the declared
// identity, the backing balance, the raw mutable record bytes, and the
// caller-authenticated signer flag.
type AccountInfo struct {
	Pubkey     types.Pubkey
	Lamports   *uint64 // Pointer allows modification detection
	Data       []byte
	Owner      types.Pubkey
	IsSigner   bool
	IsWritable bool
}

// Clone creates a deep copy of AccountInfo.
func (a *AccountInfo) Clone() *AccountInfo {
	if a == nil {
		return nil
	}
	lamports := *a.Lamports
	clone := &AccountInfo{
		Pubkey:     a.Pubkey,
		Lamports:   &lamports,
		Owner:      a.Owner,
		IsSigner:   a.IsSigner,
		IsWritable: a.IsWritable,
	}
	if a.Data != nil {
		clone.Data = make([]byte, len(a.Data))
		copy(clone.Data, a.Data)
	}
	return clone
}

// ExecutionContext holds the state for one program invocation. The
// processor runs one instruction to completion against it; the host
// decides afterwards whether to commit the handle contents.
type ExecutionContext struct {
	mu sync.RWMutex

	// Program being executed
	ProgramID types.Pubkey

	// Accounts available to the instruction, in the order the
	// instruction named them
	Accounts []*AccountInfo

	// Instruction data
	InstructionData []byte

	// Execution logs
	logs    []string
	maxLogs int

	// Rent parameters for this invocation
	rent Rent
}

// NewExecutionContext creates a new execution context.
func NewExecutionContext(programID types.Pubkey, accounts []*AccountInfo, instructionData []byte) *ExecutionContext {
	return &ExecutionContext{
		ProgramID:       programID,
		Accounts:        accounts,
		InstructionData: instructionData,
		logs:            make([]string, 0, MaxLogMessages),
		maxLogs:         MaxLogMessages,
		rent:            DefaultRent(),
	}
}

// SetRent overrides the rent parameters for this invocation.
func (ctx *ExecutionContext) SetRent(rent Rent) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.rent = rent
}

// Rent returns the rent parameters for this invocation.
func (ctx *ExecutionContext) Rent() Rent {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.rent
}

// GetAccountByIndex returns an account by index.
func (ctx *ExecutionContext) GetAccountByIndex(index int) (*AccountInfo, error) {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()

	if index < 0 || index >= len(ctx.Accounts) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAccountIndex, index)
	}
	return ctx.Accounts[index], nil
}

// AccountCount returns the number of accounts.
func (ctx *ExecutionContext) AccountCount() int {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return len(ctx.Accounts)
}

// AddLog adds a log message.
func (ctx *ExecutionContext) AddLog(message string) error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if len(ctx.logs) >= ctx.maxLogs {
		return ErrMaxLogsExceeded
	}
	if len(message) > MaxLogMessageLength {
		return ErrLogTooLong
	}

	ctx.logs = append(ctx.logs, message)
	return nil
}

// GetLogs returns all log messages.
func (ctx *ExecutionContext) GetLogs() []string {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	logs := make([]string, len(ctx.logs))
	copy(logs, ctx.logs)
	return logs
}

// ClearLogs clears all log messages.
func (ctx *ExecutionContext) ClearLogs() {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.logs = ctx.logs[:0]
}
