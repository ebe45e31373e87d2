// Package token implements the X1-Ledger fungible token program.
//
// The token program handles fungible tokens:
//   - Creating and managing token mints
//   - Initializing token accounts
//   - Transferring tokens between accounts
//   - Minting and burning tokens
//   - Delegating token spending authority
//
// Program ID: TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA
package token

import (
	"fmt"

	"github.com/fortiblox/x1-ledger/pkg/runtime"
	"github.com/fortiblox/x1-ledger/pkg/types"
)

// Program implements the token program.
type Program struct {
	// ProgramID is the token program's public key
	ProgramID types.Pubkey
}

// New creates a new Program instance.
func New() *Program {
	return &Program{
		ProgramID: types.TokenProgramID,
	}
}

// Execute executes a token program instruction.
// The instruction format is:
//   - First byte: instruction discriminator
//   - Remaining bytes: instruction-specific data
func (p *Program) Execute(ctx *runtime.ExecutionContext, instruction *types.Instruction) error {
	discriminator, err := ParseInstructionDiscriminator(instruction.Data)
	if err != nil {
		return err
	}

	var payload []byte
	if len(instruction.Data) > 1 {
		payload = instruction.Data[1:]
	}

	switch discriminator {
	case InstructionInitializeMint:
		var inst InitializeMintInstruction
		if err := inst.Decode(payload); err != nil {
			return err
		}
		_ = ctx.AddLog("Instruction: InitializeMint")
		return handleInitializeMint(ctx, &inst)

	case InstructionInitializeAccount:
		var inst InitializeAccountInstruction
		if err := inst.Decode(payload); err != nil {
			return err
		}
		_ = ctx.AddLog("Instruction: InitializeAccount")
		return handleInitializeAccount(ctx)

	case InstructionTransfer:
		var inst TransferInstruction
		if err := inst.Decode(payload); err != nil {
			return err
		}
		_ = ctx.AddLog("Instruction: Transfer")
		return handleTransfer(ctx, &inst)

	case InstructionApprove:
		var inst ApproveInstruction
		if err := inst.Decode(payload); err != nil {
			return err
		}
		_ = ctx.AddLog("Instruction: Approve")
		return handleApprove(ctx, &inst)

	case InstructionMintTo:
		var inst MintToInstruction
		if err := inst.Decode(payload); err != nil {
			return err
		}
		_ = ctx.AddLog("Instruction: MintTo")
		return handleMintTo(ctx, &inst)

	case InstructionBurn:
		var inst BurnInstruction
		if err := inst.Decode(payload); err != nil {
			return err
		}
		_ = ctx.AddLog("Instruction: Burn")
		return handleBurn(ctx, &inst)

	default:
		return fmt.Errorf("%w: unknown instruction %d", ErrInvalidInstructionData, discriminator)
	}
}

// GetProgramID returns the token program's public key.
func (p *Program) GetProgramID() types.Pubkey {
	return p.ProgramID
}

// IsTokenProgram checks if a pubkey is the token program.
func IsTokenProgram(pubkey types.Pubkey) bool {
	return pubkey == types.TokenProgramID
}
