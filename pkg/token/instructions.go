package token

import (
	"encoding/binary"
	"fmt"

	"github.com/fortiblox/x1-ledger/pkg/types"
)

// Instruction discriminators (first byte of instruction data)
const (
	InstructionInitializeMint    uint8 = 0
	InstructionInitializeAccount uint8 = 1
	InstructionTransfer          uint8 = 2
	InstructionApprove           uint8 = 3
	InstructionMintTo            uint8 = 4
	InstructionBurn              uint8 = 5
)

// Decode is deliberately permissive about trailing bytes: each variant
// consumes exactly what it needs and ignores the rest, so payloads from
// newer encoders that append fields still decode. Short buffers always
// fail with ErrInvalidInstructionData.

// InitializeMintInstruction represents an InitializeMint instruction.
// Accounts:
//
//	[0] mint (writable) - The mint to initialize
//	[1] rent sysvar
type InitializeMintInstruction struct {
	Decimals      uint8        // Display scaling factor
	MintAuthority types.Pubkey // Authority allowed to mint tokens
}

// Decode decodes an InitializeMint instruction payload from bytes.
func (inst *InitializeMintInstruction) Decode(data []byte) error {
	// Layout: decimals (1) + mint_authority (32)
	if len(data) < 33 {
		return fmt.Errorf("%w: InitializeMint requires 33 bytes, got %d",
			ErrInvalidInstructionData, len(data))
	}
	inst.Decimals = data[0]
	copy(inst.MintAuthority[:], data[1:33])
	return nil
}

// Encode encodes an InitializeMint instruction to bytes.
func (inst *InitializeMintInstruction) Encode() []byte {
	data := make([]byte, 34)
	data[0] = InstructionInitializeMint
	data[1] = inst.Decimals
	copy(data[2:34], inst.MintAuthority[:])
	return data
}

// InitializeAccountInstruction represents an InitializeAccount instruction.
// Accounts:
//
//	[0] account (writable) - The account to initialize
//	[1] mint - The mint for this account
//	[2] owner - The owner of the new account
//	[3] rent sysvar
type InitializeAccountInstruction struct {
	// No additional data required - accounts provide all info
}

// Decode decodes an InitializeAccount instruction payload from bytes.
func (inst *InitializeAccountInstruction) Decode(_ []byte) error {
	return nil
}

// Encode encodes an InitializeAccount instruction to bytes.
func (inst *InitializeAccountInstruction) Encode() []byte {
	return []byte{InstructionInitializeAccount}
}

// TransferInstruction represents a Transfer instruction.
// Accounts:
//
//	[0] source (writable) - The source account
//	[1] destination (writable) - The destination account
//	[2] authority (signer) - The source owner or delegate
type TransferInstruction struct {
	Amount uint64 // Amount of tokens to transfer
}

// Decode decodes a Transfer instruction payload from bytes.
func (inst *TransferInstruction) Decode(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("%w: Transfer requires 8 bytes, got %d",
			ErrInvalidInstructionData, len(data))
	}
	inst.Amount = binary.LittleEndian.Uint64(data[0:8])
	return nil
}

// Encode encodes a Transfer instruction to bytes.
func (inst *TransferInstruction) Encode() []byte {
	data := make([]byte, 9)
	data[0] = InstructionTransfer
	binary.LittleEndian.PutUint64(data[1:9], inst.Amount)
	return data
}

// ApproveInstruction represents an Approve instruction.
// Accounts:
//
//	[0] source (writable) - The account to delegate from
//	[1] delegate - The delegate
//	[2] owner (signer) - The source owner
type ApproveInstruction struct {
	Amount uint64 // Maximum amount the delegate may move
}

// Decode decodes an Approve instruction payload from bytes.
func (inst *ApproveInstruction) Decode(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("%w: Approve requires 8 bytes, got %d",
			ErrInvalidInstructionData, len(data))
	}
	inst.Amount = binary.LittleEndian.Uint64(data[0:8])
	return nil
}

// Encode encodes an Approve instruction to bytes.
func (inst *ApproveInstruction) Encode() []byte {
	data := make([]byte, 9)
	data[0] = InstructionApprove
	binary.LittleEndian.PutUint64(data[1:9], inst.Amount)
	return data
}

// MintToInstruction represents a MintTo instruction.
// Accounts:
//
//	[0] mint (writable) - The mint
//	[1] destination (writable) - The account to mint to
//	[2] mint_authority (signer) - The mint authority
type MintToInstruction struct {
	Amount uint64 // Amount of tokens to mint
}

// Decode decodes a MintTo instruction payload from bytes.
func (inst *MintToInstruction) Decode(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("%w: MintTo requires 8 bytes, got %d",
			ErrInvalidInstructionData, len(data))
	}
	inst.Amount = binary.LittleEndian.Uint64(data[0:8])
	return nil
}

// Encode encodes a MintTo instruction to bytes.
func (inst *MintToInstruction) Encode() []byte {
	data := make([]byte, 9)
	data[0] = InstructionMintTo
	binary.LittleEndian.PutUint64(data[1:9], inst.Amount)
	return data
}

// BurnInstruction represents a Burn instruction.
// Accounts:
//
//	[0] source (writable) - The account to burn from
//	[1] mint (writable) - The mint
//	[2] authority (signer) - The source owner or delegate
type BurnInstruction struct {
	Amount uint64 // Amount of tokens to burn
}

// Decode decodes a Burn instruction payload from bytes.
func (inst *BurnInstruction) Decode(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("%w: Burn requires 8 bytes, got %d",
			ErrInvalidInstructionData, len(data))
	}
	inst.Amount = binary.LittleEndian.Uint64(data[0:8])
	return nil
}

// Encode encodes a Burn instruction to bytes.
func (inst *BurnInstruction) Encode() []byte {
	data := make([]byte, 9)
	data[0] = InstructionBurn
	binary.LittleEndian.PutUint64(data[1:9], inst.Amount)
	return data
}

// ParseInstructionDiscriminator extracts the discriminator from
// instruction data.
func ParseInstructionDiscriminator(data []byte) (uint8, error) {
	if len(data) < 1 {
		return 0, fmt.Errorf("%w: instruction data too short", ErrInvalidInstructionData)
	}
	return data[0], nil
}
