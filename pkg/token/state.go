package token

import (
	"encoding/binary"
	"fmt"

	"github.com/fortiblox/x1-ledger/pkg/types"
)

// Record sizes
const (
	// MintSize is the size of a serialized Mint record (46 bytes)
	MintSize = 46

	// AccountSize is the size of a serialized Account record (117 bytes)
	AccountSize = 117
)

// Account state enum values
const (
	AccountStateUninitialized uint8 = 0
	AccountStateInitialized   uint8 = 1
)

// COption represents an optional pubkey.
// Encoded as 4 bytes tag (1 = present, 0 = absent) + 32 bytes value.
type COption struct {
	IsSome bool
	Value  types.Pubkey
}

// Mint describes one token type.
// Layout (46 bytes, little-endian):
//   - mint_authority: COption<Pubkey> (36 bytes)
//   - supply: u64 (8 bytes)
//   - decimals: u8 (1 byte)
//   - is_initialized: bool (1 byte, 0 or 1 only)
type Mint struct {
	MintAuthority COption // Authority allowed to mint new tokens; None = fixed supply
	Supply        uint64  // Total outstanding units
	Decimals      uint8   // Display scaling factor, not enforced arithmetically
	IsInitialized bool    // Whether the mint is initialized
}

// Account describes one holder's balance of one mint.
// Layout (117 bytes, little-endian):
//   - mint: Pubkey (32 bytes)
//   - owner: Pubkey (32 bytes)
//   - amount: u64 (8 bytes)
//   - delegate: COption<Pubkey> (36 bytes)
//   - delegated_amount: u64 (8 bytes)
//   - state: u8 (0 = Uninitialized, 1 = Initialized)
type Account struct {
	Mint            types.Pubkey // The mint this account holds
	Owner           types.Pubkey // Sole default authority over the balance
	Amount          uint64       // Current balance
	Delegate        COption      // Optional secondary authority
	DelegatedAmount uint64       // Remaining delegated allowance; 0 unless Delegate is set
	State           uint8        // Account state
}

// DeserializeMintUnchecked deserializes a Mint record without requiring it
// to be initialized. A well-formed all-zero buffer decodes to the zero
// Mint; used by InitializeMint on freshly allocated records.
func DeserializeMintUnchecked(data []byte) (*Mint, error) {
	if len(data) != MintSize {
		return nil, fmt.Errorf("%w: mint record must be %d bytes, got %d",
			ErrInvalidAccountData, MintSize, len(data))
	}

	mint := &Mint{}
	offset := 0

	authority, offset, err := deserializeCOption(data, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: mint authority: %v", ErrInvalidAccountData, err)
	}
	mint.MintAuthority = authority

	mint.Supply = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8

	mint.Decimals = data[offset]
	offset++

	switch data[offset] {
	case 0:
		mint.IsInitialized = false
	case 1:
		mint.IsInitialized = true
	default:
		return nil, fmt.Errorf("%w: invalid is_initialized byte %d",
			ErrInvalidAccountData, data[offset])
	}

	return mint, nil
}

// DeserializeMint deserializes a Mint record and requires it to be
// initialized.
func DeserializeMint(data []byte) (*Mint, error) {
	mint, err := DeserializeMintUnchecked(data)
	if err != nil {
		return nil, err
	}
	if !mint.IsInitialized {
		return nil, fmt.Errorf("mint: %w", ErrNotInitialized)
	}
	return mint, nil
}

// Serialize serializes the Mint to its fixed 46-byte layout.
func (m *Mint) Serialize() []byte {
	data := make([]byte, MintSize)
	offset := 0

	offset = serializeCOption(data, offset, m.MintAuthority)

	binary.LittleEndian.PutUint64(data[offset:offset+8], m.Supply)
	offset += 8

	data[offset] = m.Decimals
	offset++

	if m.IsInitialized {
		data[offset] = 1
	}

	return data
}

// DeserializeAccountUnchecked deserializes an Account record without
// requiring it to be initialized. A well-formed all-zero buffer decodes to
// the zero Account; used by InitializeAccount on freshly allocated records.
func DeserializeAccountUnchecked(data []byte) (*Account, error) {
	if len(data) != AccountSize {
		return nil, fmt.Errorf("%w: account record must be %d bytes, got %d",
			ErrInvalidAccountData, AccountSize, len(data))
	}

	account := &Account{}
	offset := 0

	copy(account.Mint[:], data[offset:offset+32])
	offset += 32

	copy(account.Owner[:], data[offset:offset+32])
	offset += 32

	account.Amount = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8

	delegate, offset, err := deserializeCOption(data, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: delegate: %v", ErrInvalidAccountData, err)
	}
	account.Delegate = delegate

	account.DelegatedAmount = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8

	switch data[offset] {
	case AccountStateUninitialized, AccountStateInitialized:
		account.State = data[offset]
	default:
		return nil, fmt.Errorf("%w: invalid state byte %d",
			ErrInvalidAccountData, data[offset])
	}

	return account, nil
}

// DeserializeAccount deserializes an Account record and requires it to be
// initialized.
func DeserializeAccount(data []byte) (*Account, error) {
	account, err := DeserializeAccountUnchecked(data)
	if err != nil {
		return nil, err
	}
	if account.State == AccountStateUninitialized {
		return nil, fmt.Errorf("account: %w", ErrNotInitialized)
	}
	return account, nil
}

// Serialize serializes the Account to its fixed 117-byte layout.
func (a *Account) Serialize() []byte {
	data := make([]byte, AccountSize)
	offset := 0

	copy(data[offset:offset+32], a.Mint[:])
	offset += 32

	copy(data[offset:offset+32], a.Owner[:])
	offset += 32

	binary.LittleEndian.PutUint64(data[offset:offset+8], a.Amount)
	offset += 8

	offset = serializeCOption(data, offset, a.Delegate)

	binary.LittleEndian.PutUint64(data[offset:offset+8], a.DelegatedAmount)
	offset += 8

	data[offset] = a.State

	return data
}

// deserializeCOption deserializes a COption<Pubkey> from data at the given
// offset. The tag must be exactly 0 or 1; the 32 value bytes are ignored
// when the tag is 0. Returns the COption and the new offset.
func deserializeCOption(data []byte, offset int) (COption, int, error) {
	opt := COption{}
	tag := binary.LittleEndian.Uint32(data[offset : offset+4])
	offset += 4

	switch tag {
	case 0:
	case 1:
		opt.IsSome = true
		copy(opt.Value[:], data[offset:offset+32])
	default:
		return COption{}, 0, fmt.Errorf("invalid option tag %d", tag)
	}
	offset += 32

	return opt, offset, nil
}

// serializeCOption serializes a COption<Pubkey> to data at the given
// offset. Returns the new offset.
func serializeCOption(data []byte, offset int, opt COption) int {
	if opt.IsSome {
		binary.LittleEndian.PutUint32(data[offset:offset+4], 1)
		copy(data[offset+4:offset+36], opt.Value[:])
	}
	return offset + 36
}
