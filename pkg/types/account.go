package types

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// Account is the storage envelope around a ledger record: the backing
// balance, the raw record bytes, and the program that owns the record.
type Account struct {
	Lamports Lamports // Balance backing the record
	Data     []byte   // Raw record bytes
	Owner    Pubkey   // Program that owns this record
}

// NewAccount creates a new account with a zero-filled data buffer of the
// given size.
func NewAccount(lamports Lamports, dataSize int, owner Pubkey) *Account {
	return &Account{
		Lamports: lamports,
		Data:     make([]byte, dataSize),
		Owner:    owner,
	}
}

// Clone creates a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := &Account{
		Lamports: a.Lamports,
		Owner:    a.Owner,
	}
	if a.Data != nil {
		clone.Data = make([]byte, len(a.Data))
		copy(clone.Data, a.Data)
	}
	return clone
}

// DataLen returns the length of the record data.
func (a *Account) DataLen() uint64 {
	if a.Data == nil {
		return 0
	}
	return uint64(len(a.Data))
}

// IsEmpty returns true if the account has zero lamports and no data.
func (a *Account) IsEmpty() bool {
	return a.Lamports == 0 && len(a.Data) == 0
}

// Hash computes the account hash for state root inclusion.
// Format: blake2b-256(lamports || data || owner || pubkey)
func (a *Account) Hash(pubkey Pubkey) Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}

	var lamportsBuf [8]byte
	binary.LittleEndian.PutUint64(lamportsBuf[:], uint64(a.Lamports))
	h.Write(lamportsBuf[:])
	h.Write(a.Data)
	h.Write(a.Owner[:])
	h.Write(pubkey[:])

	var result Hash
	copy(result[:], h.Sum(nil))
	return result
}

// AccountMeta describes one record handle named by an instruction.
type AccountMeta struct {
	Pubkey     Pubkey
	IsSigner   bool
	IsWritable bool
}

// AccountRef is a reference to an account with its pubkey.
type AccountRef struct {
	Pubkey  Pubkey
	Account *Account
}

// Instruction is one decoded invocation request: the program to run, the
// ordered record handles it operates on, and the raw instruction data.
type Instruction struct {
	ProgramID Pubkey
	Accounts  []AccountMeta
	Data      []byte
}
