package token

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/fortiblox/x1-ledger/pkg/types"
)

func testPubkey(seed string) types.Pubkey {
	hash := sha256.Sum256([]byte(seed))
	var pk types.Pubkey
	copy(pk[:], hash[:])
	return pk
}

func TestMint_SerializeDeserialize(t *testing.T) {
	authority := testPubkey("mint_authority")
	mint := &Mint{
		MintAuthority: COption{IsSome: true, Value: authority},
		Supply:        1_000_000,
		Decimals:      9,
		IsInitialized: true,
	}

	data := mint.Serialize()
	if len(data) != MintSize {
		t.Fatalf("expected %d bytes, got %d", MintSize, len(data))
	}

	decoded, err := DeserializeMint(data)
	if err != nil {
		t.Fatalf("DeserializeMint failed: %v", err)
	}

	if !decoded.MintAuthority.IsSome {
		t.Error("mint authority should be present")
	}
	if decoded.MintAuthority.Value != authority {
		t.Error("mint authority mismatch")
	}
	if decoded.Supply != mint.Supply {
		t.Errorf("expected supply %d, got %d", mint.Supply, decoded.Supply)
	}
	if decoded.Decimals != mint.Decimals {
		t.Errorf("expected decimals %d, got %d", mint.Decimals, decoded.Decimals)
	}
	if !decoded.IsInitialized {
		t.Error("mint should be initialized")
	}
}

func TestMint_SerializeLayout(t *testing.T) {
	authority := testPubkey("mint_authority")
	mint := &Mint{
		MintAuthority: COption{IsSome: true, Value: authority},
		Supply:        42,
		Decimals:      6,
		IsInitialized: true,
	}

	data := mint.Serialize()

	if tag := binary.LittleEndian.Uint32(data[0:4]); tag != 1 {
		t.Errorf("expected authority tag 1, got %d", tag)
	}
	if !bytes.Equal(data[4:36], authority[:]) {
		t.Error("authority bytes mismatch")
	}
	if supply := binary.LittleEndian.Uint64(data[36:44]); supply != 42 {
		t.Errorf("expected supply 42, got %d", supply)
	}
	if data[44] != 6 {
		t.Errorf("expected decimals 6, got %d", data[44])
	}
	if data[45] != 1 {
		t.Errorf("expected is_initialized 1, got %d", data[45])
	}
}

func TestMint_SerializeNoAuthority(t *testing.T) {
	mint := &Mint{
		MintAuthority: COption{},
		Supply:        100,
		IsInitialized: true,
	}

	data := mint.Serialize()

	// Absent authority serializes as an all-zero option field
	for i := 0; i < 36; i++ {
		if data[i] != 0 {
			t.Fatalf("expected zero byte at offset %d, got %d", i, data[i])
		}
	}

	decoded, err := DeserializeMint(data)
	if err != nil {
		t.Fatalf("DeserializeMint failed: %v", err)
	}
	if decoded.MintAuthority.IsSome {
		t.Error("mint authority should be absent")
	}
}

func TestMint_DeserializeWrongLength(t *testing.T) {
	for _, size := range []int{0, 1, MintSize - 1, MintSize + 1, AccountSize} {
		_, err := DeserializeMintUnchecked(make([]byte, size))
		if !errors.Is(err, ErrInvalidAccountData) {
			t.Errorf("size %d: expected ErrInvalidAccountData, got %v", size, err)
		}
	}
}

func TestMint_DeserializeAllZero(t *testing.T) {
	// A fresh record decodes tolerantly to the zero mint
	mint, err := DeserializeMintUnchecked(make([]byte, MintSize))
	if err != nil {
		t.Fatalf("DeserializeMintUnchecked failed: %v", err)
	}
	if mint.IsInitialized || mint.MintAuthority.IsSome || mint.Supply != 0 || mint.Decimals != 0 {
		t.Error("all-zero buffer should decode to zero mint")
	}

	// Strict decode rejects it
	_, err = DeserializeMint(make([]byte, MintSize))
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

func TestMint_DeserializeBadOptionTag(t *testing.T) {
	data := make([]byte, MintSize)
	binary.LittleEndian.PutUint32(data[0:4], 2)

	_, err := DeserializeMintUnchecked(data)
	if !errors.Is(err, ErrInvalidAccountData) {
		t.Errorf("expected ErrInvalidAccountData, got %v", err)
	}
}

func TestMint_DeserializeBadInitializedByte(t *testing.T) {
	data := make([]byte, MintSize)
	data[45] = 2

	_, err := DeserializeMintUnchecked(data)
	if !errors.Is(err, ErrInvalidAccountData) {
		t.Errorf("expected ErrInvalidAccountData, got %v", err)
	}
}

func TestMint_NoneOptionValueBytesIgnored(t *testing.T) {
	// Tag 0 with garbage value bytes still decodes to None
	data := make([]byte, MintSize)
	for i := 4; i < 36; i++ {
		data[i] = 0xff
	}
	data[45] = 1

	mint, err := DeserializeMint(data)
	if err != nil {
		t.Fatalf("DeserializeMint failed: %v", err)
	}
	if mint.MintAuthority.IsSome {
		t.Error("authority should be None despite nonzero value bytes")
	}
}

func TestAccount_SerializeDeserialize(t *testing.T) {
	mint := testPubkey("mint")
	owner := testPubkey("owner")
	delegate := testPubkey("delegate")

	account := &Account{
		Mint:            mint,
		Owner:           owner,
		Amount:          12345,
		Delegate:        COption{IsSome: true, Value: delegate},
		DelegatedAmount: 500,
		State:           AccountStateInitialized,
	}

	data := account.Serialize()
	if len(data) != AccountSize {
		t.Fatalf("expected %d bytes, got %d", AccountSize, len(data))
	}

	decoded, err := DeserializeAccount(data)
	if err != nil {
		t.Fatalf("DeserializeAccount failed: %v", err)
	}

	if decoded.Mint != mint {
		t.Error("mint mismatch")
	}
	if decoded.Owner != owner {
		t.Error("owner mismatch")
	}
	if decoded.Amount != 12345 {
		t.Errorf("expected amount 12345, got %d", decoded.Amount)
	}
	if !decoded.Delegate.IsSome || decoded.Delegate.Value != delegate {
		t.Error("delegate mismatch")
	}
	if decoded.DelegatedAmount != 500 {
		t.Errorf("expected delegated amount 500, got %d", decoded.DelegatedAmount)
	}
	if decoded.State != AccountStateInitialized {
		t.Errorf("expected state %d, got %d", AccountStateInitialized, decoded.State)
	}
}

func TestAccount_SerializeLayout(t *testing.T) {
	mint := testPubkey("mint")
	owner := testPubkey("owner")

	account := &Account{
		Mint:   mint,
		Owner:  owner,
		Amount: 7,
		State:  AccountStateInitialized,
	}

	data := account.Serialize()

	if !bytes.Equal(data[0:32], mint[:]) {
		t.Error("mint bytes mismatch")
	}
	if !bytes.Equal(data[32:64], owner[:]) {
		t.Error("owner bytes mismatch")
	}
	if amount := binary.LittleEndian.Uint64(data[64:72]); amount != 7 {
		t.Errorf("expected amount 7, got %d", amount)
	}
	if tag := binary.LittleEndian.Uint32(data[72:76]); tag != 0 {
		t.Errorf("expected delegate tag 0, got %d", tag)
	}
	if delegated := binary.LittleEndian.Uint64(data[108:116]); delegated != 0 {
		t.Errorf("expected delegated amount 0, got %d", delegated)
	}
	if data[116] != AccountStateInitialized {
		t.Errorf("expected state byte 1, got %d", data[116])
	}
}

func TestAccount_DeserializeWrongLength(t *testing.T) {
	for _, size := range []int{0, 1, AccountSize - 1, AccountSize + 1, MintSize} {
		_, err := DeserializeAccountUnchecked(make([]byte, size))
		if !errors.Is(err, ErrInvalidAccountData) {
			t.Errorf("size %d: expected ErrInvalidAccountData, got %v", size, err)
		}
	}
}

func TestAccount_DeserializeAllZero(t *testing.T) {
	account, err := DeserializeAccountUnchecked(make([]byte, AccountSize))
	if err != nil {
		t.Fatalf("DeserializeAccountUnchecked failed: %v", err)
	}
	if account.State != AccountStateUninitialized {
		t.Error("all-zero buffer should decode to uninitialized account")
	}

	// Strict decode rejects it
	_, err = DeserializeAccount(make([]byte, AccountSize))
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

func TestAccount_DeserializeBadStateByte(t *testing.T) {
	data := make([]byte, AccountSize)
	data[116] = 2

	_, err := DeserializeAccountUnchecked(data)
	if !errors.Is(err, ErrInvalidAccountData) {
		t.Errorf("expected ErrInvalidAccountData, got %v", err)
	}
}

func TestAccount_DeserializeBadDelegateTag(t *testing.T) {
	data := make([]byte, AccountSize)
	binary.LittleEndian.PutUint32(data[72:76], 7)
	data[116] = AccountStateInitialized

	_, err := DeserializeAccountUnchecked(data)
	if !errors.Is(err, ErrInvalidAccountData) {
		t.Errorf("expected ErrInvalidAccountData, got %v", err)
	}
}
