package runtime

import (
	"crypto/sha256"
	"errors"
	"strings"
	"testing"

	"github.com/fortiblox/x1-ledger/pkg/types"
)

func testPubkey(seed string) types.Pubkey {
	return types.Pubkey(sha256.Sum256([]byte(seed)))
}

func testInfo(seed string, dataSize int) *AccountInfo {
	lamports := uint64(1000)
	return &AccountInfo{
		Pubkey:   testPubkey(seed),
		Lamports: &lamports,
		Data:     make([]byte, dataSize),
		Owner:    types.TokenProgramID,
	}
}

func TestExecutionContext_GetAccountByIndex(t *testing.T) {
	accounts := []*AccountInfo{testInfo("a", 8), testInfo("b", 8)}
	ctx := NewExecutionContext(types.TokenProgramID, accounts, nil)

	if ctx.AccountCount() != 2 {
		t.Fatalf("expected 2 accounts, got %d", ctx.AccountCount())
	}

	info, err := ctx.GetAccountByIndex(1)
	if err != nil {
		t.Fatalf("GetAccountByIndex failed: %v", err)
	}
	if info.Pubkey != testPubkey("b") {
		t.Error("wrong account returned")
	}

	for _, index := range []int{-1, 2, 100} {
		if _, err := ctx.GetAccountByIndex(index); !errors.Is(err, ErrInvalidAccountIndex) {
			t.Errorf("index %d: expected ErrInvalidAccountIndex, got %v", index, err)
		}
	}
}

func TestExecutionContext_Logs(t *testing.T) {
	ctx := NewExecutionContext(types.TokenProgramID, nil, nil)

	if err := ctx.AddLog("hello"); err != nil {
		t.Fatalf("AddLog failed: %v", err)
	}
	if err := ctx.AddLog("world"); err != nil {
		t.Fatalf("AddLog failed: %v", err)
	}

	logs := ctx.GetLogs()
	if len(logs) != 2 || logs[0] != "hello" || logs[1] != "world" {
		t.Errorf("unexpected logs: %v", logs)
	}

	// Returned slice is a copy
	logs[0] = "mutated"
	if ctx.GetLogs()[0] != "hello" {
		t.Error("GetLogs should return a copy")
	}

	ctx.ClearLogs()
	if len(ctx.GetLogs()) != 0 {
		t.Error("ClearLogs should empty the buffer")
	}
}

func TestExecutionContext_LogLimits(t *testing.T) {
	ctx := NewExecutionContext(types.TokenProgramID, nil, nil)

	if err := ctx.AddLog(strings.Repeat("x", MaxLogMessageLength+1)); !errors.Is(err, ErrLogTooLong) {
		t.Errorf("expected ErrLogTooLong, got %v", err)
	}

	for i := 0; i < MaxLogMessages; i++ {
		if err := ctx.AddLog("entry"); err != nil {
			t.Fatalf("AddLog %d failed: %v", i, err)
		}
	}
	if err := ctx.AddLog("one too many"); !errors.Is(err, ErrMaxLogsExceeded) {
		t.Errorf("expected ErrMaxLogsExceeded, got %v", err)
	}
	if len(ctx.GetLogs()) != MaxLogMessages {
		t.Errorf("expected %d logs, got %d", MaxLogMessages, len(ctx.GetLogs()))
	}
}

func TestExecutionContext_Rent(t *testing.T) {
	ctx := NewExecutionContext(types.TokenProgramID, nil, nil)
	if ctx.Rent() != DefaultRent() {
		t.Error("fresh context should carry default rent")
	}

	custom := Rent{LamportsPerByteYear: 1, ExemptionThreshold: 1}
	ctx.SetRent(custom)
	if ctx.Rent() != custom {
		t.Error("SetRent should override the parameters")
	}
}

func TestAccountInfo_Clone(t *testing.T) {
	original := testInfo("original", 4)
	original.Data[0] = 0xaa
	original.IsSigner = true
	original.IsWritable = true

	clone := original.Clone()
	if clone.Pubkey != original.Pubkey || !clone.IsSigner || !clone.IsWritable {
		t.Error("clone fields mismatch")
	}

	*clone.Lamports = 9999
	clone.Data[0] = 0xbb
	if *original.Lamports != 1000 {
		t.Error("clone should not share lamports")
	}
	if original.Data[0] != 0xaa {
		t.Error("clone should not share data")
	}

	var nilInfo *AccountInfo
	if nilInfo.Clone() != nil {
		t.Error("nil clone should be nil")
	}
}

func TestRent_MinimumBalance(t *testing.T) {
	rent := DefaultRent()

	// (dataLen + 128) * 3480 * 2
	if got := rent.MinimumBalance(0); got != 890880 {
		t.Errorf("expected 890880 for empty record, got %d", got)
	}
	if got := rent.MinimumBalance(46); got != 1211040 {
		t.Errorf("expected 1211040 for a mint record, got %d", got)
	}
	if got := rent.MinimumBalance(117); got != 1705200 {
		t.Errorf("expected 1705200 for a token account record, got %d", got)
	}
}

func TestRent_IsExempt(t *testing.T) {
	rent := DefaultRent()
	minimum := rent.MinimumBalance(46)

	if !rent.IsExempt(minimum, 46) {
		t.Error("exact minimum should be exempt")
	}
	if rent.IsExempt(minimum-1, 46) {
		t.Error("below minimum should not be exempt")
	}
	if !rent.IsExempt(minimum+1, 46) {
		t.Error("above minimum should be exempt")
	}
}
