package accounts

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fortiblox/x1-ledger/pkg/types"
	"github.com/klauspost/compress/zstd"
)

// Snapshot archive format (zstd-compressed stream):
// - magic:          4 bytes ("XLSN")
// - version:        4 bytes (little-endian uint32)
// - accounts_count: 8 bytes (little-endian uint64)
// - state_hash:     32 bytes
// Then for each account:
// - pubkey:       32 bytes
// - envelope_len: 4 bytes (little-endian uint32)
// - envelope:     envelope_len bytes (see SerializeAccount)

const (
	snapshotMagic   = "XLSN"
	snapshotVersion = 1

	// maxSnapshotEnvelopeSize bounds a single account envelope to guard
	// against corrupt length prefixes.
	maxSnapshotEnvelopeSize = 16 << 20
)

var (
	// ErrInvalidSnapshot is returned when a snapshot archive is malformed.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	// ErrSnapshotHashMismatch is returned when the restored state does not
	// match the hash recorded in the snapshot.
	ErrSnapshotHashMismatch = errors.New("snapshot hash mismatch")
)

// SnapshotManifest describes the contents of a snapshot archive.
type SnapshotManifest struct {
	Version       uint32
	AccountsCount uint64
	StateHash     types.Hash
}

// WriteSnapshot writes every account in the database to w as a
// zstd-compressed snapshot archive.
func WriteSnapshot(db AccountsDB, w io.Writer) (*SnapshotManifest, error) {
	refs, err := db.AllAccounts()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate accounts: %w", err)
	}

	manifest := &SnapshotManifest{
		Version:       snapshotVersion,
		AccountsCount: uint64(len(refs)),
		StateHash:     ComputeStateHash(refs),
	}

	encoder, err := zstd.NewWriter(w)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	if err := writeSnapshotHeader(encoder, manifest); err != nil {
		encoder.Close()
		return nil, err
	}

	var lenBuf [4]byte
	for _, ref := range refs {
		envelope, err := SerializeAccount(ref.Account)
		if err != nil {
			encoder.Close()
			return nil, fmt.Errorf("failed to serialize account %s: %w", ref.Pubkey, err)
		}

		if _, err := encoder.Write(ref.Pubkey[:]); err != nil {
			encoder.Close()
			return nil, fmt.Errorf("failed to write snapshot entry: %w", err)
		}
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(envelope)))
		if _, err := encoder.Write(lenBuf[:]); err != nil {
			encoder.Close()
			return nil, fmt.Errorf("failed to write snapshot entry: %w", err)
		}
		if _, err := encoder.Write(envelope); err != nil {
			encoder.Close()
			return nil, fmt.Errorf("failed to write snapshot entry: %w", err)
		}
	}

	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize snapshot: %w", err)
	}

	return manifest, nil
}

// WriteSnapshotFile writes a snapshot archive to the given path.
func WriteSnapshotFile(db AccountsDB, path string) (*SnapshotManifest, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer file.Close()

	manifest, err := WriteSnapshot(db, file)
	if err != nil {
		return nil, err
	}

	if err := file.Sync(); err != nil {
		return nil, fmt.Errorf("failed to sync snapshot file: %w", err)
	}
	return manifest, nil
}

// ReadSnapshot restores accounts from a zstd-compressed snapshot archive
// into the database. The restored state is verified against the hash
// recorded in the manifest.
func ReadSnapshot(db AccountsDB, r io.Reader) (*SnapshotManifest, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer decoder.Close()

	manifest, err := readSnapshotHeader(decoder)
	if err != nil {
		return nil, err
	}

	refs := make([]types.AccountRef, 0, manifest.AccountsCount)

	var pubkeyBuf [32]byte
	var lenBuf [4]byte
	for i := uint64(0); i < manifest.AccountsCount; i++ {
		if _, err := io.ReadFull(decoder, pubkeyBuf[:]); err != nil {
			return nil, fmt.Errorf("%w: truncated entry %d: %v", ErrInvalidSnapshot, i, err)
		}
		if _, err := io.ReadFull(decoder, lenBuf[:]); err != nil {
			return nil, fmt.Errorf("%w: truncated entry %d: %v", ErrInvalidSnapshot, i, err)
		}

		envelopeLen := binary.LittleEndian.Uint32(lenBuf[:])
		if envelopeLen > maxSnapshotEnvelopeSize {
			return nil, fmt.Errorf("%w: entry %d envelope too large: %d", ErrInvalidSnapshot, i, envelopeLen)
		}

		envelope := make([]byte, envelopeLen)
		if _, err := io.ReadFull(decoder, envelope); err != nil {
			return nil, fmt.Errorf("%w: truncated entry %d: %v", ErrInvalidSnapshot, i, err)
		}

		account, err := DeserializeAccount(envelope)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidSnapshot, i, err)
		}

		pubkey, err := types.PubkeyFromBytes(pubkeyBuf[:])
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidSnapshot, i, err)
		}

		refs = append(refs, types.AccountRef{Pubkey: pubkey, Account: account})
	}

	restoredHash := ComputeStateHash(refs)
	if restoredHash != manifest.StateHash {
		return nil, fmt.Errorf("%w: expected %s, got %s",
			ErrSnapshotHashMismatch, manifest.StateHash, restoredHash)
	}

	for _, ref := range refs {
		if err := db.SetAccount(ref.Pubkey, ref.Account); err != nil {
			return nil, fmt.Errorf("failed to restore account %s: %w", ref.Pubkey, err)
		}
	}

	return manifest, nil
}

// ReadSnapshotFile restores accounts from a snapshot archive at the given
// path.
func ReadSnapshotFile(db AccountsDB, path string) (*SnapshotManifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer file.Close()

	return ReadSnapshot(db, file)
}

func writeSnapshotHeader(w io.Writer, manifest *SnapshotManifest) error {
	buf := make([]byte, 4+4+8+32)
	offset := 0

	copy(buf[offset:], snapshotMagic)
	offset += 4

	binary.LittleEndian.PutUint32(buf[offset:], manifest.Version)
	offset += 4

	binary.LittleEndian.PutUint64(buf[offset:], manifest.AccountsCount)
	offset += 8

	copy(buf[offset:], manifest.StateHash[:])

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write snapshot header: %w", err)
	}
	return nil
}

func readSnapshotHeader(r io.Reader) (*SnapshotManifest, error) {
	buf := make([]byte, 4+4+8+32)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: truncated header: %v", ErrInvalidSnapshot, err)
	}

	offset := 0
	if string(buf[offset:offset+4]) != snapshotMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidSnapshot)
	}
	offset += 4

	manifest := &SnapshotManifest{}
	manifest.Version = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4

	if manifest.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, manifest.Version)
	}

	manifest.AccountsCount = binary.LittleEndian.Uint64(buf[offset:])
	offset += 8

	copy(manifest.StateHash[:], buf[offset:offset+32])

	return manifest, nil
}
