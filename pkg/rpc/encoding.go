package rpc

import (
	"encoding/base64"
	"fmt"

	"github.com/fortiblox/x1-ledger/pkg/types"
	"github.com/mr-tron/base58"
)

// Encoding types supported by the RPC server
const (
	EncodingBase58 = "base58"
	EncodingBase64 = "base64"
)

// EncodeBase58 encodes bytes to base58 string.
func EncodeBase58(data []byte) string {
	return base58.Encode(data)
}

// DecodeBase58 decodes a base58 string to bytes.
func DecodeBase58(s string) ([]byte, error) {
	return base58.Decode(s)
}

// EncodeBase64 encodes bytes to base64 string.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeBase64 decodes a base64 string to bytes.
func DecodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// EncodePubkey encodes a pubkey to base58 string.
func EncodePubkey(pk types.Pubkey) string {
	return pk.String()
}

// DecodePubkey decodes a base58 string to pubkey.
func DecodePubkey(s string) (types.Pubkey, error) {
	return types.PubkeyFromBase58(s)
}

// EncodeHash encodes a hash to base58 string.
func EncodeHash(h types.Hash) string {
	return h.String()
}

// EncodeAccountData encodes account data in the specified encoding.
// Returns a tuple of [data, encoding].
func EncodeAccountData(data []byte, encoding string) ([]interface{}, error) {
	switch encoding {
	case EncodingBase58:
		// Base58 is only valid for small amounts of data
		if len(data) > 128 {
			return nil, fmt.Errorf("data too large for base58 encoding, use base64")
		}
		return []interface{}{EncodeBase58(data), EncodingBase58}, nil

	case EncodingBase64, "":
		// Base64 is the default
		return []interface{}{EncodeBase64(data), EncodingBase64}, nil

	default:
		return nil, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}

// DecodeInstructionData decodes instruction data from the specified
// encoding.
func DecodeInstructionData(encoded string, encoding string) ([]byte, error) {
	switch encoding {
	case EncodingBase58:
		return DecodeBase58(encoded)

	case EncodingBase64, "":
		return DecodeBase64(encoded)

	default:
		return nil, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}

// ValidateEncoding validates that an encoding string is supported.
func ValidateEncoding(encoding string) error {
	switch encoding {
	case EncodingBase58, EncodingBase64, "":
		return nil
	default:
		return fmt.Errorf("unsupported encoding: %s", encoding)
	}
}

// SliceData returns a slice of data based on offset and length.
// Returns the full data if slice is nil.
func SliceData(data []byte, slice *DataSlice) []byte {
	if slice == nil {
		return data
	}

	dataLen := uint64(len(data))

	if slice.Offset >= dataLen {
		return []byte{}
	}

	// Clamp before adding so a huge Length cannot wrap end below Offset.
	end := dataLen
	if slice.Length < dataLen-slice.Offset {
		end = slice.Offset + slice.Length
	}

	return data[slice.Offset:end]
}
