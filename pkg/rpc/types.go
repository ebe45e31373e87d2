// Package rpc provides a JSON-RPC 2.0 server for X1-Ledger.
package rpc

import (
	"encoding/json"
)

// JSON-RPC 2.0 constants
const (
	JSONRPCVersion = "2.0"
)

// Standard JSON-RPC 2.0 error codes
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603

	// Ledger-specific error codes
	SendInstructionError = -32002
	KeyNotFound          = -32010
	UnsupportedEncoding  = -32011
)

// RPCRequest represents a JSON-RPC 2.0 request.
type RPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id"`
}

// RPCResponse represents a JSON-RPC 2.0 response.
type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// RPCError represents a JSON-RPC 2.0 error.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	return e.Message
}

// NewRPCError creates a new RPC error.
func NewRPCError(code int, message string) *RPCError {
	return &RPCError{
		Code:    code,
		Message: message,
	}
}

// NewRPCErrorWithData creates a new RPC error with additional data.
func NewRPCErrorWithData(code int, message string, data interface{}) *RPCError {
	return &RPCError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// AccountInfoResult represents the result of getAccountInfo.
type AccountInfoResult struct {
	Lamports uint64        `json:"lamports"`
	Data     []interface{} `json:"data"` // [data, encoding]
	Owner    string        `json:"owner"`
	Space    uint64        `json:"space"`
}

// BalanceResult represents the result of getBalance.
type BalanceResult struct {
	Value uint64 `json:"value"`
}

// MintResult represents the result of getMint.
type MintResult struct {
	MintAuthority *string `json:"mintAuthority"`
	Supply        uint64  `json:"supply"`
	Decimals      uint8   `json:"decimals"`
	IsInitialized bool    `json:"isInitialized"`
}

// TokenAccountResult represents the result of getTokenAccount.
type TokenAccountResult struct {
	Mint            string  `json:"mint"`
	Owner           string  `json:"owner"`
	Amount          uint64  `json:"amount"`
	Delegate        *string `json:"delegate"`
	DelegatedAmount uint64  `json:"delegatedAmount"`
	IsInitialized   bool    `json:"isInitialized"`
}

// StateRootResult represents the result of getStateRoot.
type StateRootResult struct {
	Root          string `json:"root"`
	AccountsCount uint64 `json:"accountsCount"`
}

// HealthResult represents the result of getHealth.
type HealthResult string

// VersionResult represents the result of getVersion.
type VersionResult struct {
	Version string `json:"version"`
}

// SendInstructionParams represents parameters for sendInstruction.
type SendInstructionParams struct {
	ProgramID string                 `json:"programId"`
	Accounts  []InstructionAccount   `json:"accounts"`
	Data      string                 `json:"data"`
	Options   *SendInstructionOption `json:"options,omitempty"`
}

// InstructionAccount is one account meta in a sendInstruction request.
type InstructionAccount struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

// SendInstructionOption represents optional sendInstruction parameters.
type SendInstructionOption struct {
	Encoding string `json:"encoding,omitempty"` // data encoding, base64 default
}

// SendInstructionResult represents the result of sendInstruction.
type SendInstructionResult struct {
	Success bool     `json:"success"`
	Logs    []string `json:"logs"`
	Error   string   `json:"error,omitempty"`
}

// AccountInfoOptions represents optional parameters for getAccountInfo.
type AccountInfoOptions struct {
	Encoding  string     `json:"encoding,omitempty"` // base58, base64
	DataSlice *DataSlice `json:"dataSlice,omitempty"`
}

// DataSlice represents a slice of account data.
type DataSlice struct {
	Offset uint64 `json:"offset"`
	Length uint64 `json:"length"`
}
