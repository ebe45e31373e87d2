package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/fortiblox/x1-ledger/pkg/accounts"
	"github.com/fortiblox/x1-ledger/pkg/ledger"
	"github.com/fortiblox/x1-ledger/pkg/token"
	"github.com/fortiblox/x1-ledger/pkg/types"
)

// Version reported by getVersion.
const Version = "0.1.0"

// Handler is the function signature for RPC method handlers.
type Handler func(params json.RawMessage) (interface{}, *RPCError)

// Handlers manages RPC method handlers.
type Handlers struct {
	db       accounts.AccountsDB
	executor *ledger.Executor
	handlers map[string]Handler
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db accounts.AccountsDB, executor *ledger.Executor) *Handlers {
	h := &Handlers{
		db:       db,
		executor: executor,
		handlers: make(map[string]Handler),
	}

	h.registerHandlers()

	return h
}

// GetHandler returns the handler for a method, or nil if not found.
func (h *Handlers) GetHandler(method string) Handler {
	return h.handlers[method]
}

// registerHandlers registers all RPC method handlers.
func (h *Handlers) registerHandlers() {
	h.handlers["getAccountInfo"] = h.handleGetAccountInfo
	h.handlers["getBalance"] = h.handleGetBalance
	h.handlers["getMint"] = h.handleGetMint
	h.handlers["getTokenAccount"] = h.handleGetTokenAccount
	h.handlers["getStateRoot"] = h.handleGetStateRoot
	h.handlers["getHealth"] = h.handleGetHealth
	h.handlers["getVersion"] = h.handleGetVersion
	h.handlers["sendInstruction"] = h.handleSendInstruction
}

// parsePubkeyParam extracts the leading base58 pubkey from a params
// array and returns the remaining raw params.
func parsePubkeyParam(params json.RawMessage) (types.Pubkey, []json.RawMessage, *RPCError) {
	var rawParams []json.RawMessage
	if err := json.Unmarshal(params, &rawParams); err != nil {
		return types.Pubkey{}, nil, NewRPCError(InvalidParams, "invalid params: expected array")
	}

	if len(rawParams) < 1 {
		return types.Pubkey{}, nil, NewRPCError(InvalidParams, "missing pubkey parameter")
	}

	var pubkeyStr string
	if err := json.Unmarshal(rawParams[0], &pubkeyStr); err != nil {
		return types.Pubkey{}, nil, NewRPCError(InvalidParams, "invalid pubkey parameter")
	}

	pubkey, err := DecodePubkey(pubkeyStr)
	if err != nil {
		return types.Pubkey{}, nil, NewRPCError(InvalidParams, fmt.Sprintf("invalid pubkey: %v", err))
	}

	return pubkey, rawParams[1:], nil
}

// handleGetAccountInfo handles the getAccountInfo RPC method.
// Params: [pubkey, {encoding, dataSlice}]
func (h *Handlers) handleGetAccountInfo(params json.RawMessage) (interface{}, *RPCError) {
	pubkey, rest, rpcErr := parsePubkeyParam(params)
	if rpcErr != nil {
		return nil, rpcErr
	}

	encoding := EncodingBase64
	var dataSlice *DataSlice

	if len(rest) > 0 {
		var options AccountInfoOptions
		if err := json.Unmarshal(rest[0], &options); err == nil {
			if options.Encoding != "" {
				if err := ValidateEncoding(options.Encoding); err != nil {
					return nil, NewRPCError(UnsupportedEncoding, err.Error())
				}
				encoding = options.Encoding
			}
			dataSlice = options.DataSlice
		}
	}

	account, err := h.db.GetAccount(pubkey)
	if err != nil {
		return nil, NewRPCError(InternalError, fmt.Sprintf("failed to get account: %v", err))
	}

	// Missing account returns a null value
	if account == nil {
		return nil, nil
	}

	data := account.Data
	if dataSlice != nil {
		data = SliceData(data, dataSlice)
	}

	encodedData, err := EncodeAccountData(data, encoding)
	if err != nil {
		return nil, NewRPCError(InternalError, fmt.Sprintf("failed to encode data: %v", err))
	}

	return AccountInfoResult{
		Lamports: uint64(account.Lamports),
		Data:     encodedData,
		Owner:    EncodePubkey(account.Owner),
		Space:    uint64(len(account.Data)),
	}, nil
}

// handleGetBalance handles the getBalance RPC method.
// Params: [pubkey]
func (h *Handlers) handleGetBalance(params json.RawMessage) (interface{}, *RPCError) {
	pubkey, _, rpcErr := parsePubkeyParam(params)
	if rpcErr != nil {
		return nil, rpcErr
	}

	account, err := h.db.GetAccount(pubkey)
	if err != nil {
		return nil, NewRPCError(InternalError, fmt.Sprintf("failed to get account: %v", err))
	}

	// Missing account reports a zero balance
	var balance uint64
	if account != nil {
		balance = uint64(account.Lamports)
	}

	return BalanceResult{Value: balance}, nil
}

// handleGetMint handles the getMint RPC method.
// Params: [pubkey]
func (h *Handlers) handleGetMint(params json.RawMessage) (interface{}, *RPCError) {
	pubkey, _, rpcErr := parsePubkeyParam(params)
	if rpcErr != nil {
		return nil, rpcErr
	}

	account, err := h.db.GetAccount(pubkey)
	if err != nil {
		return nil, NewRPCError(InternalError, fmt.Sprintf("failed to get account: %v", err))
	}
	if account == nil {
		return nil, NewRPCError(KeyNotFound, fmt.Sprintf("mint not found: %s", pubkey))
	}

	mint, err := token.DeserializeMint(account.Data)
	if err != nil {
		return nil, NewRPCError(InvalidParams, fmt.Sprintf("not a mint account: %v", err))
	}

	result := MintResult{
		Supply:        mint.Supply,
		Decimals:      mint.Decimals,
		IsInitialized: mint.IsInitialized,
	}
	if mint.MintAuthority.IsSome {
		authority := EncodePubkey(mint.MintAuthority.Value)
		result.MintAuthority = &authority
	}

	return result, nil
}

// handleGetTokenAccount handles the getTokenAccount RPC method.
// Params: [pubkey]
func (h *Handlers) handleGetTokenAccount(params json.RawMessage) (interface{}, *RPCError) {
	pubkey, _, rpcErr := parsePubkeyParam(params)
	if rpcErr != nil {
		return nil, rpcErr
	}

	account, err := h.db.GetAccount(pubkey)
	if err != nil {
		return nil, NewRPCError(InternalError, fmt.Sprintf("failed to get account: %v", err))
	}
	if account == nil {
		return nil, NewRPCError(KeyNotFound, fmt.Sprintf("token account not found: %s", pubkey))
	}

	tokenAccount, err := token.DeserializeAccount(account.Data)
	if err != nil {
		return nil, NewRPCError(InvalidParams, fmt.Sprintf("not a token account: %v", err))
	}

	result := TokenAccountResult{
		Mint:            EncodePubkey(tokenAccount.Mint),
		Owner:           EncodePubkey(tokenAccount.Owner),
		Amount:          tokenAccount.Amount,
		DelegatedAmount: tokenAccount.DelegatedAmount,
		IsInitialized:   tokenAccount.State == token.AccountStateInitialized,
	}
	if tokenAccount.Delegate.IsSome {
		delegate := EncodePubkey(tokenAccount.Delegate.Value)
		result.Delegate = &delegate
	}

	return result, nil
}

// handleGetStateRoot handles the getStateRoot RPC method.
// Params: none
func (h *Handlers) handleGetStateRoot(params json.RawMessage) (interface{}, *RPCError) {
	root, err := h.executor.StateRoot()
	if err != nil {
		return nil, NewRPCError(InternalError, fmt.Sprintf("failed to compute state root: %v", err))
	}

	return StateRootResult{
		Root:          EncodeHash(root),
		AccountsCount: h.db.GetAccountsCount(),
	}, nil
}

// handleGetHealth handles the getHealth RPC method.
// Params: none
func (h *Handlers) handleGetHealth(params json.RawMessage) (interface{}, *RPCError) {
	return HealthResult("ok"), nil
}

// handleGetVersion handles the getVersion RPC method.
// Params: none
func (h *Handlers) handleGetVersion(params json.RawMessage) (interface{}, *RPCError) {
	return VersionResult{Version: Version}, nil
}

// handleSendInstruction handles the sendInstruction RPC method.
// Params: [{programId, accounts, data, options}]
func (h *Handlers) handleSendInstruction(params json.RawMessage) (interface{}, *RPCError) {
	var rawParams []json.RawMessage
	if err := json.Unmarshal(params, &rawParams); err != nil {
		return nil, NewRPCError(InvalidParams, "invalid params: expected array")
	}

	if len(rawParams) < 1 {
		return nil, NewRPCError(InvalidParams, "missing instruction parameter")
	}

	var sendParams SendInstructionParams
	if err := json.Unmarshal(rawParams[0], &sendParams); err != nil {
		return nil, NewRPCError(InvalidParams, fmt.Sprintf("invalid instruction: %v", err))
	}

	programID, err := DecodePubkey(sendParams.ProgramID)
	if err != nil {
		return nil, NewRPCError(InvalidParams, fmt.Sprintf("invalid programId: %v", err))
	}

	metas := make([]types.AccountMeta, len(sendParams.Accounts))
	for i, acc := range sendParams.Accounts {
		pubkey, err := DecodePubkey(acc.Pubkey)
		if err != nil {
			return nil, NewRPCError(InvalidParams, fmt.Sprintf("invalid account %d: %v", i, err))
		}
		metas[i] = types.AccountMeta{
			Pubkey:     pubkey,
			IsSigner:   acc.IsSigner,
			IsWritable: acc.IsWritable,
		}
	}

	encoding := EncodingBase64
	if sendParams.Options != nil && sendParams.Options.Encoding != "" {
		encoding = sendParams.Options.Encoding
	}

	data, err := DecodeInstructionData(sendParams.Data, encoding)
	if err != nil {
		return nil, NewRPCError(InvalidParams, fmt.Sprintf("invalid data: %v", err))
	}

	result, err := h.executor.Execute(&types.Instruction{
		ProgramID: programID,
		Accounts:  metas,
		Data:      data,
	})
	if err != nil {
		return nil, NewRPCError(SendInstructionError, err.Error())
	}

	response := SendInstructionResult{
		Success: result.Success,
		Logs:    result.Logs,
	}
	if result.Err != nil {
		response.Error = result.Err.Error()
	}

	return response, nil
}
