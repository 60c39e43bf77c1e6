package jsonrpc

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/oasisprotocol/web3c-go/types"
)

// Version is the JSON-RPC protocol version.
const Version = "2.0"

// Standard JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Request is a JSON-RPC request.
type Request struct {
	Version string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// PositionalParams splits the request params into their positional elements.
func (r *Request) PositionalParams() ([]json.RawMessage, error) {
	if len(r.Params) == 0 {
		return nil, nil
	}
	var params []json.RawMessage
	if err := json.Unmarshal(r.Params, &params); err != nil {
		return nil, fmt.Errorf("jsonrpc: params must be an array: %w", err)
	}
	return params, nil
}

// Response is a JSON-RPC response.
type Response struct {
	Version string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// NewResult creates a successful response to the given request.
func NewResult(req *Request, result interface{}) *Response {
	return &Response{
		Version: Version,
		ID:      req.ID,
		Result:  result,
	}
}

// NewError creates an error response to the given request.
func NewError(req *Request, code int, format string, args ...interface{}) *Response {
	rsp := &Response{
		Version: Version,
		Error: &Error{
			Code:    code,
			Message: fmt.Sprintf(format, args...),
		},
	}
	if req != nil {
		rsp.ID = req.ID
	}
	return rsp
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error is a trivial implementation of error.
func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc: error %d: %s", e.Code, e.Message)
}

// CallObject is the transaction/call object of eth_sendTransaction, eth_estimateGas and
// confidential_call_enc.
type CallObject struct {
	From     *common.Address `json:"from,omitempty"`
	To       *common.Address `json:"to,omitempty"`
	Gas      *hexutil.Uint64 `json:"gas,omitempty"`
	GasPrice *hexutil.Big    `json:"gasPrice,omitempty"`
	Value    *hexutil.Big    `json:"value,omitempty"`
	// Data is kept textual since deployment headers are not hex.
	Data string `json:"data,omitempty"`
}

// IsDeployment returns true iff the call creates a contract.
func (c *CallObject) IsDeployment() bool {
	return c.To == nil
}

// PublicKeyResult is the result of confidential_getPublicKey.
type PublicKeyResult struct {
	PublicKey types.PublicKey `json:"public_key"`
	Timestamp hexutil.Uint64  `json:"timestamp"`
	Signature hexutil.Bytes   `json:"signature"`
}

// PeerKey converts the result into a peer key entry.
func (r *PublicKeyResult) PeerKey() *types.PeerKey {
	return &types.PeerKey{
		PublicKey: r.PublicKey,
		Timestamp: uint64(r.Timestamp),
		Signature: r.Signature,
	}
}

// NewPublicKeyResult converts a peer key entry into a confidential_getPublicKey result.
func NewPublicKeyResult(pk *types.PeerKey) *PublicKeyResult {
	return &PublicKeyResult{
		PublicKey: pk.PublicKey,
		Timestamp: hexutil.Uint64(pk.Timestamp),
		Signature: pk.Signature,
	}
}
