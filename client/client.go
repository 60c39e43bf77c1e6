// Package client is a JSON-RPC client for confidential gateways.
package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/oasisprotocol/oasis-core/go/common/logging"

	"github.com/oasisprotocol/web3c-go/jsonrpc"
	"github.com/oasisprotocol/web3c-go/provider"
	"github.com/oasisprotocol/web3c-go/types"
)

// BlockLatest is the block tag used for state queries.
const BlockLatest = "latest"

// Client talks to a confidential gateway, encrypting calls on the way out and decrypting
// results on the way back.
type Client struct {
	rpc      *rpc.Client
	provider *provider.Provider

	logger *logging.Logger
}

// Dial connects to the gateway at rawurl.
func Dial(ctx context.Context, rawurl string, store provider.KeyStore, opts ...provider.Option) (*Client, error) {
	c, err := rpc.DialOptions(ctx, rawurl, rpc.WithHTTPClient(HTTPClient(nil)))
	if err != nil {
		return nil, fmt.Errorf("client: failed to dial gateway: %w", err)
	}
	return New(c, store, opts...), nil
}

// New creates a client over an existing RPC connection.
//
// The client resolves contract public keys through the gateway unless the options
// configure a different resolver.
func New(c *rpc.Client, store provider.KeyStore, opts ...provider.Option) *Client {
	cl := &Client{
		rpc:    c,
		logger: logging.GetLogger("web3c/client"),
	}
	opts = append([]provider.Option{provider.WithResolver(cl)}, opts...)
	cl.provider = provider.New(store, opts...)
	return cl
}

// Provider returns the confidential provider used by the client.
func (c *Client) Provider() *provider.Provider {
	return c.provider
}

// Close closes the underlying connection.
func (c *Client) Close() {
	c.rpc.Close()
}

// ResolvePublicKey implements provider.KeyResolver.
//
// An empty response body from the gateway is reported as no response. Transport failures
// remain errors.
func (c *Client) ResolvePublicKey(ctx context.Context, contract common.Address) (*types.PeerKey, error) {
	var rsp *jsonrpc.PublicKeyResult
	err := c.rpc.CallContext(ctx, &rsp, jsonrpc.MethodGetPublicKey.String(), contract)
	switch {
	case errors.Is(err, errEmptyResponse):
		return nil, nil
	case err != nil:
		return nil, err
	case rsp == nil:
		return nil, nil
	}
	return rsp.PeerKey(), nil
}

// GetPublicKey returns the public key of a contract, consulting the keystore first.
//
// A nil key and nil error means that the gateway gave no response.
func (c *Client) GetPublicKey(ctx context.Context, contract common.Address) (*types.PeerKey, error) {
	return c.provider.GetPublicKey(ctx, contract)
}

// CallEnc performs a confidential call and returns the decrypted result.
func (c *Client) CallEnc(ctx context.Context, call *jsonrpc.CallObject) ([]byte, error) {
	if call.IsDeployment() {
		return nil, fmt.Errorf("client: confidential call requires a contract address")
	}

	enc, cc, err := c.provider.TransformRequest(ctx, call)
	if err != nil {
		return nil, err
	}
	var result string
	if err = c.rpc.CallContext(ctx, &result, jsonrpc.MethodCallEnc.String(), enc, BlockLatest); err != nil {
		return nil, err
	}
	return c.provider.TransformResponse(cc, result)
}

// SendTransaction submits a transaction, encrypting its data when it targets a contract.
//
// Contract-creation data is submitted as is and must already be confidential or carry a
// deployment header.
func (c *Client) SendTransaction(ctx context.Context, tx *jsonrpc.CallObject) (common.Hash, error) {
	enc, _, err := c.provider.TransformRequest(ctx, tx)
	if err != nil {
		return common.Hash{}, err
	}
	if enc.IsDeployment() {
		c.logger.Debug("submitting deployment",
			"kind", c.provider.ClassifyDeployment(enc.Data),
		)
	}

	var result string
	if err = c.rpc.CallContext(ctx, &result, jsonrpc.MethodSendTransaction.String(), enc); err != nil {
		return common.Hash{}, err
	}
	raw, err := hexutil.Decode(result)
	if err != nil || len(raw) != common.HashLength {
		return common.Hash{}, fmt.Errorf("client: transaction rejected: %s", result)
	}
	return common.BytesToHash(raw), nil
}

// EstimateGas estimates the gas needed by the call.
func (c *Client) EstimateGas(ctx context.Context, call *jsonrpc.CallObject) (uint64, error) {
	var gas hexutil.Uint64
	if err := c.rpc.CallContext(ctx, &gas, jsonrpc.MethodEstimateGas.String(), call); err != nil {
		return 0, err
	}
	return uint64(gas), nil
}

// GetTransactionReceipt returns the receipt of a transaction or nil if it is unknown.
func (c *Client) GetTransactionReceipt(ctx context.Context, hash common.Hash) (map[string]interface{}, error) {
	var receipt map[string]interface{}
	if err := c.rpc.CallContext(ctx, &receipt, jsonrpc.MethodGetTransactionReceipt.String(), hash); err != nil {
		return nil, err
	}
	return receipt, nil
}

// GetCode returns the code deployed at the given address.
func (c *Client) GetCode(ctx context.Context, address common.Address) ([]byte, error) {
	var code hexutil.Bytes
	if err := c.rpc.CallContext(ctx, &code, jsonrpc.MethodGetCode.String(), address, BlockLatest); err != nil {
		return nil, err
	}
	return code, nil
}

// GetLogs returns the logs emitted by the given address.
func (c *Client) GetLogs(ctx context.Context, address common.Address) ([]map[string]interface{}, error) {
	filter := map[string]interface{}{
		"address": address,
	}
	var logs []map[string]interface{}
	if err := c.rpc.CallContext(ctx, &logs, jsonrpc.MethodGetLogs.String(), filter); err != nil {
		return nil, err
	}
	return logs, nil
}
