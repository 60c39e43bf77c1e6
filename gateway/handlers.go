package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/oasisprotocol/web3c-go/callformat"
	"github.com/oasisprotocol/web3c-go/jsonrpc"
	"github.com/oasisprotocol/web3c-go/provider"
)

func invalidParams(format string, args ...interface{}) error {
	return &jsonrpc.Error{
		Code:    jsonrpc.CodeInvalidParams,
		Message: fmt.Sprintf(format, args...),
	}
}

func decodeParam(params []json.RawMessage, idx int, v interface{}) error {
	if idx >= len(params) {
		return invalidParams("missing parameter %d", idx)
	}
	if err := json.Unmarshal(params[idx], v); err != nil {
		return invalidParams("malformed parameter %d: %v", idx, err)
	}
	return nil
}

func (s *Server) getPublicKey(ctx context.Context, params []json.RawMessage) (interface{}, error) {
	var contract common.Address
	if err := decodeParam(params, 0, &contract); err != nil {
		return nil, err
	}

	if contract == provider.UnknownContract {
		return nil, errNoResponse
	}

	// Answers are signed afresh and never recorded in the keystore.
	pk, err := s.attestor.ResolvePublicKey(ctx, contract)
	if err != nil {
		return nil, err
	}
	return jsonrpc.NewPublicKeyResult(pk), nil
}

func (s *Server) callEnc(_ context.Context, params []json.RawMessage) (interface{}, error) {
	var call jsonrpc.CallObject
	if err := decodeParam(params, 0, &call); err != nil {
		return nil, err
	}

	opened, err := s.provider.OpenCall(call.Data)
	if err != nil {
		return nil, invalidParams("undecryptable call: %v", err)
	}

	result, err := hexutil.Decode(s.responses.CallEncResult)
	if err != nil {
		return nil, fmt.Errorf("gateway: malformed canned call result: %w", err)
	}
	enc, err := s.provider.EncryptCall(&opened.Sender, result)
	if err != nil {
		return nil, err
	}
	return hexutil.Encode(enc), nil
}

func (s *Server) sendTransaction(_ context.Context, params []json.RawMessage) (interface{}, error) {
	var tx jsonrpc.CallObject
	if err := decodeParam(params, 0, &tx); err != nil {
		return nil, err
	}

	if !tx.IsDeployment() {
		if _, err := s.provider.DecryptCall(tx.Data); err != nil {
			s.logger.Debug("rejected transaction",
				"to", tx.To.Hex(),
				"err", err,
			)
			return "error: " + err.Error(), nil
		}
		return s.responses.TxHashes.Call, nil
	}

	if tx.From != nil && *tx.From == s.responses.MalformedSignatureFrom {
		return s.responses.TxHashes.MalformedSignatureDeploy, nil
	}

	switch kind := s.provider.ClassifyDeployment(tx.Data); kind {
	case callformat.DeploymentHeader:
		if _, _, err := callformat.ValidateDeployHeader(tx.Data); err != nil {
			return "error: " + err.Error(), nil
		}
		return s.responses.TxHashes.DeployHeader, nil
	case callformat.DeploymentConfidential:
		return s.responses.TxHashes.ConfidentialDeploy, nil
	default:
		s.logger.Debug("rejected deployment",
			"kind", kind,
		)
		return "error", nil
	}
}

func (s *Server) estimateGas(_ context.Context, params []json.RawMessage) (interface{}, error) {
	var call jsonrpc.CallObject
	if err := decodeParam(params, 0, &call); err != nil {
		return nil, err
	}

	switch callformat.ClassifyDeployment(call.Data) {
	case callformat.DeploymentHeader:
		if !call.IsDeployment() {
			break
		}
		if _, _, err := callformat.ValidateDeployHeader(call.Data); err != nil {
			return nil, invalidParams("%v", err)
		}
		return s.responses.Gas.DeployHeader, nil
	case callformat.DeploymentConfidential:
		return s.responses.Gas.Confidential, nil
	}
	return s.responses.Gas.Plain, nil
}

func (s *Server) getTransactionReceipt(_ context.Context, params []json.RawMessage) (interface{}, error) {
	var hash string
	if err := decodeParam(params, 0, &hash); err != nil {
		return nil, err
	}

	receipt, ok := s.responses.Receipt(hash)
	if !ok {
		return nil, nil
	}
	return receipt, nil
}

func (s *Server) getCode(_ context.Context, _ []json.RawMessage) (interface{}, error) {
	return s.responses.Code, nil
}

type logFilter struct {
	Address *common.Address `json:"address,omitempty"`
}

func (s *Server) getLogs(_ context.Context, params []json.RawMessage) (interface{}, error) {
	var filter logFilter
	if err := decodeParam(params, 0, &filter); err != nil {
		return nil, err
	}

	if filter.Address == nil {
		return s.responses.Logs, nil
	}
	return s.responses.LogsFor(*filter.Address), nil
}
