package gateway

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

//go:embed responses.yaml
var defaultResponsesYAML []byte

// Gas contains the canned gas estimates.
type Gas struct {
	Confidential string `yaml:"confidential"`
	Plain        string `yaml:"plain"`
	DeployHeader string `yaml:"deploy_header"`
}

// TxHashes contains the canned transaction hashes.
type TxHashes struct {
	Call                     string `yaml:"call"`
	ConfidentialDeploy       string `yaml:"confidential_deploy"`
	DeployHeader             string `yaml:"deploy_header"`
	MalformedSignatureDeploy string `yaml:"malformed_signature_deploy"`
}

// Responses is the table of canned responses served by the mock gateway.
type Responses struct {
	// MalformedSignatureFrom is the sender whose deployments get a malformed signature receipt.
	MalformedSignatureFrom common.Address `yaml:"-"`
	RawMalformedFrom       string         `yaml:"malformed_signature_from"`

	// CallEncResult is the plain result returned (encrypted) for every confidential call.
	CallEncResult string `yaml:"call_enc_result"`
	// Code is returned for every eth_getCode request.
	Code string `yaml:"code"`

	Gas      Gas                               `yaml:"gas"`
	TxHashes TxHashes                          `yaml:"tx_hashes"`
	Receipts map[string]map[string]interface{} `yaml:"receipts"`
	Logs     []map[string]interface{}          `yaml:"logs"`
}

// ParseResponses parses a canned response table from YAML.
func ParseResponses(raw []byte) (*Responses, error) {
	var rsp Responses
	if err := yaml.Unmarshal(raw, &rsp); err != nil {
		return nil, fmt.Errorf("gateway: malformed responses: %w", err)
	}
	if !common.IsHexAddress(rsp.RawMalformedFrom) {
		return nil, fmt.Errorf("gateway: malformed malformed_signature_from address '%s'", rsp.RawMalformedFrom)
	}
	rsp.MalformedSignatureFrom = common.HexToAddress(rsp.RawMalformedFrom)

	// Lookups are by lowercase hash.
	receipts := make(map[string]map[string]interface{}, len(rsp.Receipts))
	for hash, receipt := range rsp.Receipts {
		receipts[strings.ToLower(hash)] = receipt
	}
	rsp.Receipts = receipts

	return &rsp, nil
}

// DefaultResponses returns the built-in canned response table.
func DefaultResponses() *Responses {
	rsp, err := ParseResponses(defaultResponsesYAML)
	if err != nil {
		panic(err)
	}
	return rsp
}

// Receipt returns the canned receipt for the given transaction hash.
func (r *Responses) Receipt(hash string) (map[string]interface{}, bool) {
	receipt, ok := r.Receipts[strings.ToLower(hash)]
	return receipt, ok
}

// LogsFor returns the canned logs emitted by the given address.
func (r *Responses) LogsFor(address common.Address) []map[string]interface{} {
	logs := make([]map[string]interface{}, 0)
	for _, l := range r.Logs {
		if a, ok := l["address"].(string); ok && common.HexToAddress(a) == address {
			logs = append(logs, l)
		}
	}
	return logs
}
