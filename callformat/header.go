package callformat

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/oasisprotocol/web3c-go/types"
)

// DeployHeaderTag is the literal tag a deployment header starts with.
//
// Deployment data fields are textual and the tag must directly follow a lowercase 0x prefix.
const DeployHeaderTag = "00736973002d00001"

const deployHeaderPrefix = "0x" + DeployHeaderTag

// DeployHeader is the metadata carried by a deployment header.
type DeployHeader struct {
	// Expiry is the requested contract expiry.
	Expiry int64 `json:"expiry"`
	// Confidential is the requested confidentiality of the contract.
	Confidential bool `json:"confidential"`
}

// ValidateDeployHeader validates a deployment header at the start of the given data field.
//
// It returns the parsed metadata and whatever follows the metadata object (usually code).
// Only structural presence of the fields is checked. Field names are case sensitive and
// unknown fields are ignored.
func ValidateDeployHeader(data string) (*DeployHeader, string, error) {
	if !strings.HasPrefix(data, deployHeaderPrefix) {
		return nil, "", fmt.Errorf("%w: bad tag", types.ErrInvalidHeader)
	}
	body := data[len(deployHeaderPrefix):]

	var fields map[string]json.RawMessage
	dec := json.NewDecoder(strings.NewReader(body))
	if err := dec.Decode(&fields); err != nil {
		return nil, "", fmt.Errorf("%w: malformed metadata: %s", types.ErrInvalidHeader, err)
	}
	if fields == nil {
		return nil, "", fmt.Errorf("%w: metadata is not an object", types.ErrInvalidHeader)
	}

	var hdr DeployHeader
	for _, f := range []struct {
		name  string
		value interface{}
	}{
		{"expiry", &hdr.Expiry},
		{"confidential", &hdr.Confidential},
	} {
		raw, ok := fields[f.name]
		if !ok || string(raw) == "null" {
			return nil, "", fmt.Errorf("%w: missing %s", types.ErrInvalidHeader, f.name)
		}
		if err := json.Unmarshal(raw, f.value); err != nil {
			return nil, "", fmt.Errorf("%w: malformed %s: %s", types.ErrInvalidHeader, f.name, err)
		}
	}
	return &hdr, body[dec.InputOffset():], nil
}

// EncodeDeployHeader prepends a deployment header to the given (hex) code.
func EncodeDeployHeader(hdr *DeployHeader, code string) string {
	meta, _ := json.Marshal(hdr)
	return "0x" + DeployHeaderTag + string(meta) + strings.TrimPrefix(code, "0x")
}

// DeploymentKind is the kind of a contract-creation payload.
type DeploymentKind uint8

const (
	// DeploymentInvalid is a creation payload that is neither confidential nor headed.
	DeploymentInvalid DeploymentKind = iota
	// DeploymentConfidential is a creation payload carrying a confidential envelope.
	DeploymentConfidential
	// DeploymentHeader is a creation payload carrying a deployment header.
	DeploymentHeader
)

// String returns a string representation of the deployment kind.
func (k DeploymentKind) String() string {
	switch k {
	case DeploymentConfidential:
		return "confidential"
	case DeploymentHeader:
		return "header"
	default:
		return "invalid"
	}
}

var prefixHex = hex.EncodeToString(Prefix)

// ClassifyDeployment classifies a textual contract-creation data field.
//
// The 0x prefix is optional for confidential payloads but required for deployment headers.
func ClassifyDeployment(data string) DeploymentKind {
	if strings.HasPrefix(data, deployHeaderPrefix) {
		return DeploymentHeader
	}

	data = strings.TrimPrefix(data, "0x")
	switch {
	case len(data) >= len(prefixHex) && strings.EqualFold(data[:len(prefixHex)], prefixHex):
		return DeploymentConfidential
	default:
		return DeploymentInvalid
	}
}
