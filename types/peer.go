package types

import (
	"github.com/ethereum/go-ethereum/common"
)

// PeerKey is a previously learned public key of a peer (usually a contract).
type PeerKey struct {
	// PublicKey is the peer's call data public key.
	PublicKey PublicKey `json:"public_key"`
	// Timestamp is the attestation timestamp in milliseconds since the Unix epoch.
	Timestamp uint64 `json:"timestamp"`
	// Signature is the attestation signature over the public key and timestamp.
	//
	// Its validity is not checked by this package.
	Signature []byte `json:"signature,omitempty"`
}

// PeerID identifies a peer by its contract address.
type PeerID = common.Address
