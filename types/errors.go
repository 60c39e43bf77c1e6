package types

import (
	"github.com/oasisprotocol/oasis-core/go/common/errors"
)

// ModuleName is the module name used for confidential protocol errors.
const ModuleName = "web3c"

var (
	// ErrKeyNotInitialized is the error returned when no local identity has been established.
	ErrKeyNotInitialized = errors.New(ModuleName, 1, "web3c: local key pair not initialized")
	// ErrPeerKeyNotFound is the error returned when no public key is known for a peer.
	//
	// It is recoverable and should trigger a key exchange.
	ErrPeerKeyNotFound = errors.New(ModuleName, 2, "web3c: peer public key not found")
	// ErrMalformedEnvelope is the error returned when a confidential envelope cannot be decoded.
	ErrMalformedEnvelope = errors.New(ModuleName, 3, "web3c: malformed confidential envelope")
	// ErrAuthenticationFailure is the error returned when a sealed box fails to open.
	ErrAuthenticationFailure = errors.New(ModuleName, 4, "web3c: authentication failure")
	// ErrInvalidHeader is the error returned when a deployment header is structurally wrong.
	ErrInvalidHeader = errors.New(ModuleName, 5, "web3c: invalid deployment header")
)
