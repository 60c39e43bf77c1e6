// Package provider transparently encrypts confidential calls and decrypts their results.
package provider

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/oasisprotocol/oasis-core/go/common/logging"

	"github.com/oasisprotocol/web3c-go/callformat"
	"github.com/oasisprotocol/web3c-go/crypto/box"
	"github.com/oasisprotocol/web3c-go/jsonrpc"
	"github.com/oasisprotocol/web3c-go/types"
)

// UnknownContract is the well-known address of a contract that does not exist.
//
// Public key requests for it yield no response at all.
var UnknownContract = common.Address{}

// KeyStore is the key storage used by the provider.
type KeyStore interface {
	// OwnKeyPair returns the local identity key pair.
	OwnKeyPair() (*types.KeyPair, error)

	// LookupPeerKey returns a previously recorded peer key or types.ErrPeerKeyNotFound.
	LookupPeerKey(id types.PeerID) (*types.PeerKey, error)

	// RecordPeerKey stores the peer key, overwriting any previous one.
	RecordPeerKey(id types.PeerID, pk *types.PeerKey) error
}

// KeyResolver fetches the public key of a contract, usually from a remote gateway.
type KeyResolver interface {
	// ResolvePublicKey returns the contract's public key.
	//
	// A nil key and nil error means that no response was given.
	ResolvePublicKey(ctx context.Context, contract common.Address) (*types.PeerKey, error)
}

// Option is a provider option.
type Option func(*Provider)

// WithCipher overrides the box cipher.
func WithCipher(cipher box.Cipher) Option {
	return func(p *Provider) {
		p.cipher = cipher
	}
}

// WithResolver configures the resolver used on peer key cache misses.
func WithResolver(resolver KeyResolver) Option {
	return func(p *Provider) {
		p.resolver = resolver
	}
}

// WithRandom overrides the nonce random source.
func WithRandom(rand io.Reader) Option {
	return func(p *Provider) {
		p.rand = rand
	}
}

// Provider orchestrates the keystore, the box cipher and the call format codec.
//
// A provider serves exactly one local identity.
type Provider struct {
	store    KeyStore
	cipher   box.Cipher
	resolver KeyResolver
	rand     io.Reader

	logger *logging.Logger
}

// New creates a new confidential provider.
func New(store KeyStore, opts ...Option) *Provider {
	p := &Provider{
		store:  store,
		cipher: box.DeoxysII,
		rand:   rand.Reader,
		logger: logging.GetLogger("web3c/provider"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetPublicKey resolves the public key of a contract for future encryption.
//
// A nil key and nil error means that no response was given, which is the outcome for
// UnknownContract.
func (p *Provider) GetPublicKey(ctx context.Context, contract common.Address) (*types.PeerKey, error) {
	if contract == UnknownContract {
		return nil, nil
	}

	pk, err := p.store.LookupPeerKey(contract)
	switch {
	case err == nil:
		return pk, nil
	case errors.Is(err, types.ErrPeerKeyNotFound):
		if p.resolver == nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if pk, err = p.resolver.ResolvePublicKey(ctx, contract); err != nil {
		return nil, fmt.Errorf("provider: failed to resolve public key: %w", err)
	}
	if pk == nil {
		p.logger.Debug("no public key response", "contract", contract.Hex())
		return nil, nil
	}
	if err = p.store.RecordPeerKey(contract, pk); err != nil {
		return nil, err
	}
	return pk, nil
}

// EncryptCall seals plaintext for the given peer and encodes it as a confidential data field.
func (p *Provider) EncryptCall(peer *types.PublicKey, plaintext []byte) ([]byte, error) {
	nonce, err := box.NewNonce(p.rand)
	if err != nil {
		return nil, err
	}
	return p.EncryptCallWithNonce(peer, nonce, plaintext)
}

// EncryptCallWithNonce is EncryptCall with a caller-supplied nonce.
//
// The nonce must never be reused with the same local identity and peer.
func (p *Provider) EncryptCallWithNonce(peer *types.PublicKey, nonce *box.Nonce, plaintext []byte) ([]byte, error) {
	kp, err := p.store.OwnKeyPair()
	if err != nil {
		return nil, err
	}
	sealed := p.cipher.Seal(&kp.SecretKey, peer, nonce, plaintext)
	return callformat.Encode(nonce, &kp.PublicKey, sealed), nil
}

// OpenedCall is a decrypted confidential call.
type OpenedCall struct {
	// Plaintext is the decrypted call data.
	Plaintext []byte
	// Sender is the public key of the party that sealed the call.
	Sender types.PublicKey
}

// OpenCall decodes and decrypts a confidential data field sealed for the local identity.
func (p *Provider) OpenCall(data string) (*OpenedCall, error) {
	env, err := callformat.DecodeHex(data)
	if err != nil {
		return nil, err
	}
	pt, err := p.open(env)
	if err != nil {
		return nil, err
	}
	return &OpenedCall{
		Plaintext: pt,
		Sender:    env.SenderPublicKey,
	}, nil
}

// DecryptCall decodes and decrypts a confidential data field sealed for the local identity.
//
// The data may carry a 0x transport prefix.
func (p *Provider) DecryptCall(data string) ([]byte, error) {
	opened, err := p.OpenCall(data)
	if err != nil {
		return nil, err
	}
	return opened.Plaintext, nil
}

// DecryptResult decrypts a value returned for a confidential call made to peer.
//
// Results sealed by anyone other than peer are rejected.
func (p *Provider) DecryptResult(peer *types.PublicKey, data string) ([]byte, error) {
	env, err := callformat.DecodeHex(data)
	if err != nil {
		return nil, err
	}
	if env.SenderPublicKey != *peer {
		return nil, fmt.Errorf("provider: result sealed by unexpected key: %w", types.ErrAuthenticationFailure)
	}
	return p.open(env)
}

func (p *Provider) open(env *callformat.Envelope) ([]byte, error) {
	kp, err := p.store.OwnKeyPair()
	if err != nil {
		return nil, err
	}
	return p.cipher.Open(&kp.SecretKey, &env.SenderPublicKey, &env.Nonce, env.Ciphertext)
}

// ClassifyDeployment classifies the data field of a contract-creation call.
func (p *Provider) ClassifyDeployment(data string) callformat.DeploymentKind {
	return callformat.ClassifyDeployment(data)
}

// CallContext is the state needed to decrypt the result of an intercepted call.
type CallContext struct {
	// Contract is the address of the called contract.
	Contract common.Address
	// PeerKey is the public key the call was sealed for.
	PeerKey types.PublicKey
}

// TransformRequest encrypts the data field of an outgoing call to a contract.
//
// Contract-creation calls are passed through unchanged with a nil context since their payload
// must already carry either a confidential prefix or a deployment header.
func (p *Provider) TransformRequest(ctx context.Context, call *jsonrpc.CallObject) (*jsonrpc.CallObject, *CallContext, error) {
	if call.IsDeployment() {
		return call, nil, nil
	}

	pk, err := p.GetPublicKey(ctx, *call.To)
	if err != nil {
		return nil, nil, err
	}
	if pk == nil {
		return nil, nil, fmt.Errorf("provider: no public key for contract %s: %w", call.To.Hex(), types.ErrPeerKeyNotFound)
	}

	var plaintext []byte
	if call.Data != "" {
		if plaintext, err = types.DecodeHex(call.Data); err != nil {
			return nil, nil, fmt.Errorf("provider: malformed call data: %w", err)
		}
	}
	enc, err := p.EncryptCall(&pk.PublicKey, plaintext)
	if err != nil {
		return nil, nil, err
	}

	transformed := *call
	transformed.Data = hexutil.Encode(enc)
	return &transformed, &CallContext{
		Contract: *call.To,
		PeerKey:  pk.PublicKey,
	}, nil
}

// TransformResponse decrypts the result of a call intercepted by TransformRequest.
//
// A nil context means the call was not encrypted and the result is plain hex.
func (p *Provider) TransformResponse(cc *CallContext, result string) ([]byte, error) {
	if cc == nil {
		return types.DecodeHex(result)
	}
	return p.DecryptResult(&cc.PeerKey, result)
}
