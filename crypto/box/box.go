// Package box implements the authenticated public-key encryption primitive used for confidential
// call data.
package box

import (
	"fmt"
	"io"

	"github.com/oasisprotocol/curve25519-voi/primitives/x25519"
	"github.com/oasisprotocol/deoxysii"
	mrae "github.com/oasisprotocol/oasis-core/go/common/crypto/mrae/api"
	mraeDeoxysii "github.com/oasisprotocol/oasis-core/go/common/crypto/mrae/deoxysii"

	"github.com/oasisprotocol/web3c-go/types"
)

const (
	// NonceSize is the size of a box nonce in bytes.
	NonceSize = deoxysii.NonceSize
	// TagSize is the size of the authentication tag appended to each sealed box.
	TagSize = deoxysii.TagSize
)

// Nonce is a box nonce. It must never repeat for a given key pair and peer.
type Nonce [NonceSize]byte

// Cipher is an authenticated public-key encryption primitive.
type Cipher interface {
	// Seal encrypts and authenticates plaintext so that only the holder of the secret key
	// matching peer can open it. The result includes the authentication tag.
	Seal(sk *types.SecretKey, peer *types.PublicKey, nonce *Nonce, plaintext []byte) []byte

	// Open authenticates and decrypts a sealed box.
	//
	// Any failure results in types.ErrAuthenticationFailure and no plaintext.
	Open(sk *types.SecretKey, peer *types.PublicKey, nonce *Nonce, ciphertext []byte) ([]byte, error)
}

type deoxysIIBox struct{}

// DeoxysII is the X25519 + Deoxys-II-256-128 MRAE box.
var DeoxysII Cipher = deoxysIIBox{}

func (deoxysIIBox) Seal(sk *types.SecretKey, peer *types.PublicKey, nonce *Nonce, plaintext []byte) []byte {
	return mraeDeoxysii.Box.Seal(nil, nonce[:], plaintext, nil, (*x25519.PublicKey)(peer), (*x25519.PrivateKey)(sk))
}

func (deoxysIIBox) Open(sk *types.SecretKey, peer *types.PublicKey, nonce *Nonce, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < TagSize {
		return nil, types.ErrAuthenticationFailure
	}
	pt, err := mraeDeoxysii.Box.Open(nil, nonce[:], ciphertext, nil, (*x25519.PublicKey)(peer), (*x25519.PrivateKey)(sk))
	if err != nil {
		return nil, types.ErrAuthenticationFailure
	}
	return pt, nil
}

// NewNonce reads a fresh nonce from the given (cryptographically secure) random source.
func NewNonce(rand io.Reader) (*Nonce, error) {
	var nonce Nonce
	if _, err := io.ReadFull(rand, nonce[:]); err != nil {
		return nil, fmt.Errorf("box: failed to generate random nonce: %w", err)
	}
	return &nonce, nil
}

// GenerateKeyPair generates a new X25519 key pair from the given random source.
func GenerateKeyPair(rand io.Reader) (*types.KeyPair, error) {
	pk, sk, err := mrae.GenerateKeyPair(rand)
	if err != nil {
		return nil, fmt.Errorf("box: failed to generate X25519 key pair: %w", err)
	}
	return &types.KeyPair{
		PublicKey: types.PublicKey(*pk),
		SecretKey: types.SecretKey(*sk),
	}, nil
}
