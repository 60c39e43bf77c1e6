package types

import (
	"encoding"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/oasisprotocol/curve25519-voi/primitives/x25519"
)

const (
	// PublicKeySize is the size of an X25519 public key in bytes.
	PublicKeySize = 32
	// SecretKeySize is the size of an X25519 secret key in bytes.
	SecretKeySize = 32
)

var (
	_ encoding.BinaryMarshaler   = PublicKey{}
	_ encoding.BinaryUnmarshaler = (*PublicKey)(nil)
	_ encoding.TextMarshaler     = PublicKey{}
	_ encoding.TextUnmarshaler   = (*PublicKey)(nil)

	_ encoding.BinaryMarshaler   = SecretKey{}
	_ encoding.BinaryUnmarshaler = (*SecretKey)(nil)
	_ encoding.TextUnmarshaler   = (*SecretKey)(nil)
	_ fmt.Stringer               = SecretKey{}
)

// PublicKey is an X25519 public key used for call data encryption.
type PublicKey [PublicKeySize]byte

// MarshalBinary encodes a public key into binary form.
func (pk PublicKey) MarshalBinary() ([]byte, error) {
	return append([]byte{}, pk[:]...), nil
}

// UnmarshalBinary decodes a binary marshaled public key.
func (pk *PublicKey) UnmarshalBinary(data []byte) error {
	if len(data) != PublicKeySize {
		return fmt.Errorf("malformed public key: expected %d bytes, got %d", PublicKeySize, len(data))
	}
	copy(pk[:], data)
	return nil
}

// MarshalText encodes a public key into 0x-prefixed hex form.
func (pk PublicKey) MarshalText() ([]byte, error) {
	return []byte(hexutil.Encode(pk[:])), nil
}

// UnmarshalText decodes hex form, with or without the 0x prefix.
func (pk *PublicKey) UnmarshalText(text []byte) error {
	raw, err := DecodeHex(string(text))
	if err != nil {
		return fmt.Errorf("malformed public key: %w", err)
	}
	return pk.UnmarshalBinary(raw)
}

// String returns the 0x-prefixed hex representation of the public key.
func (pk PublicKey) String() string {
	return hexutil.Encode(pk[:])
}

// Equal compares vs another public key for equality.
func (pk PublicKey) Equal(other PublicKey) bool {
	return pk == other
}

// SecretKey is an X25519 secret key.
//
// It has no text marshaler so it can never end up in JSON output by accident.
type SecretKey [SecretKeySize]byte

// MarshalBinary encodes a secret key into binary form.
func (sk SecretKey) MarshalBinary() ([]byte, error) {
	return append([]byte{}, sk[:]...), nil
}

// UnmarshalBinary decodes a binary marshaled secret key.
func (sk *SecretKey) UnmarshalBinary(data []byte) error {
	if len(data) != SecretKeySize {
		return fmt.Errorf("malformed secret key: expected %d bytes, got %d", SecretKeySize, len(data))
	}
	copy(sk[:], data)
	return nil
}

// UnmarshalText decodes hex form, with or without the 0x prefix.
func (sk *SecretKey) UnmarshalText(text []byte) error {
	raw, err := DecodeHex(string(text))
	if err != nil {
		// Do not echo the input.
		return fmt.Errorf("malformed secret key")
	}
	return sk.UnmarshalBinary(raw)
}

// String returns a redacted representation of the secret key.
func (sk SecretKey) String() string {
	return "[redacted]"
}

// Public derives the X25519 public key corresponding to the secret key.
func (sk SecretKey) Public() PublicKey {
	xsk := x25519.PrivateKey(sk)
	return PublicKey(*xsk.Public())
}

// KeyPair is the long-term key pair of a local identity.
type KeyPair struct {
	PublicKey PublicKey `json:"public_key"`
	SecretKey SecretKey `cbor:"secret_key" json:"-"`
}

// NewKeyPair creates a key pair from the given secret key.
func NewKeyPair(sk SecretKey) *KeyPair {
	return &KeyPair{
		PublicKey: sk.Public(),
		SecretKey: sk,
	}
}

// Validate checks that the public key matches the secret key.
func (kp *KeyPair) Validate() error {
	if !kp.SecretKey.Public().Equal(kp.PublicKey) {
		return fmt.Errorf("key pair public key does not match secret key")
	}
	return nil
}

// DecodeHex decodes a hex string with an optional 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	return hexutil.Decode(s)
}
