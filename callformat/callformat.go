// Package callformat implements the wire encoding of confidential call data and deployment
// headers.
package callformat

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/oasisprotocol/web3c-go/crypto/box"
	"github.com/oasisprotocol/web3c-go/types"
)

// Prefix is the reserved marker distinguishing confidential payloads from plain call data.
var Prefix = []byte("\x00enc")

const (
	// PrefixSize is the size of the confidential envelope prefix in bytes.
	PrefixSize = 4
	// NonceSize is the size of the envelope nonce in bytes.
	NonceSize = box.NonceSize
	// TagSize is the size of the authentication tag at the end of the ciphertext.
	TagSize = box.TagSize
	// PublicKeySize is the size of the envelope sender public key in bytes.
	PublicKeySize = types.PublicKeySize
	// MinEnvelopeSize is the size of the fixed part of the envelope.
	MinEnvelopeSize = PrefixSize + NonceSize + PublicKeySize
)

// Envelope is a decoded confidential envelope.
type Envelope struct {
	// Nonce is the box nonce.
	Nonce box.Nonce
	// SenderPublicKey is the public key of the party that sealed the envelope.
	SenderPublicKey types.PublicKey
	// Ciphertext is the sealed data including the authentication tag.
	Ciphertext []byte
}

// IsConfidential returns true iff the data field carries a confidential envelope prefix.
func IsConfidential(data []byte) bool {
	return bytes.HasPrefix(data, Prefix)
}

// Encode encodes an envelope as PREFIX || NONCE || SENDER_PUBKEY || CIPHERTEXT.
func Encode(nonce *box.Nonce, sender *types.PublicKey, ciphertext []byte) []byte {
	data := make([]byte, 0, MinEnvelopeSize+len(ciphertext))
	data = append(data, Prefix...)
	data = append(data, nonce[:]...)
	data = append(data, sender[:]...)
	data = append(data, ciphertext...)
	return data
}

// Decode decodes a confidential envelope.
//
// The ciphertext of the returned envelope aliases data.
func Decode(data []byte) (*Envelope, error) {
	if len(data) < MinEnvelopeSize {
		return nil, fmt.Errorf("%w: need at least %d bytes, got %d", types.ErrMalformedEnvelope, MinEnvelopeSize, len(data))
	}
	if !IsConfidential(data) {
		return nil, fmt.Errorf("%w: missing prefix", types.ErrMalformedEnvelope)
	}

	var env Envelope
	off := PrefixSize
	copy(env.Nonce[:], data[off:off+NonceSize])
	off += NonceSize
	copy(env.SenderPublicKey[:], data[off:off+PublicKeySize])
	off += PublicKeySize
	env.Ciphertext = data[off:]
	return &env, nil
}

// MarshalBinary encodes the envelope into its wire form.
func (e *Envelope) MarshalBinary() ([]byte, error) {
	return Encode(&e.Nonce, &e.SenderPublicKey, e.Ciphertext), nil
}

// UnmarshalBinary decodes the envelope from its wire form.
func (e *Envelope) UnmarshalBinary(data []byte) error {
	dec, err := Decode(data)
	if err != nil {
		return err
	}
	*e = *dec
	e.Ciphertext = append([]byte{}, dec.Ciphertext...)
	return nil
}

// EncodeHex encodes an envelope into the 0x-prefixed hex form used by the transport.
func (e *Envelope) EncodeHex() string {
	return hexutil.Encode(Encode(&e.Nonce, &e.SenderPublicKey, e.Ciphertext))
}

// DecodeHex decodes an envelope from hex form, with or without the 0x prefix.
func DecodeHex(data string) (*Envelope, error) {
	raw, err := types.DecodeHex(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", types.ErrMalformedEnvelope, err)
	}
	return Decode(raw)
}
