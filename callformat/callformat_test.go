package callformat

import (
	"bytes"
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oasisprotocol/web3c-go/crypto/box"
	"github.com/oasisprotocol/web3c-go/types"
)

func TestEncodeDecode(t *testing.T) {
	require := require.New(t)

	var nonce box.Nonce
	for i := range nonce {
		nonce[i] = byte(i)
	}
	sender := types.SecretKey(sha512.Sum512_256([]byte("callformat test sender"))).Public()
	ct := []byte("ciphertext and tag")

	data := Encode(&nonce, &sender, ct)
	require.Len(data, MinEnvelopeSize+len(ct))
	require.True(IsConfidential(data))

	// If this changes, relays parsing the data field break.
	require.Equal("00656e63", hex.EncodeToString(data[:PrefixSize]))
	require.Equal(nonce[:], data[PrefixSize:PrefixSize+NonceSize])
	require.Equal(sender[:], data[PrefixSize+NonceSize:MinEnvelopeSize])
	require.Equal(ct, data[MinEnvelopeSize:])

	env, err := Decode(data)
	require.NoError(err)
	require.Equal(nonce, env.Nonce)
	require.Equal(sender, env.SenderPublicKey)
	require.Equal(ct, env.Ciphertext)

	var env2 Envelope
	require.NoError(env2.UnmarshalBinary(data))
	raw, err := env2.MarshalBinary()
	require.NoError(err)
	require.Equal(data, raw)

	env3, err := DecodeHex(env.EncodeHex())
	require.NoError(err)
	require.Equal(env, env3)
	env3, err = DecodeHex(hex.EncodeToString(data))
	require.NoError(err, "0x prefix should be optional")
	require.Equal(env, env3)
}

func TestDecodeTruncated(t *testing.T) {
	require := require.New(t)

	var nonce box.Nonce
	var sender types.PublicKey
	data := Encode(&nonce, &sender, nil)
	require.Len(data, MinEnvelopeSize)

	for n := 0; n < MinEnvelopeSize; n++ {
		// Copy into an exactly sized buffer so any overread would panic.
		truncated := append(make([]byte, 0, n), data[:n]...)
		env, err := Decode(truncated)
		require.ErrorIs(err, types.ErrMalformedEnvelope, "length %d", n)
		require.Nil(env)
	}

	env, err := Decode(data)
	require.NoError(err, "empty ciphertext is structurally valid")
	require.Empty(env.Ciphertext)
}

func TestDecodeMalformed(t *testing.T) {
	require := require.New(t)

	_, err := Decode(bytes.Repeat([]byte{0xff}, MinEnvelopeSize+16))
	require.ErrorIs(err, types.ErrMalformedEnvelope, "missing prefix")

	_, err = DecodeHex("0xzz")
	require.ErrorIs(err, types.ErrMalformedEnvelope, "bad hex")

	_, err = DecodeHex("0x00656e6")
	require.ErrorIs(err, types.ErrMalformedEnvelope, "odd length hex")
}

func TestIsConfidential(t *testing.T) {
	require := require.New(t)

	var nonce box.Nonce
	var sender types.PublicKey
	for _, ct := range [][]byte{nil, {1}, bytes.Repeat([]byte{2}, 100)} {
		require.True(IsConfidential(Encode(&nonce, &sender, ct)))
	}

	for _, data := range [][]byte{
		nil,
		{},
		[]byte("\x00en"),
		[]byte("enc\x00"),
		[]byte("\x01enc"),
		{0x60, 0x80, 0x60, 0x40, 0x52},
	} {
		require.False(IsConfidential(data), "%x", data)
	}
}
