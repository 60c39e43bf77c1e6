// Package testing provides deterministic keys for tests.
package testing

import (
	"crypto/sha512"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"

	"github.com/oasisprotocol/web3c-go/types"
)

// GatewaySecretKeyHex is the fixed secret key of the mock gateway.
const GatewaySecretKeyHex = "0x263357bd55c11524811cccf8c9303e3298dd71abeb1b20f3ea7db07655dba9e9"

// TestKey is a key used for testing.
type TestKey struct {
	KeyPair *types.KeyPair

	// Address is an address derived from the public key, usable as a peer or sender identifier.
	Address common.Address
}

func newTestKey(sk types.SecretKey) TestKey {
	kp := types.NewKeyPair(sk)

	h := sha3.NewLegacyKeccak256()
	h.Write(kp.PublicKey[:])
	var address common.Address
	copy(address[:], h.Sum(nil)[32-20:])

	return TestKey{
		KeyPair: kp,
		Address: address,
	}
}

func newSeededTestKey(seed string) TestKey {
	return newTestKey(types.SecretKey(sha512.Sum512_256([]byte(seed))))
}

func newHexTestKey(text string) TestKey {
	var sk types.SecretKey
	if err := sk.UnmarshalText([]byte(text)); err != nil {
		panic(err)
	}
	return newTestKey(sk)
}

var (
	// Alice is the test key A.
	Alice = newSeededTestKey("web3c/test-keys: alice")
	// Bob is the test key B.
	Bob = newSeededTestKey("web3c/test-keys: bob")
	// Charlie is the test key C.
	Charlie = newSeededTestKey("web3c/test-keys: charlie")
	// Gateway is the fixed key of the mock gateway.
	Gateway = newHexTestKey(GatewaySecretKeyHex)

	// TestAccounts contains all test keys.
	TestAccounts = []TestKey{Alice, Bob, Charlie, Gateway}
)
