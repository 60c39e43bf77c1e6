package gateway

import (
	"context"
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/oasisprotocol/web3c-go/types"
)

// AttestationDigest returns the digest signed by the gateway when handing out a public key.
//
// The digest is keccak256(public_key || big-endian uint64 timestamp).
func AttestationDigest(pk *types.PublicKey, timestamp uint64) []byte {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], timestamp)
	return crypto.Keccak256(pk[:], ts[:])
}

// VerifyAttestation checks that the peer key was attested by the given signer.
func VerifyAttestation(pk *types.PeerKey, signer common.Address) error {
	if len(pk.Signature) != crypto.SignatureLength {
		return fmt.Errorf("gateway: malformed attestation signature: %w", types.ErrAuthenticationFailure)
	}
	pub, err := crypto.SigToPub(AttestationDigest(&pk.PublicKey, pk.Timestamp), pk.Signature)
	if err != nil {
		return fmt.Errorf("gateway: bad attestation signature: %w", types.ErrAuthenticationFailure)
	}
	if crypto.PubkeyToAddress(*pub) != signer {
		return fmt.Errorf("gateway: attestation signed by unexpected key: %w", types.ErrAuthenticationFailure)
	}
	return nil
}

// attestor hands out the gateway's own public key for every contract.
type attestor struct {
	publicKey types.PublicKey
	signer    *ecdsa.PrivateKey
	now       func() time.Time
}

func (a *attestor) ResolvePublicKey(_ context.Context, _ common.Address) (*types.PeerKey, error) {
	ts := uint64(a.now().UnixMilli())
	sig, err := crypto.Sign(AttestationDigest(&a.publicKey, ts), a.signer)
	if err != nil {
		return nil, fmt.Errorf("gateway: failed to sign public key: %w", err)
	}
	return &types.PeerKey{
		PublicKey: a.publicKey,
		Timestamp: ts,
		Signature: sig,
	}, nil
}
