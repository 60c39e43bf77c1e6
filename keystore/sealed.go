package keystore

import (
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"

	"github.com/oasisprotocol/deoxysii"
	"github.com/oasisprotocol/oasis-core/go/common/cbor"

	"github.com/oasisprotocol/web3c-go/types"
)

const (
	sealKeySize  = 32
	kdfSaltSize  = 32
	sealNonceLen = deoxysii.NonceSize

	kdfTime    = 1
	kdfMemory  = 64 * 1024
	kdfThreads = 4
)

type kdfArgon2 struct {
	Salt    []byte `json:"salt"`
	Time    uint32 `json:"time"`
	Memory  uint32 `json:"memory"`
	Threads uint8  `json:"threads"`
}

// validate only admits the parameters used for sealing.
func (k *kdfArgon2) validate() error {
	switch {
	case len(k.Salt) != kdfSaltSize:
		return fmt.Errorf("bad salt size %d", len(k.Salt))
	case k.Time != kdfTime, k.Memory != kdfMemory, k.Threads != kdfThreads:
		return fmt.Errorf("unsupported argon2 parameters (t=%d m=%d p=%d)", k.Time, k.Memory, k.Threads)
	}
	return nil
}

func (k *kdfArgon2) deriveKey(passphrase string) []byte {
	return argon2.IDKey([]byte(passphrase), k.Salt, k.Time, k.Memory, k.Threads, sealKeySize)
}

// sealedIdentity is a key pair encrypted under a passphrase-derived key.
type sealedIdentity struct {
	KDF   kdfArgon2 `json:"kdf"`
	Nonce []byte    `json:"nonce"`
	Data  []byte    `json:"data"`
}

func sealIdentity(rand io.Reader, kp *types.KeyPair, passphrase string) (*sealedIdentity, error) {
	sealed := &sealedIdentity{
		KDF: kdfArgon2{
			Salt:    make([]byte, kdfSaltSize),
			Time:    kdfTime,
			Memory:  kdfMemory,
			Threads: kdfThreads,
		},
		Nonce: make([]byte, sealNonceLen),
	}
	if _, err := io.ReadFull(rand, sealed.KDF.Salt); err != nil {
		return nil, fmt.Errorf("keystore: failed to generate salt: %w", err)
	}
	if _, err := io.ReadFull(rand, sealed.Nonce); err != nil {
		return nil, fmt.Errorf("keystore: failed to generate nonce: %w", err)
	}

	aead, err := deoxysii.New(sealed.KDF.deriveKey(passphrase))
	if err != nil {
		return nil, err
	}
	sealed.Data = aead.Seal(nil, sealed.Nonce, cbor.Marshal(kp), nil)

	return sealed, nil
}

func (s *sealedIdentity) open(passphrase string) (*types.KeyPair, error) {
	if len(s.Nonce) != sealNonceLen {
		return nil, fmt.Errorf("keystore: malformed sealed identity: %w", types.ErrAuthenticationFailure)
	}
	if err := s.KDF.validate(); err != nil {
		return nil, fmt.Errorf("keystore: malformed sealed identity: %s: %w", err, types.ErrAuthenticationFailure)
	}

	aead, err := deoxysii.New(s.KDF.deriveKey(passphrase))
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, s.Nonce, s.Data, nil)
	if err != nil {
		return nil, fmt.Errorf("keystore: failed to open sealed identity: %w", types.ErrAuthenticationFailure)
	}

	var kp types.KeyPair
	if err = cbor.Unmarshal(pt, &kp); err != nil {
		return nil, fmt.Errorf("keystore: malformed identity: %w", err)
	}
	return &kp, nil
}
