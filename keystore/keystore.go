// Package keystore holds the local identity and the learned peer public keys.
package keystore

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/oasisprotocol/oasis-core/go/common/cbor"
	"github.com/oasisprotocol/oasis-core/go/common/logging"

	"github.com/oasisprotocol/web3c-go/crypto/box"
	"github.com/oasisprotocol/web3c-go/types"
)

var (
	identityKey   = []byte("identity")
	peerKeyPrefix = []byte("peer/")
)

// identityRecord is the persisted form of the local identity. Exactly one field is set.
type identityRecord struct {
	Plain  *types.KeyPair  `json:"plain,omitempty"`
	Sealed *sealedIdentity `json:"sealed,omitempty"`
}

// Option is a keystore option.
type Option func(*Store)

// WithPassphrase makes the store seal the persisted identity under the given passphrase.
func WithPassphrase(passphrase string) Option {
	return func(s *Store) {
		s.passphrase = passphrase
	}
}

// Store is the keystore of a single local identity.
//
// It is safe for concurrent use.
type Store struct {
	backend    Backend
	passphrase string
	logger     *logging.Logger

	identityLock sync.RWMutex
	identity     *types.KeyPair

	peersLock sync.RWMutex
	peers     map[types.PeerID]*types.PeerKey
}

// New creates a new keystore over the given backend.
//
// The store has no identity until Initialize or Import is called.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  logging.GetLogger("web3c/keystore"),
		peers:   make(map[types.PeerID]*types.PeerKey),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize establishes the local identity.
//
// A persisted identity is loaded if present, otherwise a new one is generated using rand and
// persisted.
func (s *Store) Initialize(rand io.Reader) (*types.KeyPair, error) {
	s.identityLock.Lock()
	defer s.identityLock.Unlock()

	if s.identity != nil {
		return s.ownKeyPair(), nil
	}

	kp, err := s.loadIdentity()
	switch {
	case err == nil:
		s.logger.Info("loaded identity", "public_key", kp.PublicKey)
	case errors.Is(err, ErrNotFound):
		if kp, err = box.GenerateKeyPair(rand); err != nil {
			return nil, err
		}
		if err = s.saveIdentity(rand, kp); err != nil {
			return nil, err
		}
		s.logger.Info("generated new identity", "public_key", kp.PublicKey)
	default:
		return nil, err
	}

	s.identity = kp
	return s.ownKeyPair(), nil
}

// Import establishes the given key pair as the local identity.
//
// It fails if a different identity has already been established.
func (s *Store) Import(rand io.Reader, kp *types.KeyPair) error {
	if err := kp.Validate(); err != nil {
		return fmt.Errorf("keystore: %w", err)
	}

	s.identityLock.Lock()
	defer s.identityLock.Unlock()

	existing := s.identity
	if existing == nil {
		loaded, err := s.loadIdentity()
		switch {
		case err == nil:
			existing = loaded
		case errors.Is(err, ErrNotFound):
		default:
			return err
		}
	}
	switch {
	case existing == nil:
		if err := s.saveIdentity(rand, kp); err != nil {
			return err
		}
	case existing.PublicKey != kp.PublicKey:
		return fmt.Errorf("keystore: a different identity is already established")
	}

	identity := *kp
	s.identity = &identity
	return nil
}

// Load establishes the persisted local identity without generating a new one.
//
// It returns types.ErrKeyNotInitialized when no identity has been persisted.
func (s *Store) Load() (*types.KeyPair, error) {
	s.identityLock.Lock()
	defer s.identityLock.Unlock()

	if s.identity != nil {
		return s.ownKeyPair(), nil
	}

	kp, err := s.loadIdentity()
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		return nil, types.ErrKeyNotInitialized
	default:
		return nil, err
	}

	s.identity = kp
	return s.ownKeyPair(), nil
}

// OwnKeyPair returns the local identity key pair.
func (s *Store) OwnKeyPair() (*types.KeyPair, error) {
	s.identityLock.RLock()
	defer s.identityLock.RUnlock()

	if s.identity == nil {
		return nil, types.ErrKeyNotInitialized
	}
	return s.ownKeyPair(), nil
}

// LookupPeerKey returns a previously recorded peer key or types.ErrPeerKeyNotFound.
func (s *Store) LookupPeerKey(id types.PeerID) (*types.PeerKey, error) {
	s.peersLock.RLock()
	pk, ok := s.peers[id]
	s.peersLock.RUnlock()
	if ok {
		return clonePeerKey(pk), nil
	}

	s.peersLock.Lock()
	defer s.peersLock.Unlock()

	// Someone may have recorded it in the meantime.
	if pk, ok = s.peers[id]; ok {
		return clonePeerKey(pk), nil
	}

	raw, err := s.backend.Get(peerKey(id))
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		return nil, types.ErrPeerKeyNotFound
	default:
		return nil, fmt.Errorf("keystore: failed to load peer key: %w", err)
	}

	var loaded types.PeerKey
	if err = cbor.Unmarshal(raw, &loaded); err != nil {
		return nil, fmt.Errorf("keystore: malformed peer key: %w", err)
	}
	s.peers[id] = &loaded
	return clonePeerKey(&loaded), nil
}

// RecordPeerKey stores the peer key, overwriting any previous one.
func (s *Store) RecordPeerKey(id types.PeerID, pk *types.PeerKey) error {
	entry := clonePeerKey(pk)

	s.peersLock.Lock()
	defer s.peersLock.Unlock()

	if err := s.backend.Put(peerKey(id), cbor.Marshal(entry)); err != nil {
		return fmt.Errorf("keystore: failed to persist peer key: %w", err)
	}
	s.peers[id] = entry

	s.logger.Debug("recorded peer key",
		"peer", id.Hex(),
		"public_key", entry.PublicKey,
	)
	return nil
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) loadIdentity() (*types.KeyPair, error) {
	raw, err := s.backend.Get(identityKey)
	if err != nil {
		return nil, err
	}

	var rec identityRecord
	if err = cbor.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("keystore: malformed identity record: %w", err)
	}

	var kp *types.KeyPair
	switch {
	case rec.Sealed != nil:
		if s.passphrase == "" {
			return nil, fmt.Errorf("keystore: identity is sealed but no passphrase configured")
		}
		if kp, err = rec.Sealed.open(s.passphrase); err != nil {
			return nil, err
		}
	case rec.Plain != nil:
		kp = rec.Plain
	default:
		return nil, fmt.Errorf("keystore: empty identity record")
	}

	if err = kp.Validate(); err != nil {
		return nil, fmt.Errorf("keystore: corrupted identity: %w", err)
	}
	return kp, nil
}

func (s *Store) saveIdentity(rand io.Reader, kp *types.KeyPair) error {
	var rec identityRecord
	switch s.passphrase {
	case "":
		rec.Plain = kp
	default:
		sealed, err := sealIdentity(rand, kp, s.passphrase)
		if err != nil {
			return err
		}
		rec.Sealed = sealed
	}

	if err := s.backend.Put(identityKey, cbor.Marshal(&rec)); err != nil {
		return fmt.Errorf("keystore: failed to persist identity: %w", err)
	}
	return nil
}

// ownKeyPair returns a copy of the identity. The identity lock must be held.
func (s *Store) ownKeyPair() *types.KeyPair {
	kp := *s.identity
	return &kp
}

func clonePeerKey(pk *types.PeerKey) *types.PeerKey {
	clone := *pk
	if pk.Signature != nil {
		clone.Signature = append([]byte{}, pk.Signature...)
	}
	return &clone
}

func peerKey(id types.PeerID) []byte {
	return append(append([]byte{}, peerKeyPrefix...), id.Bytes()...)
}
