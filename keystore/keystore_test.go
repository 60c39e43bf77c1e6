package keystore

import (
	"crypto/rand"
	"crypto/sha512"
	"fmt"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/oasisprotocol/oasis-core/go/common/cbor"

	"github.com/oasisprotocol/web3c-go/types"
)

func testPeerKey(seed string) *types.PeerKey {
	sk := types.SecretKey(sha512.Sum512_256([]byte(seed)))
	return &types.PeerKey{
		PublicKey: sk.Public(),
		Timestamp: 1577836800000,
		Signature: []byte("attestation " + seed),
	}
}

func TestKeyNotInitialized(t *testing.T) {
	require := require.New(t)

	s := New(NewMemoryBackend())
	_, err := s.OwnKeyPair()
	require.ErrorIs(err, types.ErrKeyNotInitialized)

	kp, err := s.Initialize(rand.Reader)
	require.NoError(err)
	require.NoError(kp.Validate())

	kp2, err := s.OwnKeyPair()
	require.NoError(err)
	require.Equal(kp, kp2)

	kp3, err := s.Initialize(rand.Reader)
	require.NoError(err)
	require.Equal(kp, kp3, "identity should never be regenerated")
}

func TestInitializeLoadsPersisted(t *testing.T) {
	require := require.New(t)

	backend := NewMemoryBackend()
	kp, err := New(backend).Initialize(rand.Reader)
	require.NoError(err)

	kp2, err := New(backend).Initialize(rand.Reader)
	require.NoError(err)
	require.Equal(kp, kp2, "identity should be loaded from the backend")
}

func TestLoad(t *testing.T) {
	require := require.New(t)

	backend := NewMemoryBackend()
	_, err := New(backend).Load()
	require.ErrorIs(err, types.ErrKeyNotInitialized, "load should never generate an identity")

	kp, err := New(backend).Initialize(rand.Reader)
	require.NoError(err)

	s := New(backend)
	kp2, err := s.Load()
	require.NoError(err)
	require.Equal(kp, kp2)

	kp3, err := s.OwnKeyPair()
	require.NoError(err)
	require.Equal(kp, kp3)
}

func TestImport(t *testing.T) {
	require := require.New(t)

	kp := types.NewKeyPair(types.SecretKey(sha512.Sum512_256([]byte("keystore test import"))))
	backend := NewMemoryBackend()

	s := New(backend)
	require.NoError(s.Import(rand.Reader, kp))
	own, err := s.OwnKeyPair()
	require.NoError(err)
	require.Equal(kp, own)

	require.NoError(New(backend).Import(rand.Reader, kp), "importing the same identity is idempotent")

	other := types.NewKeyPair(types.SecretKey(sha512.Sum512_256([]byte("keystore test other"))))
	require.Error(New(backend).Import(rand.Reader, other), "a different identity must not replace the existing one")

	bad := *kp
	bad.PublicKey[0] ^= 0xff
	require.Error(New(NewMemoryBackend()).Import(rand.Reader, &bad), "inconsistent key pair")
}

func TestSealedIdentity(t *testing.T) {
	require := require.New(t)

	backend := NewMemoryBackend()
	kp, err := New(backend, WithPassphrase("correct horse")).Initialize(rand.Reader)
	require.NoError(err)

	raw, err := backend.Get(identityKey)
	require.NoError(err)
	require.NotContains(string(raw), string(kp.SecretKey[:]), "secret key must not be stored in the clear")

	kp2, err := New(backend, WithPassphrase("correct horse")).Initialize(rand.Reader)
	require.NoError(err)
	require.Equal(kp, kp2)

	_, err = New(backend, WithPassphrase("battery staple")).Initialize(rand.Reader)
	require.ErrorIs(err, types.ErrAuthenticationFailure, "wrong passphrase")

	_, err = New(backend).Initialize(rand.Reader)
	require.Error(err, "sealed identity without a passphrase")
}

func TestSealedIdentityTamperedKDF(t *testing.T) {
	require := require.New(t)

	backend := NewMemoryBackend()
	_, err := New(backend, WithPassphrase("correct horse")).Initialize(rand.Reader)
	require.NoError(err)

	raw, err := backend.Get(identityKey)
	require.NoError(err)

	for _, tamper := range []func(*kdfArgon2){
		func(k *kdfArgon2) { k.Memory = 1 << 30 },
		func(k *kdfArgon2) { k.Time = 1 << 20 },
		func(k *kdfArgon2) { k.Threads = 255 },
		func(k *kdfArgon2) { k.Salt = k.Salt[:4] },
	} {
		var rec identityRecord
		require.NoError(cbor.Unmarshal(raw, &rec))
		tamper(&rec.Sealed.KDF)
		require.NoError(backend.Put(identityKey, cbor.Marshal(&rec)))

		_, err = New(backend, WithPassphrase("correct horse")).Load()
		require.ErrorIs(err, types.ErrAuthenticationFailure, "tampered kdf parameters must be rejected before derivation")
	}
}

func TestReturnedStateIsCopied(t *testing.T) {
	require := require.New(t)

	s := New(NewMemoryBackend())
	kp, err := s.Initialize(rand.Reader)
	require.NoError(err)
	want := *kp

	kp.SecretKey[0] ^= 0xff
	own, err := s.OwnKeyPair()
	require.NoError(err)
	require.Equal(want, *own, "mutating a returned key pair must not change the identity")

	id := common.HexToAddress("0x1111111111111111111111111111111111111111")
	pk := testPeerKey("keystore test copy")
	require.NoError(s.RecordPeerKey(id, pk))

	got, err := s.LookupPeerKey(id)
	require.NoError(err)
	got.Signature[0] ^= 0xff
	got.Timestamp++

	again, err := s.LookupPeerKey(id)
	require.NoError(err)
	require.Equal(pk, again, "mutating a returned peer key must not change the cache")
}

func TestPeerKeys(t *testing.T) {
	require := require.New(t)

	s := New(NewMemoryBackend())
	id := common.HexToAddress("0x1111111111111111111111111111111111111111")

	_, err := s.LookupPeerKey(id)
	require.ErrorIs(err, types.ErrPeerKeyNotFound)

	pk := testPeerKey("keystore test peer")
	require.NoError(s.RecordPeerKey(id, pk))

	got, err := s.LookupPeerKey(id)
	require.NoError(err)
	require.Equal(pk, got)

	pk2 := testPeerKey("keystore test peer refreshed")
	require.NoError(s.RecordPeerKey(id, pk2))
	got, err = s.LookupPeerKey(id)
	require.NoError(err)
	require.Equal(pk2, got, "record should overwrite")
}

func TestPeerKeysConcurrent(t *testing.T) {
	require := require.New(t)

	s := New(NewMemoryBackend())
	shared := common.HexToAddress("0x2222222222222222222222222222222222222222")

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			own := common.BigToAddress(common.Big1)
			own[0] = byte(i)
			_ = s.RecordPeerKey(own, testPeerKey(fmt.Sprintf("own %d", i)))
			_ = s.RecordPeerKey(shared, testPeerKey(fmt.Sprintf("shared %d", i)))
			_, _ = s.LookupPeerKey(shared)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 32; i++ {
		own := common.BigToAddress(common.Big1)
		own[0] = byte(i)
		got, err := s.LookupPeerKey(own)
		require.NoError(err)
		require.Equal(testPeerKey(fmt.Sprintf("own %d", i)), got)
	}

	// Last writer wins, but the entry must be one of the written ones, intact.
	got, err := s.LookupPeerKey(shared)
	require.NoError(err)
	var found bool
	for i := 0; i < 32; i++ {
		if want := testPeerKey(fmt.Sprintf("shared %d", i)); want.PublicKey == got.PublicKey {
			require.Equal(want, got)
			found = true
		}
	}
	require.True(found, "shared entry should match one of the writes")
}

func TestBadgerBackend(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	id := common.HexToAddress("0x3333333333333333333333333333333333333333")
	pk := testPeerKey("keystore test badger")

	backend, err := NewBadgerBackend(dir)
	require.NoError(err)
	s := New(backend)
	kp, err := s.Initialize(rand.Reader)
	require.NoError(err)
	require.NoError(s.RecordPeerKey(id, pk))
	require.NoError(s.Close())

	backend, err = NewBadgerBackend(dir)
	require.NoError(err)
	s = New(backend)
	defer s.Close()

	kp2, err := s.Initialize(rand.Reader)
	require.NoError(err)
	require.Equal(kp, kp2, "identity should survive a restart")

	got, err := s.LookupPeerKey(id)
	require.NoError(err)
	require.Equal(pk, got, "peer key should survive a restart")

	_, err = backend.Get([]byte("missing"))
	require.ErrorIs(err, ErrNotFound)
}

func TestBadgerBackendInMemory(t *testing.T) {
	require := require.New(t)

	backend, err := NewBadgerBackend("")
	require.NoError(err)
	defer backend.Close()

	require.NoError(backend.Put([]byte("k"), []byte("v")))
	v, err := backend.Get([]byte("k"))
	require.NoError(err)
	require.Equal([]byte("v"), v)
}
