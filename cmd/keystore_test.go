package cmd

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oasisprotocol/web3c-go/config"
	"github.com/oasisprotocol/web3c-go/keystore"
	sdkTesting "github.com/oasisprotocol/web3c-go/testing"
	"github.com/oasisprotocol/web3c-go/types"
)

func TestOpenKeyStore(t *testing.T) {
	require := require.New(t)

	// In-memory stores do not survive reopening.
	store, err := openKeyStore(&config.KeyStore{})
	require.NoError(err)
	_, err = store.Initialize(rand.Reader)
	require.NoError(err)
	require.NoError(store.Close())

	dir := t.TempDir()
	t.Setenv("WEB3C_TEST_PASSPHRASE", "hunter2")
	ks := &config.KeyStore{
		Path:          dir,
		PassphraseEnv: "WEB3C_TEST_PASSPHRASE",
	}

	store, err = openKeyStore(ks)
	require.NoError(err)
	kp, err := store.Initialize(rand.Reader)
	require.NoError(err)
	require.NoError(store.Close())

	store, err = openKeyStore(ks)
	require.NoError(err)
	kp2, err := store.Load()
	require.NoError(err)
	require.Equal(kp.PublicKey, kp2.PublicKey)
	require.NoError(store.Close())

	t.Setenv("WEB3C_TEST_PASSPHRASE", "hunter3")
	store, err = openKeyStore(ks)
	require.NoError(err)
	_, err = store.Load()
	require.ErrorIs(err, types.ErrAuthenticationFailure, "wrong passphrase should not unseal the identity")
	require.NoError(store.Close())
}

func TestEstablishIdentity(t *testing.T) {
	gw := config.Default.Gateway

	t.Run("InMemoryUsesMockKey", func(t *testing.T) {
		require := require.New(t)

		store, err := openKeyStore(&config.KeyStore{})
		require.NoError(err)
		defer store.Close()

		kp, err := establishIdentity(rand.Reader, store, &gw, &config.KeyStore{})
		require.NoError(err)
		require.Equal(sdkTesting.Gateway.KeyPair.PublicKey, kp.PublicKey)
	})

	t.Run("PersistentKeepsInitializedKey", func(t *testing.T) {
		require := require.New(t)

		ks := &config.KeyStore{Path: t.TempDir()}

		// keys init
		store, err := openKeyStore(ks)
		require.NoError(err)
		initialized, err := store.Initialize(rand.Reader)
		require.NoError(err)
		require.NoError(store.Close())

		// gateway serve with the default gateway section
		store, err = openKeyStore(ks)
		require.NoError(err)
		kp, err := establishIdentity(rand.Reader, store, &gw, ks)
		require.NoError(err)
		require.Equal(initialized.PublicKey, kp.PublicKey)
		require.NotEqual(sdkTesting.Gateway.KeyPair.PublicKey, kp.PublicKey)
		require.NoError(store.Close())
	})

	t.Run("ConfiguredKeyConflicts", func(t *testing.T) {
		require := require.New(t)

		ks := &config.KeyStore{Path: t.TempDir()}

		store, err := openKeyStore(ks)
		require.NoError(err)
		_, err = store.Initialize(rand.Reader)
		require.NoError(err)
		require.NoError(store.Close())

		store, err = openKeyStore(ks)
		require.NoError(err)
		defer store.Close()
		_, err = establishIdentity(rand.Reader, store, &config.Gateway{SecretKey: config.MockSecretKey}, ks)
		require.Error(err, "an explicitly configured key must not replace the persisted identity")
	})
}

func TestWithPersistentKeyStoreClosesOnError(t *testing.T) {
	require := require.New(t)

	saved := cfg
	t.Cleanup(func() { cfg = saved })

	cfg = &config.Config{}
	err := withPersistentKeyStore(func(*keystore.Store) (*types.KeyPair, error) {
		return nil, nil
	})
	require.Error(err, "keys commands need a persistent keystore")

	cfg = &config.Config{KeyStore: config.KeyStore{Path: t.TempDir()}}
	err = withPersistentKeyStore(func(store *keystore.Store) (*types.KeyPair, error) {
		return store.Load()
	})
	require.ErrorIs(err, types.ErrKeyNotInitialized)

	// Badger holds a directory lock until closed, so reopening proves the store was released.
	store, err := openKeyStore(&cfg.KeyStore)
	require.NoError(err)
	require.NoError(store.Close())
}
