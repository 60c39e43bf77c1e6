package cmd

import (
	"fmt"
	"io"

	"github.com/oasisprotocol/web3c-go/config"
	"github.com/oasisprotocol/web3c-go/keystore"
	"github.com/oasisprotocol/web3c-go/types"
)

// openKeyStore opens the keystore described by the configuration.
func openKeyStore(ks *config.KeyStore) (*keystore.Store, error) {
	var backend keystore.Backend
	switch ks.Path {
	case "":
		backend = keystore.NewMemoryBackend()
	default:
		var err error
		if backend, err = keystore.NewBadgerBackend(ks.Path); err != nil {
			return nil, err
		}
	}

	var opts []keystore.Option
	if passphrase := ks.Passphrase(); passphrase != "" {
		opts = append(opts, keystore.WithPassphrase(passphrase))
	}
	return keystore.New(backend, opts...), nil
}

// establishIdentity installs the gateway identity into the store.
//
// An explicitly configured secret key is imported. Otherwise a persistent keystore keeps
// whatever identity it holds and generates one if missing, while an in-memory keystore
// gets the well-known mock key.
func establishIdentity(rand io.Reader, store *keystore.Store, gw *config.Gateway, ks *config.KeyStore) (*types.KeyPair, error) {
	kp, err := gw.ParseSecretKey()
	if err != nil {
		return nil, err
	}
	if kp == nil && ks.Path == "" {
		mock := config.Gateway{SecretKey: config.MockSecretKey}
		if kp, err = mock.ParseSecretKey(); err != nil {
			return nil, err
		}
	}

	switch kp {
	case nil:
		kp, err = store.Initialize(rand)
	default:
		err = store.Import(rand, kp)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to establish gateway identity: %w", err)
	}
	return kp, nil
}
