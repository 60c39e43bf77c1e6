package cmd

import (
	"crypto/rand"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oasisprotocol/web3c-go/keystore"
	"github.com/oasisprotocol/web3c-go/types"
)

var (
	keysCmd = &cobra.Command{
		Use:   "keys",
		Short: "Manage the keystore identity",
	}

	keysInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Generate and persist a new identity unless one exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPersistentKeyStore(func(store *keystore.Store) (*types.KeyPair, error) {
				return store.Initialize(rand.Reader)
			})
		},
	}

	keysShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the public key of the persisted identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPersistentKeyStore(func(store *keystore.Store) (*types.KeyPair, error) {
				return store.Load()
			})
		},
	}
)

func withPersistentKeyStore(fn func(*keystore.Store) (*types.KeyPair, error)) error {
	if cfg.KeyStore.Path == "" {
		return fmt.Errorf("keystore path must be set")
	}

	store, err := openKeyStore(&cfg.KeyStore)
	if err != nil {
		return err
	}
	defer store.Close()

	kp, err := fn(store)
	if err != nil {
		return err
	}

	// The secret key is never serialized to JSON.
	out, err := json.MarshalIndent(kp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func init() {
	keysCmd.AddCommand(keysInitCmd)
	keysCmd.AddCommand(keysShowCmd)
}
