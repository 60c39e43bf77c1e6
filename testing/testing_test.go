package testing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTestKeys(t *testing.T) {
	require := require.New(t)

	seen := make(map[string]bool)
	for _, tk := range TestAccounts {
		require.NoError(tk.KeyPair.Validate())

		pk := tk.KeyPair.PublicKey.String()
		require.False(seen[pk], "test keys should be distinct")
		seen[pk] = true
		require.NotEqual([20]byte{}, [20]byte(tk.Address))
	}
}
