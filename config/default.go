package config

import "time"

// MockSecretKey is the well-known X25519 secret key of the mock gateway.
//
// It is only installed when neither a secret key nor a persistent keystore is configured.
const MockSecretKey = "0x263357bd55c11524811cccf8c9303e3298dd71abeb1b20f3ea7db07655dba9e9"

// Default is the default config that should be used in case no configuration file exists.
var Default = Config{
	Gateway: Gateway{
		Address:         "127.0.0.1:8545",
		ShutdownTimeout: 5 * time.Second,
	},
	KeyStore: KeyStore{
		PassphraseEnv: "WEB3C_KEYSTORE_PASSPHRASE",
	},
	Log: Log{
		Level:  "info",
		Format: "logfmt",
	},
}
