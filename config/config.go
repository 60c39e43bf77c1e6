// Package config contains the gateway configuration.
package config

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/oasisprotocol/oasis-core/go/common/logging"

	"github.com/oasisprotocol/web3c-go/types"
)

// Directory returns the path to the configuration directory.
func Directory() string {
	return filepath.Join(xdg.ConfigHome, "web3c")
}

// Config contains the gateway configuration.
type Config struct {
	Gateway  Gateway  `mapstructure:"gateway"`
	KeyStore KeyStore `mapstructure:"keystore"`
	Log      Log      `mapstructure:"log"`
	Metrics  Metrics  `mapstructure:"metrics"`
}

// Load loads the configuration from viper on top of the defaults.
func Load(v *viper.Viper) (*Config, error) {
	cfg := Default
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate performs config validation.
func (cfg *Config) Validate() error {
	if err := cfg.Gateway.Validate(); err != nil {
		return fmt.Errorf("failed to validate gateway configuration: %w", err)
	}
	if err := cfg.Log.Validate(); err != nil {
		return fmt.Errorf("failed to validate log configuration: %w", err)
	}
	if err := cfg.Metrics.Validate(); err != nil {
		return fmt.Errorf("failed to validate metrics configuration: %w", err)
	}
	return nil
}

// Gateway contains the mock gateway configuration.
type Gateway struct {
	// Address is the address the gateway listens on.
	Address string `mapstructure:"address"`

	// SecretKey is the hex-encoded X25519 secret key of the gateway.
	//
	// When empty, the identity stored in the keystore is used and generated if missing. An
	// in-memory keystore uses MockSecretKey instead.
	SecretKey string `mapstructure:"secret_key,omitempty"`

	// AttestationKey is the hex-encoded secp256k1 key signing handed out public keys.
	//
	// When empty, an ephemeral key is generated on startup.
	AttestationKey string `mapstructure:"attestation_key,omitempty"`

	// ShutdownTimeout bounds the graceful shutdown of the HTTP server.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// Responses is the path of a YAML canned response table overriding the built-in one.
	Responses string `mapstructure:"responses,omitempty"`
}

// Validate performs config validation.
func (g *Gateway) Validate() error {
	if g.Address == "" {
		return fmt.Errorf("address must be set")
	}
	if g.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}
	if _, err := g.ParseSecretKey(); err != nil {
		return err
	}
	if _, err := g.ParseAttestationKey(); err != nil {
		return err
	}
	return nil
}

// ParseSecretKey returns the configured gateway key pair or nil if none is configured.
func (g *Gateway) ParseSecretKey() (*types.KeyPair, error) {
	if g.SecretKey == "" {
		return nil, nil
	}
	var sk types.SecretKey
	if err := sk.UnmarshalText([]byte(g.SecretKey)); err != nil {
		return nil, fmt.Errorf("malformed secret key: %w", err)
	}
	return types.NewKeyPair(sk), nil
}

// ParseAttestationKey returns the configured attestation key or nil if none is configured.
func (g *Gateway) ParseAttestationKey() (*ecdsa.PrivateKey, error) {
	if g.AttestationKey == "" {
		return nil, nil
	}
	sk, err := crypto.HexToECDSA(strings.TrimPrefix(g.AttestationKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("malformed attestation key: %w", err)
	}
	return sk, nil
}

// KeyStore contains the keystore configuration.
type KeyStore struct {
	// Path is the directory of the persistent keystore. An empty path keeps keys in memory.
	Path string `mapstructure:"path,omitempty"`

	// PassphraseEnv names the environment variable holding the passphrase sealing the
	// persisted identity. The identity is stored unsealed when the variable is unset.
	PassphraseEnv string `mapstructure:"passphrase_env,omitempty"`
}

// Passphrase returns the keystore passphrase from the environment.
func (ks *KeyStore) Passphrase() string {
	if ks.PassphraseEnv == "" {
		return ""
	}
	return os.Getenv(ks.PassphraseEnv)
}

// Log contains the logging configuration.
type Log struct {
	// Level is the log level (debug, info, warn, error).
	Level string `mapstructure:"level"`
	// Format is the log format (logfmt, json).
	Format string `mapstructure:"format"`
}

// Validate performs config validation.
func (l *Log) Validate() error {
	_, _, err := l.Parse()
	return err
}

// Parse returns the configured log format and level.
func (l *Log) Parse() (logging.Format, logging.Level, error) {
	var (
		format logging.Format
		level  logging.Level
	)
	if err := format.Set(l.Format); err != nil {
		return format, level, fmt.Errorf("malformed log format '%s': %w", l.Format, err)
	}
	if err := level.Set(l.Level); err != nil {
		return format, level, fmt.Errorf("malformed log level '%s': %w", l.Level, err)
	}
	return format, level, nil
}

// Metrics contains the metrics configuration.
type Metrics struct {
	// Push configures pushing metrics to a Prometheus push gateway on shutdown.
	Push MetricsPush `mapstructure:"push"`
}

// MetricsPush contains the Prometheus push gateway configuration.
type MetricsPush struct {
	Address       string `mapstructure:"address,omitempty"`
	JobName       string `mapstructure:"job_name,omitempty"`
	InstanceLabel string `mapstructure:"instance_label,omitempty"`
}

// Enabled returns true iff metrics should be pushed.
func (p *MetricsPush) Enabled() bool {
	return p.Address != ""
}

// Validate performs config validation.
func (m *Metrics) Validate() error {
	if !m.Push.Enabled() {
		return nil
	}
	if strings.TrimSpace(m.Push.JobName) == "" {
		return fmt.Errorf("job_name required for metrics push mode")
	}
	if strings.TrimSpace(m.Push.InstanceLabel) == "" {
		return fmt.Errorf("instance_label required for metrics push mode")
	}
	return nil
}
