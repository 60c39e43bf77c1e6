// Package cmd implements the web3c command line interface.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oasisprotocol/oasis-core/go/common/logging"

	"github.com/oasisprotocol/web3c-go/config"
)

const configName = "gateway"

var (
	cfgFile string
	cfg     *config.Config

	rootCmd = &cobra.Command{
		Use:     "web3c",
		Short:   "Confidential web3 gateway tooling",
		Version: "0.1.0",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	v := viper.New()

	if cfgFile != "" {
		// Use config file from the flag.
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(config.Directory())
		v.SetConfigType("toml")
		v.SetConfigName(configName)
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing default config file is fine, defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			cobra.CheckErr(fmt.Errorf("failed to read configuration: %w", err))
		}
	}

	for key, flag := range map[string]string{
		"log.level":       "log.level",
		"log.format":      "log.format",
		"gateway.address": "address",
		"keystore.path":   "keystore",
	} {
		if f := lookupFlag(flag); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}

	var err error
	cfg, err = config.Load(v)
	cobra.CheckErr(err)

	format, level, err := cfg.Log.Parse()
	cobra.CheckErr(err)
	err = logging.Initialize(os.Stdout, format, level, nil)
	cobra.CheckErr(err)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file to use")
	rootCmd.PersistentFlags().String("log.level", config.Default.Log.Level, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log.format", config.Default.Log.Format, "log format (logfmt, json)")
	rootCmd.PersistentFlags().String("keystore", config.Default.KeyStore.Path, "keystore directory (in-memory if empty)")

	rootCmd.AddCommand(gatewayCmd)
	rootCmd.AddCommand(keysCmd)
}
