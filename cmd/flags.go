package cmd

import (
	flag "github.com/spf13/pflag"

	"github.com/oasisprotocol/web3c-go/config"
)

// gatewayFlags contains the flags of the gateway serve command.
var gatewayFlags = func() *flag.FlagSet {
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.String("address", config.Default.Gateway.Address, "address to listen on")
	return fs
}()

func lookupFlag(name string) *flag.Flag {
	if f := rootCmd.PersistentFlags().Lookup(name); f != nil {
		return f
	}
	return gatewayFlags.Lookup(name)
}
