package main

import (
	"os"

	"github.com/oasisprotocol/web3c-go/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
