// Command tokenseal encrypts files into token-gated containers and decrypts
// them for authorized senders.
package main

import (
	"fmt"
	"os"

	"github.com/idelchi/tokenseal/internal/commands"
	"github.com/idelchi/tokenseal/internal/config"
)

// Global variable for CI stamping.
var version = "unknown - unofficial & generated by unknown"

func main() {
	var cfg config.Config

	root := commands.NewRootCommand(&cfg, version)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
