package main

import (
	"fmt"
	"os"

	"github.com/trebuchet-org/sling/internal/cli"
	"github.com/trebuchet-org/sling/internal/config"
)

// Set with -ldflags at build time
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	config.SetBuildFlags(version, commit, date)

	rootCmd := cli.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
