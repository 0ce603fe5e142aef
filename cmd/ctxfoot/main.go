// Package main is the entry point for the ctxfoot CLI.
package main

import (
	"fmt"
	"os"

	"github.com/imyousuf/contextfootprint/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
