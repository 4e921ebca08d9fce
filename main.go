// Copyright (c) 2025 Latchkey Authors
// Latchkey - typestate password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for Latchkey.
//
// Usage:
//
//	go run . [flags]
//	./latchkey [flags]
//
// This launches the Latchkey CLI. See --help for options.
package main

import (
	"fmt"
	"os"

	"github.com/latchkey-dev/latchkey/ui/cli"
)

// main is the entrypoint for the Latchkey CLI.
func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
