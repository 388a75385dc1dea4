// bridgectl is a command-line client for the bridge deposit/withdrawal API.
// Usage: go run ./cmd/bridgectl assets
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
