// Package main provides the entry point for the tfindex CLI.
package main

import (
	"os"

	"github.com/Adithya-Monish-Kumar-K/tfindex/cmd/tfindex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
