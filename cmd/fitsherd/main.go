// Package main provides the entry point for the fitsherd CLI.
package main

import (
	"os"

	"github.com/fitsherd/fitsherd/cmd/fitsherd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
