// Package main provides the drugtree command-line browser for drug
// registry exports.
package main

import (
	"os"

	"github.com/Dainanahan/drugtree/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
