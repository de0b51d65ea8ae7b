// Package main provides the SheetQL command-line tool.
package main

import (
	"os"

	"github.com/leapstack-labs/sheetql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
