package main

import (
	"os"

	"github.com/aryanjp1/mcp-test-framework/internal/cli"
)

// Overridden at build time via -ldflags.
var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
