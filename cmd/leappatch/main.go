// Package main provides the leappatch CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/leappatch/internal/cli"
	"github.com/leapstack-labs/leappatch/internal/cli/commands"
)

func main() {
	os.Exit(commands.ExitCode(cli.Execute()))
}
