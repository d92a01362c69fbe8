// Package main is the entry point for the oq command.
package main

import (
	"context"
	"os"

	"github.com/j-veylop/omni-quota/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
