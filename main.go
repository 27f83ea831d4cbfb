package main

import (
	"os"

	"github.com/hyperterse/sqltask/core/cli"
	"github.com/hyperterse/sqltask/core/cli/cmd"
	apperrors "github.com/hyperterse/sqltask/core/shared/errors"
)

// Version can be set at build time using -ldflags
var Version = "dev"

func init() {
	// Set the version in cmd package so it can be accessed by commands
	cmd.SetVersion(Version)
}

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(apperrors.ExitCode(err))
	}
}
