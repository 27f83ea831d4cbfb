package cli

import (
	"github.com/hyperterse/sqltask/core/cli/cmd"
	"github.com/hyperterse/sqltask/core/logger"
)

// Execute runs the CLI
func Execute() error {
	defer func() { _ = logger.CloseLogFile() }()

	if err := cmd.Execute(); err != nil {
		tag := logger.ErrorTag(err)
		if tag == "" {
			tag = "cli"
		}
		logger.New(tag).Error(err.Error())
		return err
	}
	return nil
}
