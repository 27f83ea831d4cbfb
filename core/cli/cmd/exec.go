package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperterse/sqltask/core/cli/internal"
	"github.com/hyperterse/sqltask/core/domain"
	"github.com/hyperterse/sqltask/core/logger"
	"github.com/hyperterse/sqltask/core/parser"
	sharedcontext "github.com/hyperterse/sqltask/core/shared/context"
	apperrors "github.com/hyperterse/sqltask/core/shared/errors"
)

var (
	execSQL        []string
	execConnID     string
	execAutocommit bool
	execParams     []string
	execArgs       []string
	execTaskID     string
)

// execCmd runs ad-hoc SQL through the same operator the configured tasks use
var execCmd = &cobra.Command{
	Use:   "exec",
	Short: "Execute SQL against a connection",
	Example: `  sqltask exec --conn-id warehouse --sql "DELETE FROM sessions WHERE id = :id" --param id=5
  SQLTASK_CONN_JDBC_DEFAULT=sqlite:///tmp/app.db sqltask exec --sql "VACUUM" --autocommit`,
	RunE:          execSQLTask,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(execCmd)

	execCmd.Flags().StringVarP(&configFile, "file", "f", "", "Configuration file providing connection profiles")
	execCmd.Flags().StringVarP(&source, "source", "s", "", "YAML configuration as a string (alternative to --file)")
	execCmd.Flags().StringArrayVar(&execSQL, "sql", nil, "Statement or .sql template to execute (repeatable, runs in order)")
	execCmd.Flags().StringVar(&execConnID, "conn-id", domain.DefaultConnID, "Connection profile id")
	execCmd.Flags().BoolVar(&execAutocommit, "autocommit", false, "Commit each statement as it executes")
	execCmd.Flags().StringArrayVar(&execParams, "param", nil, "Named parameter as name=value, bound to :name (repeatable). Write '10::30' for a literal colon in SQL text")
	execCmd.Flags().StringArrayVar(&execArgs, "arg", nil, "Positional parameter value (repeatable)")
	execCmd.Flags().StringVar(&execTaskID, "task-id", "adhoc", "Task id used in logs and templates")
	_ = execCmd.MarkFlagRequired("sql")
}

func execSQLTask(cmd *cobra.Command, args []string) error {
	model, baseDir, err := loadModel("exec", false)
	if err != nil {
		return err
	}

	params, err := parseParameters(execParams, execArgs)
	if err != nil {
		return logger.WithTag("exec", apperrors.WrapError(apperrors.ErrCodeConfigError, "invalid parameters", err))
	}

	env, err := internal.NewEnvironment(model, baseDir)
	if err != nil {
		return logger.WithTag("exec", apperrors.WrapError(apperrors.ErrCodeConfigError, "config error", err))
	}

	def := &domain.TaskDefinition{
		ID:         execTaskID,
		SQL:        domain.SQL(execSQL),
		ConnID:     execConnID,
		Autocommit: execAutocommit,
		Parameters: params,
	}

	if err := parser.ValidateTask(def); err != nil {
		return logger.WithTag("exec", apperrors.WrapError(apperrors.ErrCodeValidationError, "invalid task", err))
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := setupObservability(ctx)
	if err != nil {
		return err
	}
	defer shutdown()

	now := time.Now()
	tc := domain.TaskContext{RunID: sharedcontext.GenerateRunID(now), LogicalDate: now}
	if err := env.Runner.RunTask(ctx, def, tc); err != nil {
		return logger.WithTag("task:"+execTaskID, apperrors.WrapError(apperrors.ErrCodeExecutionFailed,
			fmt.Sprintf("task '%s' failed", execTaskID), err))
	}
	return nil
}

// parseParameters builds named parameters from name=value pairs or
// positional parameters from bare values. Mixing both is an error.
func parseParameters(named, positional []string) (domain.Parameters, error) {
	if len(named) > 0 && len(positional) > 0 {
		return domain.Parameters{}, fmt.Errorf("--param and --arg cannot be combined")
	}

	if len(named) > 0 {
		values := make(map[string]any, len(named))
		for _, pair := range named {
			name, raw, ok := strings.Cut(pair, "=")
			name = strings.TrimSpace(name)
			if !ok || name == "" {
				return domain.Parameters{}, fmt.Errorf("parameter %q must be in name=value form", pair)
			}
			values[name] = parseValue(raw)
		}
		return domain.Named(values), nil
	}

	if len(positional) > 0 {
		values := make([]any, 0, len(positional))
		for _, raw := range positional {
			values = append(values, parseValue(raw))
		}
		return domain.Positional(values...), nil
	}

	return domain.Parameters{}, nil
}

var (
	decimalInt   = regexp.MustCompile(`^-?(0|[1-9][0-9]*)$`)
	decimalFloat = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][-+]?[0-9]+)?$`)
)

// parseValue types a command line value. Only plain decimal numbers, true,
// false and null are converted; anything else (leading zeros, hex, inf) is
// bound as the text given.
func parseValue(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if decimalInt.MatchString(raw) {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
		return raw
	}
	if decimalFloat.MatchString(raw) {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	}
	return raw
}
