package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperterse/sqltask/core/cli/internal"
	"github.com/hyperterse/sqltask/core/domain"
	"github.com/hyperterse/sqltask/core/logger"
	"github.com/hyperterse/sqltask/core/observability"
	sharedcontext "github.com/hyperterse/sqltask/core/shared/context"
	apperrors "github.com/hyperterse/sqltask/core/shared/errors"
)

var (
	runID           string
	logicalDate     string
	metricsTextfile string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [task...]",
	Short: "Run tasks from a configuration file",
	Long: `Run the named tasks, or every task in the configuration when none are
given. Tasks run one after another in name order and the run stops at the
first task that fails after its retries.`,
	RunE:          runTasks,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&configFile, "file", "f", "", "Path to the configuration file (default sqltask.yaml)")
	runCmd.Flags().StringVarP(&source, "source", "s", "", "YAML configuration as a string (alternative to --file)")
	runCmd.Flags().StringVar(&runID, "run-id", "", "Run id exposed to templates as {{ run_id }} (default manual__<now>)")
	runCmd.Flags().StringVar(&logicalDate, "logical-date", "", "Logical date as YYYY-MM-DD or RFC3339, exposed as {{ ds }} and {{ ts }} (default now)")
	runCmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics for this run to a textfile collector file")
}

func runTasks(cmd *cobra.Command, args []string) error {
	model, baseDir, err := loadModel("run", true)
	if err != nil {
		return err
	}
	if err := validateModel("run", model); err != nil {
		return err
	}

	tasks, err := selectTasks(model, args)
	if err != nil {
		return logger.WithTag("run", err)
	}

	now := time.Now()
	date, err := parseLogicalDate(logicalDate, now)
	if err != nil {
		return logger.WithTag("run", apperrors.WrapError(apperrors.ErrCodeConfigError, "invalid --logical-date", err))
	}
	id := runID
	if id == "" {
		id = sharedcontext.GenerateRunID(now)
	}

	env, err := internal.NewEnvironment(model, baseDir)
	if err != nil {
		return logger.WithTag("run", apperrors.WrapError(apperrors.ErrCodeConfigError, "config error", err))
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = sharedcontext.WithRunID(ctx, id)

	shutdown, err := setupObservability(ctx)
	if err != nil {
		return err
	}
	defer shutdown()

	log := logger.New("run")
	log.Infof("Run %s: %s", id, pluralize(len(tasks), "task"))

	runErr := func() error {
		for _, task := range tasks {
			tc := domain.TaskContext{RunID: id, LogicalDate: date}
			if err := env.Runner.RunTask(ctx, task, tc); err != nil {
				return logger.WithTag("task:"+task.ID, apperrors.WrapError(apperrors.ErrCodeExecutionFailed,
					fmt.Sprintf("task '%s' failed", task.ID), err))
			}
		}
		return nil
	}()

	if metricsTextfile != "" {
		if err := observability.WriteTextfile(metricsTextfile); err != nil {
			log.Warnf("%v", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	log.Successf("Run %s completed: %s", id, pluralize(len(tasks), "task"))
	return nil
}

// selectTasks returns the named tasks in the order given, or all tasks in
// name order when names is empty
func selectTasks(model *domain.Model, names []string) ([]*domain.TaskDefinition, error) {
	if len(names) == 0 {
		return model.Tasks, nil
	}

	selected := make([]*domain.TaskDefinition, 0, len(names))
	for _, name := range names {
		task, ok := model.Task(name)
		if !ok {
			return nil, apperrors.NewAppError(apperrors.ErrCodeTaskNotFound, fmt.Sprintf("task '%s' not found", name), nil)
		}
		selected = append(selected, task)
	}
	return selected, nil
}

// parseLogicalDate accepts YYYY-MM-DD or RFC3339; empty means now
func parseLogicalDate(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return now, nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
