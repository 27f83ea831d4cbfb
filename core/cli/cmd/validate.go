package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperterse/sqltask/core/cli/internal"
	"github.com/hyperterse/sqltask/core/domain"
	"github.com/hyperterse/sqltask/core/logger"
	apperrors "github.com/hyperterse/sqltask/core/shared/errors"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a configuration file",
	Long: `Validate a configuration file without touching any database.
Checks field rules, connection references and that every SQL template
resolves and renders.`,
	Args:          cobra.MaximumNArgs(1),
	RunE:          validateConfig,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&configFile, "file", "f", "", "Path to the configuration file (default sqltask.yaml)")
	validateCmd.Flags().StringVarP(&source, "source", "s", "", "YAML configuration as a string (alternative to --file)")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		if configFile != "" && configFile != args[0] {
			return logger.WithTag("validate", apperrors.NewAppError(apperrors.ErrCodeConfigError,
				"cannot specify both a path argument and --file", nil))
		}
		configFile = args[0]
	}

	model, baseDir, err := loadModel("validate", true)
	if err != nil {
		return err
	}
	if err := validateModel("validate", model); err != nil {
		return err
	}

	env, err := internal.NewEnvironment(model, baseDir)
	if err != nil {
		return logger.WithTag("validate", apperrors.WrapError(apperrors.ErrCodeConfigError, "config error", err))
	}

	if err := checkTemplates(env, model.Tasks); err != nil {
		return logger.WithTag("validate", err)
	}

	log := logger.New("validate")
	for _, dir := range env.Renderer.SearchPath() {
		log.Debugf("  Template search path: %s", displayPath(baseDir, dir))
	}
	log.Successf("Configuration '%s' is valid: %s, %s", model.Name,
		pluralize(len(model.Connections), "connection"), pluralize(len(model.Tasks), "task"))
	return nil
}

// checkTemplates renders every task with a sample context so missing files
// and unknown variables surface before a run
func checkTemplates(env *internal.Environment, tasks []*domain.TaskDefinition) error {
	now := time.Now()
	var errs []string
	for _, task := range tasks {
		tc := domain.TaskContext{RunID: "validate", TaskID: task.ID, TryNumber: 1, LogicalDate: now}
		if _, err := env.Renderer.Render(task.SQL, tc); err != nil {
			errs = append(errs, fmt.Sprintf("Task '%s' - %v", task.ID, err))
		}
	}
	if len(errs) == 0 {
		return nil
	}

	logger.New("validate").PrintValidationErrors(errs)
	return apperrors.NewAppError(apperrors.ErrCodeValidationError,
		fmt.Sprintf("%s failed to render", pluralize(len(errs), "task")), nil)
}
