package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperterse/sqltask/core/application/runner"
	"github.com/hyperterse/sqltask/core/application/template"
	"github.com/hyperterse/sqltask/core/domain"
	"github.com/hyperterse/sqltask/core/infrastructure/connections"
	"github.com/hyperterse/sqltask/core/infrastructure/hooks"
	"github.com/hyperterse/sqltask/core/logger"
	"github.com/hyperterse/sqltask/core/parser"
	apperrors "github.com/hyperterse/sqltask/core/shared/errors"
)

// LoadConfig reads and parses a YAML configuration file and substitutes
// environment placeholders in connection settings
func LoadConfig(filePath string) (*domain.Model, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrCodeConfigError, "error reading file", err)
	}
	return load(content)
}

// LoadConfigFromString parses a configuration given as a YAML string
func LoadConfigFromString(yamlContent string) (*domain.Model, error) {
	return load([]byte(yamlContent))
}

func load(content []byte) (*domain.Model, error) {
	model, err := parser.ParseYAML(content)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrCodeConfigError, "config error", err)
	}
	if err := parser.SubstituteEnvVarsInModel(model); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrCodeConfigError, "config error", err)
	}
	return model, nil
}

// ConfigDir returns the directory templates are resolved against
func ConfigDir(filePath string) string {
	if filePath == "" {
		return "."
	}
	return filepath.Dir(filePath)
}

// ResolveLogLevel resolves the log level from verbose flag, CLI flag, config file, or default
func ResolveLogLevel(verbose bool, cliLogLevel int, model *domain.Model) int {
	if verbose {
		return logger.LogLevelDebug
	}
	if cliLogLevel > 0 {
		return cliLogLevel
	}
	if model != nil && model.LogLevel > 0 {
		return model.LogLevel
	}
	return logger.LogLevelInfo
}

// Environment holds the collaborators a task run needs
type Environment struct {
	Connections *connections.Manager
	Hooks       *hooks.Factory
	Renderer    *template.Renderer
	Runner      *runner.Runner
}

// NewEnvironment wires connections, hooks, templates and the runner for model.
// A nil model yields an environment that only knows environment profiles.
func NewEnvironment(model *domain.Model, baseDir string) (*Environment, error) {
	if model == nil {
		model = &domain.Model{}
	}

	manager, err := connections.NewManager(model.Connections)
	if err != nil {
		return nil, fmt.Errorf("failed to register connections: %w", err)
	}

	factory := hooks.NewFactory(manager)
	renderer := template.NewRenderer(baseDir, model.TemplateSearchPath)

	return &Environment{
		Connections: manager,
		Hooks:       factory,
		Renderer:    renderer,
		Runner:      runner.New(factory, renderer),
	}, nil
}
