package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hyperterse/sqltask/core/cli/internal"
	"github.com/hyperterse/sqltask/core/domain"
	"github.com/hyperterse/sqltask/core/logger"
	"github.com/hyperterse/sqltask/core/observability"
	"github.com/hyperterse/sqltask/core/parser"
	apperrors "github.com/hyperterse/sqltask/core/shared/errors"
)

const defaultConfigFile = "sqltask.yaml"

// loadModel loads the configuration selected by --file or --source. When
// neither is set and required is false, a nil model is returned.
func loadModel(tag string, required bool) (*domain.Model, string, error) {
	if source != "" && configFile != "" {
		return nil, "", logger.WithTag(tag, apperrors.NewAppError(apperrors.ErrCodeConfigError,
			"cannot specify both --file and --source flags", nil))
	}

	var (
		model   *domain.Model
		baseDir = "."
		err     error
	)
	switch {
	case source != "":
		LoadEnvFiles("")
		model, err = internal.LoadConfigFromString(source)
	case configFile != "" || required:
		path := configFile
		if path == "" {
			path = defaultConfigFile
		}
		baseDir = internal.ConfigDir(path)
		LoadEnvFiles(baseDir)
		model, err = internal.LoadConfig(path)
	default:
		LoadEnvFiles("")
		return nil, baseDir, nil
	}
	if err != nil {
		return nil, "", logger.WithTag(tag, err)
	}

	if logLevel == 0 && !verbose {
		logger.SetLogLevel(internal.ResolveLogLevel(verbose, logLevel, model))
	}

	log := logger.New(tag)
	log.Debugf("Configuration loaded: %d connection(s), %d task(s)", len(model.Connections), len(model.Tasks))
	for _, conn := range model.Connections {
		log.Debugf("  Connection: %s (%s)", conn.Name, conn.Connector)
	}

	return model, baseDir, nil
}

// validateModel runs the parser validation and maps failures to a validation error
func validateModel(tag string, model *domain.Model) error {
	if err := parser.Validate(model); err != nil {
		return logger.WithTag(tag, apperrors.WrapError(apperrors.ErrCodeValidationError, "validation failed", err))
	}
	return nil
}

// setupObservability installs the telemetry providers and returns a func that
// flushes them
func setupObservability(ctx context.Context) (func(), error) {
	providers, err := observability.Setup(ctx, version)
	if err != nil {
		return nil, logger.WithTag("observability", err)
	}
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.New("observability").Warnf("Shutdown failed: %v", err)
		}
	}, nil
}

func displayPath(baseDir, target string) string {
	rel, err := filepath.Rel(baseDir, target)
	if err != nil {
		return target
	}
	return rel
}

func pluralize(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
