package interfaces

import (
	"context"

	"github.com/hyperterse/sqltask/core/domain"
)

// TaskRunner executes task definitions on behalf of the CLI
type TaskRunner interface {
	// RunTask renders, builds and executes a task definition, applying its retry policy
	RunTask(ctx context.Context, def *domain.TaskDefinition, tc domain.TaskContext) error
}
