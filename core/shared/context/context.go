package context

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperterse/sqltask/core/domain"
)

type contextKey string

const (
	taskContextKey contextKey = "task_context"
	runIDKey       contextKey = "run_id"
)

// WithTaskContext attaches the execution context of a task attempt to ctx
func WithTaskContext(ctx context.Context, tc domain.TaskContext) context.Context {
	ctx = context.WithValue(ctx, runIDKey, tc.RunID)
	return context.WithValue(ctx, taskContextKey, tc)
}

// GetTaskContext retrieves the task execution context from ctx
func GetTaskContext(ctx context.Context) (domain.TaskContext, bool) {
	tc, ok := ctx.Value(taskContextKey).(domain.TaskContext)
	return tc, ok
}

// WithRunID adds a run ID to the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// GetRunID retrieves the run ID from context
func GetRunID(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// GenerateRunID returns a run id for a manually triggered run at t
func GenerateRunID(t time.Time) string {
	return fmt.Sprintf("manual__%s", t.UTC().Format(time.RFC3339))
}
