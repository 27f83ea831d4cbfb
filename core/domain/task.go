package domain

import (
	"context"
	"time"
)

// Task is anything the runner can execute. Implementations receive the
// execution context of the current run through ctx.
type Task interface {
	Execute(ctx context.Context) error
}

// TaskDefinition is the declarative form of a SQL task as read from configuration
type TaskDefinition struct {
	ID         string        `validate:"required,identifier"`
	SQL        SQL           `validate:"required,min=1,dive,required"`
	ConnID     string        `validate:"omitempty,identifier"`
	Autocommit bool          `validate:"-"`
	Parameters Parameters    `validate:"-"`
	Retries    int           `validate:"gte=0"`
	RetryDelay time.Duration `validate:"gte=0"`
}

// TaskContext describes a single execution attempt of a task
type TaskContext struct {
	RunID       string
	TaskID      string
	TryNumber   int
	LogicalDate time.Time
}

// Validate validates the task definition
func (t *TaskDefinition) Validate() error {
	if t == nil {
		return ErrInvalidTask
	}
	if t.ID == "" {
		return ErrInvalidTaskID
	}
	if len(t.SQL) == 0 {
		return ErrInvalidTaskSQL
	}
	return nil
}

// Domain errors
var (
	ErrInvalidTask    = &DomainError{Message: "task cannot be nil"}
	ErrInvalidTaskID  = &DomainError{Message: "task id cannot be empty"}
	ErrInvalidTaskSQL = &DomainError{Message: "task sql cannot be empty"}
)

// DomainError represents a domain-level error
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}
