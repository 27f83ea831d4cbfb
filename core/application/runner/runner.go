// Package runner turns task definitions into SQL operators and executes them
// with the task's retry policy.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperterse/sqltask/core/application/operator"
	"github.com/hyperterse/sqltask/core/application/template"
	"github.com/hyperterse/sqltask/core/domain"
	"github.com/hyperterse/sqltask/core/domain/interfaces"
	"github.com/hyperterse/sqltask/core/infrastructure/logging"
	"github.com/hyperterse/sqltask/core/observability"
	sharedcontext "github.com/hyperterse/sqltask/core/shared/context"
)

// Renderer resolves templates in task SQL
type Renderer interface {
	Render(sql domain.SQL, tc domain.TaskContext) (domain.SQL, error)
}

// Runner executes task definitions
type Runner struct {
	hooks    interfaces.HookFactory
	renderer Renderer
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
	log      interfaces.Logger
}

// Option configures a Runner
type Option func(*Runner)

// WithLogger replaces the runner logger; operators use the same logger
func WithLogger(log interfaces.Logger) Option {
	return func(r *Runner) {
		r.log = log
	}
}

// New creates a runner. A nil renderer renders relative to the working directory.
func New(hooks interfaces.HookFactory, renderer Renderer, opts ...Option) *Runner {
	if renderer == nil {
		renderer = template.NewRenderer(".", nil)
	}
	r := &Runner{
		hooks:    hooks,
		renderer: renderer,
		sleep:    sleepContext,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunTask executes def, retrying up to def.Retries times with def.RetryDelay
// between attempts. The error of the last attempt is returned unchanged.
func (r *Runner) RunTask(ctx context.Context, def *domain.TaskDefinition, tc domain.TaskContext) error {
	if err := def.Validate(); err != nil {
		return err
	}

	log := r.log
	if log == nil {
		log = logging.New("runner")
	}

	tc.TaskID = def.ID
	if tc.TryNumber < 1 {
		tc.TryNumber = 1
	}
	attempts := def.Retries + 1

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = r.attempt(ctx, def, tc)
		if err == nil {
			log.Successf("Task '%s' succeeded on try %d", def.ID, tc.TryNumber)
			return nil
		}

		if attempt == attempts {
			break
		}
		log.Warnf("Task '%s' failed on try %d: %v. Retrying in %s", def.ID, tc.TryNumber, err, def.RetryDelay)
		if sleepErr := r.sleep(ctx, def.RetryDelay); sleepErr != nil {
			return err
		}
		tc.TryNumber++
	}

	log.Errorf("Task '%s' failed after %d try(s): %v", def.ID, attempts, err)
	return err
}

func (r *Runner) attempt(ctx context.Context, def *domain.TaskDefinition, tc domain.TaskContext) error {
	ctx = sharedcontext.WithTaskContext(ctx, tc)

	sql, err := r.renderer.Render(def.SQL, tc)
	if err != nil {
		return fmt.Errorf("failed to render sql for task '%s': %w", def.ID, err)
	}

	opts := []operator.Option{
		operator.WithConnID(def.ConnID),
		operator.WithAutocommit(def.Autocommit),
		operator.WithParameters(def.Parameters),
	}
	if r.log != nil {
		opts = append(opts, operator.WithLogger(r.log))
	}
	op, err := operator.New(def.ID, sql, r.hooks, opts...)
	if err != nil {
		return err
	}

	ctx, span := observability.StartTaskSpan(ctx, observability.TaskSpan{
		Context:    tc,
		ConnID:     op.ConnID(),
		Autocommit: op.Autocommit(),
		SQL:        sql,
		Parameters: op.Parameters(),
	})
	started := r.now()

	err = op.Execute(ctx)

	observability.RecordTaskExecution(ctx, def.ID, op.ConnID(), err == nil, r.now().Sub(started))
	observability.EndTaskSpan(span, err)
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ interfaces.TaskRunner = (*Runner)(nil)
