// Package saga runs multi-step store mutations that cannot share a transaction,
// undoing completed steps when a later one fails.
package saga

import (
	"context"
	"errors"
	"fmt"
)

// Step is one forward action and the action that undoes it. Compensate may be
// nil for steps that need no undo, typically the last one.
type Step struct {
	Name       string
	Action     func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// StepError reports which step failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Run executes steps in order. When one fails, the compensations of the steps
// that already succeeded run in reverse order. The returned error wraps the
// failure and every compensation failure joined together.
func Run(ctx context.Context, steps ...Step) error {
	for i, step := range steps {
		if err := step.Action(ctx); err != nil {
			failure := error(&StepError{Step: step.Name, Err: err})
			if compErr := compensate(context.WithoutCancel(ctx), steps[:i]); compErr != nil {
				return errors.Join(failure, compErr)
			}
			return failure
		}
	}
	return nil
}

func compensate(ctx context.Context, done []Step) error {
	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("compensate %s: %w", step.Name, err))
		}
	}
	return errors.Join(errs...)
}
