// Package bootstrap implements the startup orchestration sequence: a fixed,
// ordered list of idempotent setup steps executed fail-fast, followed by an
// in-place process handoff to the long-running server command.
//
// The orchestrator performs no retries and no rollback. Each step must be
// safe to re-run, which is what makes restarting the whole sequence after a
// failure (e.g. on container restart) correct.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/psm-app/psm/internal/logger"
	"github.com/psm-app/psm/internal/telemetry"
	"github.com/psm-app/psm/pkg/metrics"
)

// ErrNoCommand is returned by Exec when no command was supplied to hand
// off to after setup completed.
var ErrNoCommand = errors.New("no command to run after setup")

// Step is one setup operation. Run must be idempotent; the runner may be
// re-executed from the beginning at any time.
type Step struct {
	// Name identifies the step in logs and errors.
	Name string

	// Run executes the step. A non-nil error aborts the whole sequence.
	Run func(ctx context.Context) error
}

// StepError reports which step failed and wraps the underlying error.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("setup step %q failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Runner executes setup steps strictly in order.
type Runner struct {
	steps []Step

	// Metrics is optional; nil disables metrics collection.
	Metrics metrics.BootstrapMetrics
}

// NewRunner creates a Runner over the given steps. Step order is execution
// order.
func NewRunner(steps ...Step) *Runner {
	return &Runner{steps: steps}
}

// Run executes every step in order. The first failure aborts the sequence:
// no later step starts, and the failure is returned as a *StepError. Progress
// is logged before and after each step.
func (r *Runner) Run(ctx context.Context) error {
	for i, step := range r.steps {
		if err := ctx.Err(); err != nil {
			return &StepError{Step: step.Name, Err: err}
		}

		logger.Info("Running setup step", "step", step.Name, "index", i+1, "total", len(r.steps))

		if err := r.runStep(ctx, step); err != nil {
			logger.Error("Setup step failed", "step", step.Name, "error", err)
			return &StepError{Step: step.Name, Err: err}
		}

		logger.Info("Setup step complete", "step", step.Name)
	}
	return nil
}

func (r *Runner) runStep(ctx context.Context, step Step) error {
	ctx, span := telemetry.StartBootstrapSpan(ctx, step.Name)
	defer span.End()

	start := time.Now()
	err := step.Run(ctx)
	if r.Metrics != nil {
		r.Metrics.RecordStep(step.Name, time.Since(start), err)
	}
	if err != nil {
		telemetry.RecordError(ctx, err)
	}
	return err
}

// exitCoder is implemented by errors that carry a process exit code,
// notably *exec.ExitError.
type exitCoder interface {
	ExitCode() int
}

// ExitCode maps an orchestration error to the process exit code.
//
// A step that ran an external command propagates that command's exit code.
// A missing handoff command maps to 2. Any other failure maps to 1, and nil
// maps to 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, ErrNoCommand) {
		return 2
	}

	var coder exitCoder
	if errors.As(err, &coder) {
		if code := coder.ExitCode(); code > 0 {
			return code
		}
	}
	return 1
}
