package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jcmexdev/ecommerce-checkout/internal/coordinator/txlog"
)

const tracerName = "github.com/jcmexdev/ecommerce-checkout/internal/coordinator"

// Step is a single unit of work in a checkout. Compensate must undo whatever
// a successful Execute changed.
type Step interface {
	Name() string
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
}

// Orchestrator runs steps in order for one transaction.
type Orchestrator struct {
	id    string
	steps []Step
	log   txlog.Repository
}

// NewOrchestrator wires the steps of transaction id. repo may be nil, in
// which case transitions are not persisted.
func NewOrchestrator(id string, steps []Step, repo txlog.Repository) *Orchestrator {
	return &Orchestrator{id: id, steps: steps, log: repo}
}

// Start runs the steps sequentially. When one fails, every step that already
// succeeded is compensated in reverse order and the step's error is returned.
func (o *Orchestrator) Start(ctx context.Context, payload string) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "checkout")
	defer span.End()
	span.SetAttributes(attribute.String("checkout.id", o.id))

	o.record(ctx, txlog.StatusStarted, "", payload, nil)

	var done []Step
	for _, step := range o.steps {
		slog.DebugContext(ctx, "executing step", "checkout_id", o.id, "step", step.Name())

		if err := o.execute(ctx, step); err != nil {
			slog.InfoContext(ctx, "step failed, rolling back",
				"checkout_id", o.id, "step", step.Name(), "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, step.Name())

			o.record(ctx, txlog.StatusCompensating, step.Name(), "", []string{err.Error()})
			compErrs := o.rollback(ctx, done)

			msgs := []string{err.Error()}
			for _, ce := range compErrs {
				msgs = append(msgs, ce.Error())
			}
			o.record(ctx, txlog.StatusFailed, step.Name(), "", msgs)

			if len(compErrs) > 0 {
				return errors.Join(append([]error{err}, compErrs...)...)
			}
			return err
		}

		done = append(done, step)
		o.record(ctx, txlog.StatusStepDone, step.Name(), "", nil)
	}

	o.record(ctx, txlog.StatusCompleted, "", "", nil)
	slog.InfoContext(ctx, "checkout completed", "checkout_id", o.id)
	return nil
}

func (o *Orchestrator) execute(ctx context.Context, step Step) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, step.Name())
	defer span.End()

	if err := step.Execute(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (o *Orchestrator) rollback(ctx context.Context, steps []Step) []error {
	var errs []error
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		slog.InfoContext(ctx, "compensating step", "checkout_id", o.id, "step", step.Name())
		if err := step.Compensate(ctx); err != nil {
			slog.ErrorContext(ctx, "CRITICAL: failed to compensate step",
				"checkout_id", o.id, "step", step.Name(), "error", err)
			errs = append(errs, fmt.Errorf("compensate %s: %w", step.Name(), err))
		}
	}
	return errs
}

func (o *Orchestrator) record(ctx context.Context, status txlog.Status, step, payload string, errs []string) {
	if o.log == nil {
		return
	}
	entry := txlog.NewEntry(ctx, o.id, status, step, payload, errs)
	if err := o.log.Save(ctx, entry); err != nil {
		slog.WarnContext(ctx, "checkout log write failed", "checkout_id", o.id, "status", status, "error", err)
	}
}
