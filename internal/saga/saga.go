package saga

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// SagaStep represents a single step in a saga with execute and compensate actions.
type SagaStep struct {
	Name       string
	Execute    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga orchestrates a sequence of steps with compensating transactions on failure.
type Saga struct {
	name      string
	steps     []SagaStep
	onFailure func(step string, err error)
	logger    *zap.Logger
}

// NewSaga creates a new saga orchestrator.
func NewSaga(name string, logger *zap.Logger) *Saga {
	return &Saga{name: name, logger: logger}
}

// AddStep appends a step to the saga.
func (s *Saga) AddStep(step SagaStep) {
	s.steps = append(s.steps, step)
}

// OnFailure registers fn to be called with the failing step before any
// compensation runs.
func (s *Saga) OnFailure(fn func(step string, err error)) {
	s.onFailure = fn
}

// Execute runs the steps in order. When one fails, the steps that already
// ran are compensated in reverse order and the failure is returned wrapped.
// Compensation errors are logged, never returned.
func (s *Saga) Execute(ctx context.Context) error {
	s.logger.Debug("saga started", zap.String("saga", s.name))

	for i, step := range s.steps {
		if err := step.Execute(ctx); err != nil {
			s.logger.Warn("saga step failed, compensating",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err),
			)
			if s.onFailure != nil {
				s.onFailure(step.Name, err)
			}
			s.compensate(ctx, s.steps[:i])
			return fmt.Errorf("saga '%s' failed at step '%s': %w", s.name, step.Name, err)
		}
	}

	s.logger.Debug("saga completed", zap.String("saga", s.name))
	return nil
}

func (s *Saga) compensate(ctx context.Context, done []SagaStep) {
	// Compensations must run even if the request context was cancelled.
	ctx = context.WithoutCancel(ctx)
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			s.logger.Error("compensation failed",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err),
			)
		}
	}
}
