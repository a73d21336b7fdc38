package saga

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Step is one unit of a saga with an optional compensating action.
type Step struct {
	Name       string
	Execute    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga runs steps in order and, when one fails, compensates the completed
// steps in reverse order.
type Saga struct {
	name   string
	steps  []Step
	logger *zap.Logger
}

// New creates a saga.
func New(name string, logger *zap.Logger) *Saga {
	return &Saga{name: name, logger: logger}
}

// AddStep appends a step.
func (s *Saga) AddStep(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Execute runs the saga. The returned error wraps the failing step's error.
func (s *Saga) Execute(ctx context.Context) error {
	s.logger.Debug("saga started", zap.String("saga", s.name))

	for i, step := range s.steps {
		if err := step.Execute(ctx); err != nil {
			s.logger.Warn("saga step failed, compensating",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err),
			)
			s.compensate(ctx, s.steps[:i])
			return fmt.Errorf("saga %s failed at %s: %w", s.name, step.Name, err)
		}
	}

	s.logger.Info("saga completed", zap.String("saga", s.name))
	return nil
}

func (s *Saga) compensate(ctx context.Context, done []Step) {
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
