package orchestrator

import (
	"context"
	"fmt"

	"github.com/compozy/releasetag/internal/domain"
	"github.com/compozy/releasetag/internal/logger"
	"github.com/compozy/releasetag/internal/repository"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// SagaStep represents a single step in the saga workflow
type SagaStep struct {
	Name       string
	Type       domain.OperationType
	Execute    func(ctx context.Context) (rollbackData map[string]any, err error)
	Compensate func(ctx context.Context, rollbackData map[string]any) error
	// Retryable steps are retried with exponential backoff. Local git
	// mutations are not idempotent and run once.
	Retryable bool
}

// SagaExecutor manages the execution of saga workflows with rollback support
type SagaExecutor struct {
	stateRepo repository.StateRepository
	state     *domain.WorkflowState
	steps     []SagaStep
	persist   bool
	log       *zap.Logger
}

// NewSagaExecutor creates a new saga executor. When persist is false no state
// is written and failures are not compensated.
func NewSagaExecutor(stateRepo repository.StateRepository, persist bool, log *zap.Logger) *SagaExecutor {
	log = logger.OrNop(log)
	sessionID := uuid.New().String()
	return &SagaExecutor{
		stateRepo: stateRepo,
		state:     domain.NewWorkflowState(sessionID),
		steps:     []SagaStep{},
		persist:   persist,
		log:       log.With(zap.String("session_id", sessionID)),
	}
}

// LoadExistingSaga loads an existing saga from state. Steps must be re-added
// with their compensations before Rollback is called.
func LoadExistingSaga(
	ctx context.Context,
	stateRepo repository.StateRepository,
	sessionID string,
	log *zap.Logger,
) (*SagaExecutor, error) {
	log = logger.OrNop(log)
	state, err := stateRepo.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load saga state: %w", err)
	}
	return &SagaExecutor{
		stateRepo: stateRepo,
		state:     state,
		steps:     []SagaStep{},
		persist:   true,
		log:       log.With(zap.String("session_id", sessionID)),
	}, nil
}

// AddStep adds a step to the saga
func (s *SagaExecutor) AddStep(step SagaStep) {
	s.steps = append(s.steps, step)
	s.state.AddOperation(step.Type)
}

// RegisterCompensation attaches a compensation for an operation already
// recorded in a loaded state.
func (s *SagaExecutor) RegisterCompensation(step SagaStep) {
	s.steps = append(s.steps, step)
}

// Execute runs the saga workflow with automatic rollback on failure
func (s *SagaExecutor) Execute(ctx context.Context) error {
	if s.persist {
		if err := s.saveState(ctx); err != nil {
			return fmt.Errorf("failed to save initial state: %w", err)
		}
	}
	s.state.Status = domain.WorkflowStatusRunning
	for _, step := range s.steps {
		if err := s.executeStep(ctx, step); err != nil {
			s.state.MarkOperationFailed(step.Type, err)
			if s.persist {
				s.bestEffortSave(ctx, "before rollback")
				rollbackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), RollbackTimeout)
				rollbackErr := s.rollback(rollbackCtx)
				cancel()
				if rollbackErr != nil {
					return fmt.Errorf("step '%s' failed: %w, rollback also failed (session %s): %v",
						step.Name, err, s.state.SessionID, rollbackErr)
				}
			}
			return fmt.Errorf("step '%s' failed: %w", step.Name, err)
		}
	}
	s.state.Status = domain.WorkflowStatusCompleted
	if s.persist {
		s.bestEffortSave(ctx, "at completion")
	}
	return nil
}

func (s *SagaExecutor) executeStep(ctx context.Context, step SagaStep) error {
	s.state.MarkOperationStarted(step.Type)
	if s.persist {
		s.bestEffortSave(ctx, "after marking operation started")
	}
	s.log.Debug("Executing saga step", zap.String("step", step.Name))
	var rollbackData map[string]any
	run := func(stepCtx context.Context) error {
		if err := stepCtx.Err(); err != nil {
			return err
		}
		data, err := step.Execute(stepCtx)
		if err != nil {
			return err
		}
		rollbackData = data
		return nil
	}
	var err error
	if step.Retryable {
		err = retry.Do(ctx, s.backoff(), func(retryCtx context.Context) error {
			if runErr := run(retryCtx); runErr != nil {
				s.log.Debug("Retrying saga step", zap.String("step", step.Name), zap.Error(runErr))
				return retry.RetryableError(runErr)
			}
			return nil
		})
	} else {
		err = run(ctx)
	}
	if err != nil {
		return err
	}
	s.state.MarkOperationCompleted(step.Type, rollbackData)
	if s.persist {
		s.bestEffortSave(ctx, "after marking operation completed")
	}
	return nil
}

// Rollback executes compensating actions for completed operations
func (s *SagaExecutor) Rollback(ctx context.Context) error {
	return s.rollback(ctx)
}

func (s *SagaExecutor) rollback(ctx context.Context) error {
	completedOps := s.state.CompletedOperations()
	if len(completedOps) == 0 {
		s.log.Info("No operations to roll back")
		s.state.Status = domain.WorkflowStatusRolledBack
		if s.persist {
			s.bestEffortSave(ctx, "after rollback")
		}
		return nil
	}
	for _, op := range completedOps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("rollback canceled: %w", err)
		}
		step := s.findStepByType(op.Type)
		if step == nil || step.Compensate == nil {
			continue
		}
		s.log.Info("Rolling back", zap.String("step", step.Name))
		if err := s.executeCompensation(ctx, step, op.RollbackData); err != nil {
			s.log.Warn("Rollback step failed", zap.String("step", step.Name), zap.Error(err))
			return fmt.Errorf("rollback failed for %s: %w", step.Name, err)
		}
		s.state.MarkOperationRolledBack(op.Type)
		if s.persist {
			s.bestEffortSave(ctx, "during rollback")
		}
	}
	s.state.Status = domain.WorkflowStatusRolledBack
	if s.persist {
		s.bestEffortSave(ctx, "after rollback")
	}
	return nil
}

// executeCompensation executes a compensating action with retry. Compensations
// are idempotent so retrying them is always safe.
func (s *SagaExecutor) executeCompensation(ctx context.Context, step *SagaStep, rollbackData map[string]any) error {
	return retry.Do(ctx, s.backoff(), func(retryCtx context.Context) error {
		if err := retryCtx.Err(); err != nil {
			return err
		}
		if err := step.Compensate(retryCtx, rollbackData); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (s *SagaExecutor) backoff() retry.Backoff {
	return retry.WithMaxRetries(DefaultRetryCount, retry.NewExponential(DefaultRetryDelay))
}

func (s *SagaExecutor) findStepByType(opType domain.OperationType) *SagaStep {
	for i := range s.steps {
		if s.steps[i].Type == opType {
			return &s.steps[i]
		}
	}
	return nil
}

func (s *SagaExecutor) saveState(ctx context.Context) error {
	return s.stateRepo.Save(ctx, s.state)
}

func (s *SagaExecutor) bestEffortSave(ctx context.Context, when string) {
	if err := s.saveState(ctx); err != nil {
		s.log.Warn("Failed to save workflow state", zap.String("when", when), zap.Error(err))
	}
}

// GetState returns the current saga state
func (s *SagaExecutor) GetState() *domain.WorkflowState {
	return s.state
}

// SessionID identifies the persisted state of this saga.
func (s *SagaExecutor) SessionID() string {
	return s.state.SessionID
}

// SetTag records the tag the workflow creates.
func (s *SagaExecutor) SetTag(tag string) {
	s.state.Tag = tag
}

// SetBaseCommit records HEAD before any mutation.
func (s *SagaExecutor) SetBaseCommit(sha string) {
	s.state.BaseCommit = sha
}
