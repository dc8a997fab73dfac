package usecase

import (
	"context"
	"fmt"

	"github.com/compozy/releasetag/internal/domain"
	"github.com/compozy/releasetag/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProgressKind distinguishes progress notifications of a sync session.
type ProgressKind string

const (
	ProgressPulled ProgressKind = "pulled"
	ProgressPushed ProgressKind = "pushed"
)

// ProgressEvent reports one completed store mutation.
type ProgressEvent struct {
	Kind ProgressKind
	// Tags holds the whole batch for pulls and a single name for pushes.
	Tags []string
}

// SyncSession reconciles a local and a remote tag store for one SyncPlan.
// A session runs at most once; every terminal state is final.
type SyncSession struct {
	ID         string
	store      repository.TagStore
	confirmer  Confirmer
	log        *zap.Logger
	onProgress func(ProgressEvent)
	state      domain.SessionState
}

// SessionOption customises a SyncSession.
type SessionOption func(*SyncSession)

// WithProgress registers a callback invoked after the pull batch and after each push.
func WithProgress(fn func(ProgressEvent)) SessionOption {
	return func(s *SyncSession) { s.onProgress = fn }
}

// WithLogger sets the session logger.
func WithLogger(log *zap.Logger) SessionOption {
	return func(s *SyncSession) {
		if log != nil {
			s.log = log
		}
	}
}

func NewSyncSession(store repository.TagStore, confirmer Confirmer, opts ...SessionOption) *SyncSession {
	s := &SyncSession{
		ID:         uuid.New().String(),
		store:      store,
		confirmer:  confirmer,
		log:        zap.NewNop(),
		onProgress: func(ProgressEvent) {},
		state:      domain.SessionStateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("session_id", s.ID))
	return s
}

// State returns the current state.
func (s *SyncSession) State() domain.SessionState {
	return s.state
}

// Run drives the session to a terminal state. Cancelled and Done return a nil
// error; Failed returns the cause. A PartialSyncError is returned when a push
// fails after earlier pushes succeeded.
func (s *SyncSession) Run(ctx context.Context, plan domain.SyncPlan) (domain.SessionState, error) {
	if s.state != domain.SessionStateIdle {
		return s.state, domain.ErrSessionFinished
	}
	if plan.IsSynchronized() {
		s.moveTo(domain.SessionStateDone)
		return s.state, nil
	}
	s.moveTo(domain.SessionStateDiffed)
	push, pull := plan.PushList(), plan.PullList()
	s.moveTo(domain.SessionStateAwaitingConfirmation)
	ok, err := s.confirmer.Confirm(ctx, confirmationPrompt(len(push), len(pull)))
	if err != nil {
		return s.fail(fmt.Errorf("failed to read confirmation: %w", err))
	}
	if !ok {
		s.moveTo(domain.SessionStateCancelled)
		return s.state, nil
	}
	s.moveTo(domain.SessionStatePulling)
	if len(pull) > 0 {
		if err := s.store.PullRemoteTags(ctx, pull); err != nil {
			return s.fail(fmt.Errorf("failed to pull %d tag(s): %w", len(pull), err))
		}
		s.onProgress(ProgressEvent{Kind: ProgressPulled, Tags: pull})
	}
	s.moveTo(domain.SessionStatePushing)
	for i, name := range push {
		if err := s.store.PushLocalTag(ctx, name); err != nil {
			if i == 0 {
				return s.fail(fmt.Errorf("failed to push tag %s: %w", name, err))
			}
			return s.fail(&domain.PartialSyncError{
				Failed:    name,
				Pushed:    push[:i],
				Remaining: push[i+1:],
				Err:       err,
			})
		}
		s.onProgress(ProgressEvent{Kind: ProgressPushed, Tags: []string{name}})
	}
	s.moveTo(domain.SessionStateDone)
	return s.state, nil
}

func (s *SyncSession) moveTo(next domain.SessionState) {
	state, err := s.state.Transition(next)
	if err != nil {
		// the run loop only issues legal transitions
		panic(err)
	}
	s.log.Debug("Sync session transition", zap.String("from", string(s.state)), zap.String("to", string(state)))
	s.state = state
}

func (s *SyncSession) fail(cause error) (domain.SessionState, error) {
	s.moveTo(domain.SessionStateFailed)
	s.log.Warn("Sync session failed", zap.Error(cause))
	return s.state, cause
}

func confirmationPrompt(push, pull int) string {
	return fmt.Sprintf("Push %d tag(s) and pull %d tag(s)?", push, pull)
}
