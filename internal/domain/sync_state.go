package domain

import "fmt"

// SessionState is a step of the interactive tag synchronisation.
type SessionState string

const (
	SessionStateIdle                 SessionState = "idle"
	SessionStateDiffed               SessionState = "diffed"
	SessionStateAwaitingConfirmation SessionState = "awaiting_confirmation"
	SessionStatePulling              SessionState = "pulling"
	SessionStatePushing              SessionState = "pushing"
	SessionStateDone                 SessionState = "done"
	SessionStateCancelled            SessionState = "cancelled"
	SessionStateFailed               SessionState = "failed"
)

var sessionTransitions = map[SessionState][]SessionState{
	SessionStateIdle:                 {SessionStateDone, SessionStateDiffed},
	SessionStateDiffed:               {SessionStateAwaitingConfirmation},
	SessionStateAwaitingConfirmation: {SessionStatePulling, SessionStateCancelled, SessionStateFailed},
	SessionStatePulling:              {SessionStatePushing, SessionStateFailed},
	SessionStatePushing:              {SessionStateDone, SessionStateFailed},
}

// IsTerminal reports whether the session has ended.
func (s SessionState) IsTerminal() bool {
	return s == SessionStateDone || s == SessionStateCancelled || s == SessionStateFailed
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s SessionState) CanTransitionTo(next SessionState) bool {
	for _, allowed := range sessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition returns next, or an error if the move is not allowed.
func (s SessionState) Transition(next SessionState) (SessionState, error) {
	if !s.CanTransitionTo(next) {
		return s, fmt.Errorf("illegal sync session transition %s -> %s", s, next)
	}
	return next, nil
}
