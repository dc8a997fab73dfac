package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidVersion is returned when a tag supplied as a target is not a version.
	ErrInvalidVersion = errors.New("invalid version")
	// ErrRemoteUnavailable is returned when the remote tag store cannot be reached.
	ErrRemoteUnavailable = errors.New("remote unavailable")
	// ErrAuthFailure is returned when the remote rejects the supplied credentials.
	ErrAuthFailure = errors.New("authentication failed")
	// ErrSessionFinished is returned when a terminal sync session is run again.
	ErrSessionFinished = errors.New("sync session already finished")
	// ErrNoManifest is returned when no supported project manifest is present.
	ErrNoManifest = errors.New("no project manifest found")
)

// PartialSyncError reports a push batch that stopped after some tags were
// already pushed. Pushed tags are not rolled back.
type PartialSyncError struct {
	Failed    string
	Pushed    []string
	Remaining []string
	Err       error
}

func (e *PartialSyncError) Error() string {
	return fmt.Sprintf("push of tag %s failed after %d tag(s) pushed, %d not attempted: %v",
		e.Failed, len(e.Pushed), len(e.Remaining), e.Err)
}

func (e *PartialSyncError) Unwrap() error {
	return e.Err
}
