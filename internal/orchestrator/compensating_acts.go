package orchestrator

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/compozy/releasetag/internal/logger"
	"github.com/compozy/releasetag/internal/repository"
	"go.uber.org/zap"
)

// Rollback data keys shared by the bump steps and their compensations.
const (
	keyModifiedFiles    = "modified_files"
	keyCreatedFiles     = "created_files"
	keyCommitSHA        = "commit_sha"
	keyBaseCommit       = "base_commit"
	keyTag              = "tag"
	keyCreatedInSession = "created_in_session"
	keySkip             = "skip"
)

// CompensatingActions provides idempotent rollback operations for bump workflow steps
type CompensatingActions struct {
	gitRepo repository.GitRepository
	fs      repository.FileSystemRepository
	log     *zap.Logger
}

// NewCompensatingActions creates a new compensating actions handler
func NewCompensatingActions(
	gitRepo repository.GitRepository,
	fs repository.FileSystemRepository,
	log *zap.Logger,
) *CompensatingActions {
	log = logger.OrNop(log)
	return &CompensatingActions{gitRepo: gitRepo, fs: fs, log: log}
}

// RestoreFiles puts rewritten manifests back to their HEAD content and
// removes files the step created.
func (ca *CompensatingActions) RestoreFiles(ctx context.Context, rollbackData map[string]any) error {
	for _, file := range stringSlice(rollbackData[keyModifiedFiles]) {
		if !ca.fileHasChanges(ctx, file) {
			continue
		}
		if err := ca.gitRepo.RestoreFile(ctx, file); err != nil {
			return fmt.Errorf("failed to restore %s: %w", file, err)
		}
	}
	for _, file := range stringSlice(rollbackData[keyCreatedFiles]) {
		if err := ca.fs.Remove(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", file, err)
		}
	}
	return nil
}

// ResetCommit undoes the release commit when it is still HEAD.
func (ca *CompensatingActions) ResetCommit(ctx context.Context, rollbackData map[string]any) error {
	if skip, _ := rollbackData[keySkip].(bool); skip {
		return nil
	}
	commitSHA, _ := rollbackData[keyCommitSHA].(string)
	baseCommit, _ := rollbackData[keyBaseCommit].(string)
	if commitSHA == "" || baseCommit == "" {
		return nil
	}
	currentHead, err := ca.gitRepo.GetHeadCommit(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current HEAD: %w", err)
	}
	if !strings.HasPrefix(currentHead, commitSHA) {
		ca.log.Info("Release commit is no longer HEAD, skipping reset", zap.String("commit", commitSHA))
		return nil
	}
	if err := ca.gitRepo.ResetHard(ctx, baseCommit); err != nil {
		return fmt.Errorf("failed to reset commit %s: %w", commitSHA, err)
	}
	return nil
}

// DeleteTag removes the tag created by this session, if it still exists.
func (ca *CompensatingActions) DeleteTag(ctx context.Context, rollbackData map[string]any) error {
	tag, _ := rollbackData[keyTag].(string)
	created, _ := rollbackData[keyCreatedInSession].(bool)
	if tag == "" || !created {
		return nil
	}
	exists, err := ca.gitRepo.TagExists(ctx, tag)
	if err != nil {
		return fmt.Errorf("failed to check tag %s: %w", tag, err)
	}
	if !exists {
		return nil
	}
	return ca.gitRepo.DeleteLocalTag(ctx, tag)
}

// NoOp is a no-operation compensating action for operations that don't need rollback
func (ca *CompensatingActions) NoOp(_ context.Context, _ map[string]any) error {
	return nil
}

func (ca *CompensatingActions) fileHasChanges(ctx context.Context, file string) bool {
	status, err := ca.gitRepo.GetFileStatus(ctx, file)
	if err != nil {
		return false
	}
	return status != "clean"
}

// stringSlice reads a []string that may have gone through a JSON round trip.
func stringSlice(v any) []string {
	switch files := v.(type) {
	case []string:
		return files
	case []any:
		out := make([]string, 0, len(files))
		for _, f := range files {
			if s, ok := f.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
