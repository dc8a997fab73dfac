package usecase

import (
	"context"
	"fmt"

	"github.com/compozy/releasetag/internal/logger"
	"github.com/compozy/releasetag/internal/repository"
	"go.uber.org/zap"
)

// ResetReport lists what a reset changed.
type ResetReport struct {
	Deleted []string
	Created []string
}

// ResetTagsUseCase overwrites the local tag set with the remote one. It never
// prompts: local-only tags are lost.
type ResetTagsUseCase struct {
	Tags   repository.TagStore
	Logger *zap.Logger
}

// Execute resolves every remote tag before deleting anything, so a remote or
// resolution failure leaves the local store untouched. A failure while
// deleting or recreating leaves it partially rebuilt.
func (uc *ResetTagsUseCase) Execute(ctx context.Context) (*ResetReport, error) {
	log := logger.OrNop(uc.Logger)
	remote, err := uc.Tags.ListRemoteTagNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list remote tags: %w", err)
	}
	targets := make(map[string]string, len(remote))
	for _, name := range remote {
		target, err := uc.Tags.ResolveRemoteRef(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve remote tag %s: %w", name, err)
		}
		targets[name] = target
	}
	local, err := uc.Tags.ListLocalTagNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list local tags: %w", err)
	}
	report := &ResetReport{}
	for _, name := range local {
		if err := uc.Tags.DeleteLocalTag(ctx, name); err != nil {
			return report, fmt.Errorf("failed to delete local tag %s: %w", name, err)
		}
		report.Deleted = append(report.Deleted, name)
	}
	for _, name := range remote {
		if err := uc.Tags.CreateLocalTag(ctx, name, targets[name]); err != nil {
			return report, fmt.Errorf("failed to recreate tag %s: %w", name, err)
		}
		report.Created = append(report.Created, name)
	}
	log.Info("Reset local tags", zap.Int("deleted", len(report.Deleted)), zap.Int("created", len(report.Created)))
	return report, nil
}
