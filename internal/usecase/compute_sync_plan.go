package usecase

import (
	"context"
	"fmt"

	"github.com/compozy/releasetag/internal/domain"
	"github.com/compozy/releasetag/internal/repository"
)

// ComputeSyncPlanUseCase diffs the local tag store against the remote one.
type ComputeSyncPlanUseCase struct {
	Tags repository.TagStore
}

// Execute lists both stores and returns a fresh plan. Store failures are
// returned unchanged in kind so callers can tell auth from availability.
func (uc *ComputeSyncPlanUseCase) Execute(ctx context.Context) (domain.SyncPlan, error) {
	local, err := uc.Tags.ListLocalTagNames(ctx)
	if err != nil {
		return domain.SyncPlan{}, fmt.Errorf("failed to list local tags: %w", err)
	}
	remote, err := uc.Tags.ListRemoteTagNames(ctx)
	if err != nil {
		return domain.SyncPlan{}, fmt.Errorf("failed to list remote tags: %w", err)
	}
	return domain.ComputeSyncPlan(local, remote), nil
}
