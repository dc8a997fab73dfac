package usecase

import (
	"context"
	"fmt"

	"github.com/compozy/releasetag/internal/config"
	"github.com/compozy/releasetag/internal/domain"
	"github.com/compozy/releasetag/internal/repository"
)

// ShowProjectUseCase gathers the summary printed by the show command.
type ShowProjectUseCase struct {
	GitRepo repository.GitRepository
}

// Execute collects project information. A missing remote is not an error.
func (uc *ShowProjectUseCase) Execute(ctx context.Context) (*domain.ProjectInfo, error) {
	tags, err := uc.GitRepo.ListLocalTagNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list local tags: %w", err)
	}
	res := domain.ResolveLatest(tags, "")
	branch, err := uc.GitRepo.GetCurrentBranch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current branch: %w", err)
	}
	count, err := uc.GitRepo.CommitCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count commits: %w", err)
	}
	info := &domain.ProjectInfo{
		Version:       res.Version,
		Released:      res.Found,
		Branch:        branch,
		CommitCount:   count,
		LocalTagCount: len(tags),
	}
	if url, err := uc.GitRepo.RemoteURL(ctx); err == nil {
		info.RemoteURL = config.ToHTTPSURL(url)
	}
	return info, nil
}
