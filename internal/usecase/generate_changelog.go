package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/compozy/releasetag/internal/config"
	"github.com/compozy/releasetag/internal/repository"
	"github.com/compozy/releasetag/internal/service"
)

// GenerateChangelogUseCase writes the CHANGELOG.md section of a new release.
type GenerateChangelogUseCase struct {
	GitRepo      repository.GitRepository
	ChangelogSvc service.ChangelogService
	Now          func() time.Time
}

// Execute collects commits since previousTag (the whole history when empty)
// and prepends a section for tag. It reports whether the file was created.
func (uc *GenerateChangelogUseCase) Execute(ctx context.Context, tag, previousTag string) (bool, error) {
	messages, err := uc.GitRepo.CommitMessagesSince(ctx, previousTag)
	if err != nil {
		return false, fmt.Errorf("failed to collect commits: %w", err)
	}
	now := time.Now
	if uc.Now != nil {
		now = uc.Now
	}
	release := service.ChangelogRelease{Tag: tag, PreviousTag: previousTag, Date: now()}
	if url, err := uc.GitRepo.RemoteURL(ctx); err == nil {
		release.RepoURL = config.ToHTTPSURL(url)
	}
	created, err := uc.ChangelogSvc.Prepend(ctx, uc.ChangelogSvc.Render(release, messages))
	if err != nil {
		return false, fmt.Errorf("failed to update changelog: %w", err)
	}
	return created, nil
}
