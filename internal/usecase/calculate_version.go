package usecase

import (
	"context"
	"fmt"

	"github.com/compozy/releasetag/internal/domain"
	"github.com/compozy/releasetag/internal/repository"
)

// VersionPlan is the outcome of resolving and bumping the current release.
type VersionPlan struct {
	Resolution domain.Resolution
	// Current is the latest release, or the initial sentinel with the configured prefix.
	Current *domain.Version
	Next    *domain.Version
}

// CalculateVersionUseCase contains the logic for the patch, minor and major commands.
type CalculateVersionUseCase struct {
	Tags repository.TagStore
	// Prefix is the persisted version prefix, empty when none was recorded.
	Prefix string
}

// Execute resolves the latest local release and bumps it by kind.
func (uc *CalculateVersionUseCase) Execute(ctx context.Context, kind domain.BumpKind) (*VersionPlan, error) {
	res, err := resolveLocal(ctx, uc.Tags, uc.Prefix)
	if err != nil {
		return nil, err
	}
	current := res.Version
	if !res.Found && uc.Prefix != "" {
		current = current.WithPrefix(uc.Prefix)
	}
	return &VersionPlan{
		Resolution: res,
		Current:    current,
		Next:       current.Bump(kind),
	}, nil
}

func resolveLocal(ctx context.Context, tags repository.TagStore, prefix string) (domain.Resolution, error) {
	names, err := tags.ListLocalTagNames(ctx)
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("failed to list local tags: %w", err)
	}
	return domain.ResolveLatest(names, prefix), nil
}
