package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/compozy/releasetag/internal/domain"
	"github.com/compozy/releasetag/internal/repository"
)

// ErrNoRelease is returned when a release is requested but no tag parses as a version.
var ErrNoRelease = errors.New("no release tag found")

// ResolveReleaseTagUseCase picks the tag a GitHub release is created for.
type ResolveReleaseTagUseCase struct {
	Tags repository.TagStore
}

// Execute validates an explicit tag, or falls back to the latest local
// release. An explicit tag that does not parse fails before anything else runs.
func (uc *ResolveReleaseTagUseCase) Execute(ctx context.Context, explicit string) (*domain.Version, error) {
	if explicit != "" {
		v, err := domain.ParseVersion(explicit)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	res, err := resolveLocal(ctx, uc.Tags, "")
	if err != nil {
		return nil, err
	}
	if !res.Found {
		return nil, fmt.Errorf("%w: create one with patch, minor or major first", ErrNoRelease)
	}
	return res.Version, nil
}
