package repository

import (
	"context"

	"github.com/compozy/releasetag/internal/domain"
)

// GithubRepository defines the interface for GitHub release operations.
type GithubRepository interface {
	// CreateRelease publishes a release for an existing tag with GitHub-generated notes.
	CreateRelease(ctx context.Context, tag string, prerelease bool) (*domain.Release, error)
	// GetReleaseByTag returns nil without error when the tag has no release.
	GetReleaseByTag(ctx context.Context, tag string) (*domain.Release, error)
	ListReleases(ctx context.Context, limit int) ([]domain.Release, error)
}
