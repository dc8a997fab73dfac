package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/compozy/releasetag/internal/domain"
)

var ErrGithubTokenRequired = errors.New("github token is required for GitHub operations")

type githubNoopRepository struct {
	owner string
	repo  string
}

func NewGithubNoopRepository(owner, repo string) GithubRepository {
	return &githubNoopRepository{owner: owner, repo: repo}
}

func (r *githubNoopRepository) CreateRelease(_ context.Context, _ string, _ bool) (*domain.Release, error) {
	return nil, r.operationError("create release")
}

func (r *githubNoopRepository) GetReleaseByTag(_ context.Context, _ string) (*domain.Release, error) {
	return nil, r.operationError("look up release")
}

func (r *githubNoopRepository) ListReleases(_ context.Context, _ int) ([]domain.Release, error) {
	return nil, r.operationError("list releases")
}

func (r *githubNoopRepository) operationError(action string) error {
	return fmt.Errorf("%w: unable to %s for %s/%s", ErrGithubTokenRequired, action, r.owner, r.repo)
}
