package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/compozy/releasetag/internal/config"
	"github.com/compozy/releasetag/internal/domain"
	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

// githubRepository is the implementation of the GithubRepository interface.
type githubRepository struct {
	client *github.Client
	owner  string
	repo   string
}

// NewGithubRepository creates a new GithubRepository with validation.
func NewGithubRepository(token, owner, repo string) (GithubRepository, error) {
	if err := config.ValidateGitHubToken(token); err != nil {
		return nil, fmt.Errorf("invalid GitHub token: %w", err)
	}
	if err := config.ValidateGitHubOwnerRepo(owner, repo); err != nil {
		return nil, fmt.Errorf("invalid repository configuration: %w", err)
	}
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: strings.TrimSpace(token)},
	)
	tc := oauth2.NewClient(context.Background(), ts)
	return newGithubRepository(github.NewClient(tc), owner, repo), nil
}

func newGithubRepository(client *github.Client, owner, repo string) *githubRepository {
	return &githubRepository{client: client, owner: owner, repo: repo}
}

// CreateRelease creates a published release for tag.
func (r *githubRepository) CreateRelease(ctx context.Context, tag string, prerelease bool) (*domain.Release, error) {
	rel, _, err := r.client.Repositories.CreateRelease(ctx, r.owner, r.repo, &github.RepositoryRelease{
		TagName:              github.Ptr(tag),
		Name:                 github.Ptr(tag),
		Prerelease:           github.Ptr(prerelease),
		GenerateReleaseNotes: github.Ptr(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create release %s: %w", tag, err)
	}
	return toDomainRelease(rel), nil
}

// GetReleaseByTag returns the release attached to tag, or nil when there is none.
func (r *githubRepository) GetReleaseByTag(ctx context.Context, tag string) (*domain.Release, error) {
	rel, _, err := r.client.Repositories.GetReleaseByTag(ctx, r.owner, r.repo, tag)
	if err != nil {
		var errResp *github.ErrorResponse
		if errors.As(err, &errResp) && errResp.Response != nil &&
			errResp.Response.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get release %s: %w", tag, err)
	}
	return toDomainRelease(rel), nil
}

// ListReleases returns the most recent releases, newest first.
func (r *githubRepository) ListReleases(ctx context.Context, limit int) ([]domain.Release, error) {
	if limit <= 0 {
		limit = 30
	}
	rels, _, err := r.client.Repositories.ListReleases(ctx, r.owner, r.repo, &github.ListOptions{PerPage: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list releases: %w", err)
	}
	out := make([]domain.Release, 0, len(rels))
	for _, rel := range rels {
		out = append(out, *toDomainRelease(rel))
	}
	return out, nil
}

func toDomainRelease(rel *github.RepositoryRelease) *domain.Release {
	return &domain.Release{
		TagName:     rel.GetTagName(),
		Name:        rel.GetName(),
		URL:         rel.GetHTMLURL(),
		Draft:       rel.GetDraft(),
		Prerelease:  rel.GetPrerelease(),
		PublishedAt: rel.GetPublishedAt().Time,
	}
}
