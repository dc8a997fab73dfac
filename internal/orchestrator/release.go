package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/compozy/releasetag/internal/domain"
	"github.com/compozy/releasetag/internal/logger"
	"github.com/compozy/releasetag/internal/repository"
	"github.com/compozy/releasetag/internal/usecase"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// ErrTagNotPublished is returned when the release tag is missing from the remote.
var ErrTagNotPublished = errors.New("tag is not on the remote")

// ReleaseConfig contains configuration for the release workflow.
type ReleaseConfig struct {
	// Tag is the explicit tag; the latest local release when empty.
	Tag string
}

// ReleaseResult reports the outcome of the release workflow.
type ReleaseResult struct {
	Tag       string
	Release   *domain.Release
	Existing  bool
	Cancelled bool
}

// ReleaseOrchestrator publishes a GitHub release for a pushed tag.
type ReleaseOrchestrator struct {
	gitRepo    repository.GitRepository
	githubRepo repository.GithubRepository
	confirmer  usecase.Confirmer
	log        *zap.Logger
	out        io.Writer
}

// NewReleaseOrchestrator creates a new release orchestrator.
func NewReleaseOrchestrator(
	gitRepo repository.GitRepository,
	githubRepo repository.GithubRepository,
	confirmer usecase.Confirmer,
	log *zap.Logger,
	out io.Writer,
) *ReleaseOrchestrator {
	log = logger.OrNop(log)
	if out == nil {
		out = io.Discard
	}
	return &ReleaseOrchestrator{
		gitRepo:    gitRepo,
		githubRepo: githubRepo,
		confirmer:  confirmer,
		log:        log,
		out:        out,
	}
}

// Execute resolves the tag, asks for confirmation and creates the release.
// An explicit tag that does not parse fails before anything else runs.
func (o *ReleaseOrchestrator) Execute(ctx context.Context, cfg ReleaseConfig) (*ReleaseResult, error) {
	uc := &usecase.ResolveReleaseTagUseCase{Tags: o.gitRepo}
	version, err := uc.Execute(ctx, cfg.Tag)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, ReleaseWorkflowTimeout)
	defer cancel()
	tag := version.String()
	result := &ReleaseResult{Tag: tag}
	remote, err := o.gitRepo.ListRemoteTagNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list remote tags: %w", err)
	}
	if !slices.Contains(remote, tag) {
		return nil, fmt.Errorf("%w: %s (run releasetag sync first)", ErrTagNotPublished, tag)
	}
	existing, err := o.githubRepo.GetReleaseByTag(ctx, tag)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		result.Release, result.Existing = existing, true
		fmt.Fprintf(o.out, "Release %s already exists: %s\n", tag, existing.URL)
		return result, nil
	}
	ok, err := o.confirmer.Confirm(ctx, fmt.Sprintf("Create GitHub release for %s?", tag))
	if err != nil {
		return nil, fmt.Errorf("failed to read confirmation: %w", err)
	}
	if !ok {
		result.Cancelled = true
		fmt.Fprintln(o.out, "Release cancelled")
		return result, nil
	}
	prerelease := version.Prerelease() != ""
	err = retry.Do(
		ctx,
		retry.WithMaxRetries(DefaultRetryCount, retry.NewExponential(DefaultRetryDelay)),
		func(ctx context.Context) error {
			rel, createErr := o.githubRepo.CreateRelease(ctx, tag, prerelease)
			if errors.Is(createErr, repository.ErrGithubTokenRequired) {
				return createErr
			}
			if createErr != nil {
				o.log.Debug("Retrying release creation", zap.String("tag", tag), zap.Error(createErr))
				return retry.RetryableError(createErr)
			}
			result.Release = rel
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(o.out, "🎉 Created release %s: %s\n", tag, result.Release.URL)
	return result, nil
}

// List returns the most recent releases.
func (o *ReleaseOrchestrator) List(ctx context.Context, limit int) ([]domain.Release, error) {
	if limit <= 0 {
		limit = ReleaseListLimit
	}
	return o.githubRepo.ListReleases(ctx, limit)
}
