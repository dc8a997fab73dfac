package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/compozy/releasetag/internal/domain"
	"github.com/compozy/releasetag/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newReleaseFixture() (*mockGitRepository, *mockGithubRepository, *mockConfirmer, *bytes.Buffer, *ReleaseOrchestrator) {
	git := new(mockGitRepository)
	gh := new(mockGithubRepository)
	confirmer := new(mockConfirmer)
	out := &bytes.Buffer{}
	return git, gh, confirmer, out, NewReleaseOrchestrator(git, gh, confirmer, nil, out)
}

func TestReleaseOrchestrator_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("Should reject an invalid explicit tag before touching anything", func(t *testing.T) {
		git, gh, confirmer, _, orch := newReleaseFixture()
		_, err := orch.Execute(ctx, ReleaseConfig{Tag: "nightly"})
		assert.ErrorIs(t, err, domain.ErrInvalidVersion)
		git.AssertExpectations(t)
		gh.AssertNotCalled(t, "CreateRelease", mock.Anything, mock.Anything, mock.Anything)
		confirmer.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
	})

	t.Run("Should require the tag on the remote", func(t *testing.T) {
		git, _, _, _, orch := newReleaseFixture()
		git.On("ListLocalTagNames", mock.Anything).Return([]string{"v1.0.0"}, nil)
		git.On("ListRemoteTagNames", mock.Anything).Return([]string{}, nil)
		_, err := orch.Execute(ctx, ReleaseConfig{})
		assert.ErrorIs(t, err, ErrTagNotPublished)
	})

	t.Run("Should report an existing release without prompting", func(t *testing.T) {
		git, gh, confirmer, out, orch := newReleaseFixture()
		git.On("ListRemoteTagNames", mock.Anything).Return([]string{"v1.0.0"}, nil)
		gh.On("GetReleaseByTag", mock.Anything, "v1.0.0").
			Return(&domain.Release{TagName: "v1.0.0", URL: "https://example.com/r/1"}, nil)
		result, err := orch.Execute(ctx, ReleaseConfig{Tag: "v1.0.0"})
		require.NoError(t, err)
		assert.True(t, result.Existing)
		assert.Contains(t, out.String(), "already exists")
		confirmer.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
	})

	t.Run("Should stop when the user declines", func(t *testing.T) {
		git, gh, confirmer, _, orch := newReleaseFixture()
		git.On("ListRemoteTagNames", mock.Anything).Return([]string{"v1.0.0"}, nil)
		gh.On("GetReleaseByTag", mock.Anything, "v1.0.0").Return(nil, nil)
		confirmer.On("Confirm", mock.Anything, "Create GitHub release for v1.0.0?").Return(false, nil)
		result, err := orch.Execute(ctx, ReleaseConfig{Tag: "v1.0.0"})
		require.NoError(t, err)
		assert.True(t, result.Cancelled)
		gh.AssertNotCalled(t, "CreateRelease", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should retry release creation and mark pre-releases", func(t *testing.T) {
		git, gh, confirmer, out, orch := newReleaseFixture()
		git.On("ListLocalTagNames", mock.Anything).Return([]string{"v1.0.0", "v2.0.0-rc.1"}, nil)
		git.On("ListRemoteTagNames", mock.Anything).Return([]string{"v1.0.0", "v2.0.0-rc.1"}, nil)
		gh.On("GetReleaseByTag", mock.Anything, "v2.0.0-rc.1").Return(nil, nil)
		confirmer.On("Confirm", mock.Anything, mock.Anything).Return(true, nil)
		gh.On("CreateRelease", mock.Anything, "v2.0.0-rc.1", true).Return(nil, errors.New("502")).Once()
		gh.On("CreateRelease", mock.Anything, "v2.0.0-rc.1", true).
			Return(&domain.Release{TagName: "v2.0.0-rc.1", URL: "https://example.com/r/2", Prerelease: true}, nil).Once()
		result, err := orch.Execute(ctx, ReleaseConfig{})
		require.NoError(t, err)
		assert.Equal(t, "v2.0.0-rc.1", result.Tag)
		assert.True(t, result.Release.Prerelease)
		assert.Contains(t, out.String(), "https://example.com/r/2")
		gh.AssertExpectations(t)
	})

	t.Run("Should fail fast without a token", func(t *testing.T) {
		git, _, confirmer, _, _ := newReleaseFixture()
		noop := repository.NewGithubNoopRepository("acme", "tool")
		orch := NewReleaseOrchestrator(git, noop, confirmer, nil, nil)
		git.On("ListRemoteTagNames", mock.Anything).Return([]string{"v1.0.0"}, nil)
		_, err := orch.Execute(ctx, ReleaseConfig{Tag: "v1.0.0"})
		assert.ErrorIs(t, err, repository.ErrGithubTokenRequired)
	})

	t.Run("Should fail when nothing was released yet", func(t *testing.T) {
		git, _, _, _, orch := newReleaseFixture()
		git.On("ListLocalTagNames", mock.Anything).Return([]string{"main"}, nil)
		_, err := orch.Execute(ctx, ReleaseConfig{})
		assert.Error(t, err)
		git.AssertNotCalled(t, "ListRemoteTagNames", mock.Anything)
	})
}

func TestReleaseOrchestrator_List(t *testing.T) {
	t.Run("Should use the default limit", func(t *testing.T) {
		_, gh, _, _, orch := newReleaseFixture()
		gh.On("ListReleases", mock.Anything, ReleaseListLimit).Return([]domain.Release{{TagName: "v1.0.0"}}, nil)
		releases, err := orch.List(context.Background(), 0)
		require.NoError(t, err)
		assert.Len(t, releases, 1)
	})
}
