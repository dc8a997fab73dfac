package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/compozy/releasetag/internal/service"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGenerateChangelogUseCase_Execute(t *testing.T) {
	ctx := context.Background()
	now := func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	t.Run("Should write a section with a compare link", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		repo := newMockGitRepository(nil)
		repo.On("CommitMessagesSince", mock.Anything, "v1.0.0").
			Return([]string{"feat: add reset command", "fix(sync): keep order", "docs: typo"}, nil)
		repo.On("RemoteURL", mock.Anything).Return("git@github.com:acme/tool.git", nil)
		uc := &GenerateChangelogUseCase{GitRepo: repo, ChangelogSvc: service.NewChangelogService(fs), Now: now}
		created, err := uc.Execute(ctx, "v1.1.0", "v1.0.0")
		require.NoError(t, err)
		assert.True(t, created)
		data, err := afero.ReadFile(fs, service.ChangelogFile)
		require.NoError(t, err)
		content := string(data)
		assert.Contains(t, content, "## [v1.1.0](https://github.com/acme/tool/compare/v1.0.0...v1.1.0) (2026-03-01)")
		assert.Contains(t, content, "- feat: add reset command")
		assert.Contains(t, content, "- fix(sync): keep order")
		assert.NotContains(t, content, "typo")
	})
	t.Run("Should render without links when there is no remote", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		repo := newMockGitRepository(nil)
		repo.On("CommitMessagesSince", mock.Anything, "").Return([]string{"chore: init"}, nil)
		repo.On("RemoteURL", mock.Anything).Return("", errors.New("remote not found"))
		uc := &GenerateChangelogUseCase{GitRepo: repo, ChangelogSvc: service.NewChangelogService(fs), Now: now}
		_, err := uc.Execute(ctx, "v0.1.1", "")
		require.NoError(t, err)
		data, err := afero.ReadFile(fs, service.ChangelogFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), "## v0.1.1 (2026-03-01)\n\nNo notable changes.")
	})
	t.Run("Should fail when history cannot be read", func(t *testing.T) {
		repo := newMockGitRepository(nil)
		repo.On("CommitMessagesSince", mock.Anything, "v1.0.0").Return(nil, errors.New("bad object"))
		uc := &GenerateChangelogUseCase{GitRepo: repo, ChangelogSvc: service.NewChangelogService(afero.NewMemMapFs())}
		_, err := uc.Execute(ctx, "v1.1.0", "v1.0.0")
		assert.ErrorContains(t, err, "failed to collect commits")
	})
}
