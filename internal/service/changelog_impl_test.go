package service

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangelogService_Render(t *testing.T) {
	date := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	messages := []string{
		"chore: release v1.1.0",
		"feat(cli): add sync command",
		"fix: handle empty tag list",
		"refactor!: drop legacy config",
		"docs: readme\n\nBREAKING CHANGE: nothing really",
		"not conventional",
	}
	t.Run("Should group conventional commits", func(t *testing.T) {
		svc := NewChangelogService(afero.NewMemMapFs())
		out := svc.Render(ChangelogRelease{Tag: "v1.2.0", Date: date}, messages)
		assert.Equal(t, "## v1.2.0 (2025-03-14)\n\n"+
			"### Features\n\n- feat(cli): add sync command\n\n"+
			"### Bug Fixes\n\n- fix: handle empty tag list\n\n"+
			"### Breaking Changes\n\n- refactor!: drop legacy config\n- docs: readme\n\n", out)
	})
	t.Run("Should link to the comparison with the previous tag", func(t *testing.T) {
		svc := NewChangelogService(afero.NewMemMapFs())
		out := svc.Render(ChangelogRelease{
			Tag:         "v1.2.0",
			PreviousTag: "v1.1.0",
			RepoURL:     "https://github.com/acme/widgets",
			Date:        date,
		}, nil)
		assert.Contains(t, out, "## [v1.2.0](https://github.com/acme/widgets/compare/v1.1.0...v1.2.0) (2025-03-14)")
		assert.Contains(t, out, "No notable changes.")
	})
	t.Run("Should link to the commit list for a first release", func(t *testing.T) {
		svc := NewChangelogService(afero.NewMemMapFs())
		out := svc.Render(ChangelogRelease{Tag: "v0.1.1", RepoURL: "https://github.com/acme/widgets/", Date: date}, nil)
		assert.Contains(t, out, "(https://github.com/acme/widgets/commits/v0.1.1)")
	})
}

func TestChangelogService_Prepend(t *testing.T) {
	t.Run("Should create the file with a header", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		created, err := NewChangelogService(fs).Prepend(context.Background(), "## v0.1.1 (2025-03-14)\n\n")
		require.NoError(t, err)
		assert.True(t, created)
		data, err := afero.ReadFile(fs, ChangelogFile)
		require.NoError(t, err)
		assert.Equal(t, changelogHeader+"## v0.1.1 (2025-03-14)\n\n", string(data))
	})
	t.Run("Should insert above earlier releases", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		svc := NewChangelogService(fs)
		ctx := context.Background()
		_, err := svc.Prepend(ctx, "## v0.1.1\n\n")
		require.NoError(t, err)
		created, err := svc.Prepend(ctx, "## v0.2.0\n\n")
		require.NoError(t, err)
		assert.False(t, created)
		data, err := afero.ReadFile(fs, ChangelogFile)
		require.NoError(t, err)
		assert.Equal(t, changelogHeader+"## v0.2.0\n\n## v0.1.1\n\n", string(data))
	})
}
