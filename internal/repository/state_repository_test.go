package repository

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/compozy/releasetag/internal/domain"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStateRepo(t *testing.T) (*JSONStateRepository, afero.Fs, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), DefaultStateDir)
	fs := afero.NewOsFs()
	require.NoError(t, fs.MkdirAll(dir, StateDirPermissions))
	return NewJSONStateRepository(fs, dir, nil), fs, dir
}

func TestJSONStateRepository_SaveLoad(t *testing.T) {
	t.Run("Should round-trip a workflow state", func(t *testing.T) {
		repo, _, _ := newTestStateRepo(t)
		ctx := context.Background()
		state := domain.NewWorkflowState("session-1")
		state.Tag = "v1.2.0"
		state.BaseCommit = "abc123"
		state.AddOperation(domain.OperationTypeUpdateManifests)
		state.MarkOperationStarted(domain.OperationTypeUpdateManifests)
		state.MarkOperationCompleted(domain.OperationTypeUpdateManifests, map[string]any{"files": []any{"Cargo.toml"}})
		require.NoError(t, repo.Save(ctx, state))
		loaded, err := repo.Load(ctx, "session-1")
		require.NoError(t, err)
		assert.Equal(t, "v1.2.0", loaded.Tag)
		assert.Equal(t, "abc123", loaded.BaseCommit)
		require.Len(t, loaded.Operations, 1)
		assert.Equal(t, domain.OperationStatusCompleted, loaded.Operations[0].Status)
	})
	t.Run("Should return the latest saved session", func(t *testing.T) {
		repo, _, _ := newTestStateRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Save(ctx, domain.NewWorkflowState("first")))
		require.NoError(t, repo.Save(ctx, domain.NewWorkflowState("second")))
		latest, err := repo.LoadLatest(ctx)
		require.NoError(t, err)
		assert.Equal(t, "second", latest.SessionID)
	})
	t.Run("Should report a missing session", func(t *testing.T) {
		repo, _, _ := newTestStateRepo(t)
		_, err := repo.Load(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrStateNotFound)
		_, err = repo.LoadLatest(context.Background())
		assert.ErrorIs(t, err, ErrStateNotFound)
	})
	t.Run("Should detect tampered state", func(t *testing.T) {
		repo, fs, dir := newTestStateRepo(t)
		ctx := context.Background()
		state := domain.NewWorkflowState("tampered")
		state.Tag = "v1.0.0"
		require.NoError(t, repo.Save(ctx, state))
		path := filepath.Join(dir, "state-tampered.json")
		data, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		data = []byte(strings.Replace(string(data), `"tag": "v1.0.0"`, `"tag": "v9.0.0"`, 1))
		require.NoError(t, afero.WriteFile(fs, path, data, StateFilePermissions))
		_, err = repo.Load(ctx, "tampered")
		assert.ErrorContains(t, err, "checksum mismatch")
	})
}

func TestJSONStateRepository_Delete(t *testing.T) {
	t.Run("Should delete state and tolerate repeats", func(t *testing.T) {
		repo, _, _ := newTestStateRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Save(ctx, domain.NewWorkflowState("gone")))
		exists, err := repo.Exists(ctx, "gone")
		require.NoError(t, err)
		assert.True(t, exists)
		require.NoError(t, repo.Delete(ctx, "gone"))
		exists, err = repo.Exists(ctx, "gone")
		require.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, repo.Delete(ctx, "gone"))
	})
}

func TestSessionFromFile(t *testing.T) {
	assert.Equal(t, "abc", sessionFromFile("/x/.release-state/state-abc.json"))
	assert.Empty(t, sessionFromFile("latest.txt"))
}
