package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/compozy/releasetag/internal/domain"
	"github.com/compozy/releasetag/internal/service"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type bumpFixture struct {
	git       *mockGitRepository
	manifests *mockManifestService
	state     *MockStateRepository
	fs        afero.Fs
	out       *bytes.Buffer
	orch      *BumpOrchestrator
}

func newBumpFixture(tags []string) *bumpFixture {
	f := &bumpFixture{
		git:       new(mockGitRepository),
		manifests: new(mockManifestService),
		state:     new(MockStateRepository),
		fs:        afero.NewMemMapFs(),
		out:       &bytes.Buffer{},
	}
	f.git.On("ListLocalTagNames", mock.Anything).Return(tags, nil).Maybe()
	f.state.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.orch = NewBumpOrchestrator(f.git, f.fs, f.manifests, service.NewChangelogService(f.fs), f.state, nil, f.out)
	return f
}

var cargo = []domain.Manifest{{Kind: domain.ManifestCargo, Path: "Cargo.toml", Version: "1.2.3"}}

func TestBumpOrchestrator_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("Should rewrite manifests, commit and tag", func(t *testing.T) {
		f := newBumpFixture([]string{"v1.2.3", "v1.0.0"})
		f.git.On("GetHeadCommit", mock.Anything).Return("base", nil).Once()
		f.git.On("GetHeadCommit", mock.Anything).Return("release", nil).Once()
		f.git.On("TagExists", mock.Anything, "v1.3.0").Return(false, nil)
		f.manifests.On("Detect", mock.Anything).Return(cargo, nil)
		f.manifests.On("Update", mock.Anything, cargo, "1.3.0").Return([]string{"Cargo.toml"}, nil)
		f.git.On("AddFiles", mock.Anything, "Cargo.toml").Return(nil)
		f.git.On("Commit", mock.Anything, "chore: release v1.3.0").Return(nil)
		f.git.On("CreateTag", mock.Anything, "v1.3.0", "Release v1.3.0").Return(nil)

		result, err := f.orch.Execute(ctx, BumpConfig{Kind: domain.BumpMinor, Prefix: "v"})
		require.NoError(t, err)
		assert.Equal(t, "v1.3.0", result.Tag)
		assert.Equal(t, []string{"Cargo.toml"}, result.Manifests)
		assert.True(t, result.Committed)
		assert.NotEmpty(t, result.SessionID)
		assert.Contains(t, f.out.String(), "Created tag v1.3.0")
		f.git.AssertExpectations(t)
		f.manifests.AssertExpectations(t)
	})

	t.Run("Should prepend a changelog section and commit it", func(t *testing.T) {
		f := newBumpFixture([]string{"v1.2.3"})
		f.git.On("GetHeadCommit", mock.Anything).Return("base", nil).Once()
		f.git.On("GetHeadCommit", mock.Anything).Return("release", nil).Once()
		f.git.On("TagExists", mock.Anything, "v1.2.4").Return(false, nil)
		f.manifests.On("Detect", mock.Anything).Return(cargo, nil)
		f.manifests.On("Update", mock.Anything, cargo, "1.2.4").Return([]string{"Cargo.toml"}, nil)
		f.git.On("CommitMessagesSince", mock.Anything, "v1.2.3").Return([]string{"fix: handle empty remote"}, nil)
		f.git.On("RemoteURL", mock.Anything).Return("", errors.New("no remote"))
		f.git.On("AddFiles", mock.Anything, "Cargo.toml").Return(nil)
		f.git.On("AddFiles", mock.Anything, service.ChangelogFile).Return(nil)
		f.git.On("Commit", mock.Anything, "chore: release v1.2.4").Return(nil)
		f.git.On("CreateTag", mock.Anything, "v1.2.4", "Release v1.2.4").Return(nil)

		result, err := f.orch.Execute(ctx, BumpConfig{Kind: domain.BumpPatch, Changelog: true})
		require.NoError(t, err)
		assert.True(t, result.ChangelogUpdated)
		data, err := afero.ReadFile(f.fs, service.ChangelogFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), "- fix: handle empty remote")
		f.git.AssertExpectations(t)
	})

	t.Run("Should tag without committing when no manifest exists", func(t *testing.T) {
		f := newBumpFixture(nil)
		f.git.On("GetHeadCommit", mock.Anything).Return("base", nil).Once()
		f.git.On("TagExists", mock.Anything, "v0.1.1").Return(false, nil)
		f.manifests.On("Detect", mock.Anything).Return([]domain.Manifest{}, nil)
		f.git.On("CreateTag", mock.Anything, "v0.1.1", "Release v0.1.1").Return(nil)

		result, err := f.orch.Execute(ctx, BumpConfig{Kind: domain.BumpPatch, Prefix: "v"})
		require.NoError(t, err)
		assert.False(t, result.Committed)
		assert.Equal(t, "v0.1.1", result.Tag)
		f.git.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
		f.manifests.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should refuse to overwrite an existing tag", func(t *testing.T) {
		f := newBumpFixture([]string{"v1.2.3"})
		f.git.On("GetHeadCommit", mock.Anything).Return("base", nil)
		f.git.On("TagExists", mock.Anything, "v2.0.0").Return(true, nil)

		_, err := f.orch.Execute(ctx, BumpConfig{Kind: domain.BumpMajor})
		assert.ErrorIs(t, err, ErrTagExists)
		f.manifests.AssertNotCalled(t, "Detect", mock.Anything)
	})

	t.Run("Should compensate the commit when tagging fails", func(t *testing.T) {
		f := newBumpFixture([]string{"v1.2.3"})
		f.git.On("GetHeadCommit", mock.Anything).Return("base", nil).Once()
		f.git.On("GetHeadCommit", mock.Anything).Return("release", nil)
		f.git.On("TagExists", mock.Anything, "v1.2.4").Return(false, nil)
		f.manifests.On("Detect", mock.Anything).Return(cargo, nil)
		f.manifests.On("Update", mock.Anything, cargo, "1.2.4").Return([]string{"Cargo.toml"}, nil)
		f.git.On("AddFiles", mock.Anything, "Cargo.toml").Return(nil)
		f.git.On("Commit", mock.Anything, mock.Anything).Return(nil)
		f.git.On("CreateTag", mock.Anything, "v1.2.4", mock.Anything).Return(errors.New("ref locked"))
		f.git.On("ResetHard", mock.Anything, "base").Return(nil)
		f.git.On("GetFileStatus", mock.Anything, "Cargo.toml").Return("clean", nil)

		result, err := f.orch.Execute(ctx, BumpConfig{Kind: domain.BumpPatch})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ref locked")
		assert.NotEmpty(t, result.SessionID)
		f.git.AssertCalled(t, "ResetHard", mock.Anything, "base")
		f.git.AssertNotCalled(t, "RestoreFile", mock.Anything, mock.Anything)
		f.git.AssertNotCalled(t, "DeleteLocalTag", mock.Anything, mock.Anything)
	})

	t.Run("Should restore a partial manifest rewrite", func(t *testing.T) {
		f := newBumpFixture([]string{"v1.2.3"})
		both := append(cargo, domain.Manifest{Kind: domain.ManifestNpm, Path: "package.json", Version: "1.2.3"})
		f.git.On("GetHeadCommit", mock.Anything).Return("base", nil)
		f.git.On("TagExists", mock.Anything, "v1.2.4").Return(false, nil)
		f.manifests.On("Detect", mock.Anything).Return(both, nil)
		f.manifests.On("Update", mock.Anything, both, "1.2.4").Return([]string{"Cargo.toml"}, errors.New("bad json"))
		f.git.On("GetFileStatus", mock.Anything, "Cargo.toml").Return("modified", nil)
		f.git.On("RestoreFile", mock.Anything, "Cargo.toml").Return(nil)

		_, err := f.orch.Execute(ctx, BumpConfig{Kind: domain.BumpPatch})
		assert.ErrorContains(t, err, "bad json")
		f.git.AssertCalled(t, "RestoreFile", mock.Anything, "Cargo.toml")
		f.git.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
	})

	t.Run("Should only describe the bump in dry-run mode", func(t *testing.T) {
		f := newBumpFixture([]string{"rel-0.9.0"})
		f.git.On("TagExists", mock.Anything, "rel-0.10.0").Return(false, nil)
		f.manifests.On("Detect", mock.Anything).Return(cargo, nil)

		result, err := f.orch.Execute(ctx, BumpConfig{Kind: domain.BumpMinor, DryRun: true})
		require.NoError(t, err)
		assert.True(t, result.DryRun)
		assert.Equal(t, "rel-0.10.0", result.Tag)
		assert.Equal(t, "rel-", result.Plan.Resolution.InferredPrefix)
		assert.Contains(t, f.out.String(), "would set Cargo.toml version 1.2.3 -> 0.10.0")
		f.git.AssertNotCalled(t, "GetHeadCommit", mock.Anything)
		f.state.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestBumpOrchestrator_Rollback(t *testing.T) {
	ctx := context.Background()

	completedState := func() *domain.WorkflowState {
		state := domain.NewWorkflowState("session-9")
		state.Tag = "v1.3.0"
		for _, op := range []struct {
			opType domain.OperationType
			data   map[string]any
		}{
			{domain.OperationTypeResolveVersion, map[string]any{"tag": "v1.3.0"}},
			{domain.OperationTypeUpdateManifests, map[string]any{"modified_files": []any{"Cargo.toml"}}},
			{domain.OperationTypeCommitRelease, map[string]any{"commit_sha": "release", "base_commit": "base"}},
			{domain.OperationTypeCreateTag, map[string]any{"tag": "v1.3.0", "created_in_session": true}},
		} {
			state.AddOperation(op.opType)
			state.MarkOperationStarted(op.opType)
			state.MarkOperationCompleted(op.opType, op.data)
		}
		state.Status = domain.WorkflowStatusCompleted
		return state
	}

	t.Run("Should undo the latest session", func(t *testing.T) {
		f := newBumpFixture(nil)
		state := completedState()
		f.state.On("LoadLatest", mock.Anything).Return(state, nil)
		f.state.On("Load", mock.Anything, "session-9").Return(state, nil)
		f.git.On("TagExists", mock.Anything, "v1.3.0").Return(true, nil)
		f.git.On("DeleteLocalTag", mock.Anything, "v1.3.0").Return(nil)
		f.git.On("GetHeadCommit", mock.Anything).Return("release", nil)
		f.git.On("ResetHard", mock.Anything, "base").Return(nil)
		f.git.On("GetFileStatus", mock.Anything, "Cargo.toml").Return("clean", nil)

		result, err := f.orch.Execute(ctx, BumpConfig{Rollback: true})
		require.NoError(t, err)
		assert.Equal(t, "session-9", result.SessionID)
		assert.Equal(t, domain.WorkflowStatusRolledBack, state.Status)
		f.git.AssertExpectations(t)
	})

	t.Run("Should not roll back twice", func(t *testing.T) {
		f := newBumpFixture(nil)
		state := completedState()
		state.Status = domain.WorkflowStatusRolledBack
		f.state.On("Load", mock.Anything, "session-9").Return(state, nil)

		_, err := f.orch.Execute(ctx, BumpConfig{Rollback: true, SessionID: "session-9"})
		require.NoError(t, err)
		assert.Contains(t, f.out.String(), "already rolled back")
		f.git.AssertNotCalled(t, "DeleteLocalTag", mock.Anything, mock.Anything)
	})
}
