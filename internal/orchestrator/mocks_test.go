package orchestrator

import (
	"context"

	"github.com/compozy/releasetag/internal/domain"
	"github.com/stretchr/testify/mock"
)

// mockGitRepository implements repository.GitRepository
type mockGitRepository struct{ mock.Mock }

func (m *mockGitRepository) ListLocalTagNames(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return stringsArg(args, 0), args.Error(1)
}
func (m *mockGitRepository) ListRemoteTagNames(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return stringsArg(args, 0), args.Error(1)
}
func (m *mockGitRepository) DeleteLocalTag(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}
func (m *mockGitRepository) CreateLocalTag(ctx context.Context, name, target string) error {
	args := m.Called(ctx, name, target)
	return args.Error(0)
}
func (m *mockGitRepository) PullRemoteTags(ctx context.Context, names []string) error {
	args := m.Called(ctx, names)
	return args.Error(0)
}
func (m *mockGitRepository) PushLocalTag(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}
func (m *mockGitRepository) ResolveRemoteRef(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}
func (m *mockGitRepository) TagExists(ctx context.Context, tag string) (bool, error) {
	args := m.Called(ctx, tag)
	return args.Bool(0), args.Error(1)
}
func (m *mockGitRepository) CreateTag(ctx context.Context, tag, msg string) error {
	args := m.Called(ctx, tag, msg)
	return args.Error(0)
}
func (m *mockGitRepository) DeleteTag(ctx context.Context, tag string) error {
	args := m.Called(ctx, tag)
	return args.Error(0)
}
func (m *mockGitRepository) AddFiles(ctx context.Context, pattern string) error {
	args := m.Called(ctx, pattern)
	return args.Error(0)
}
func (m *mockGitRepository) Commit(ctx context.Context, message string) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}
func (m *mockGitRepository) GetHeadCommit(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
func (m *mockGitRepository) CommitCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
func (m *mockGitRepository) CommitMessagesSince(ctx context.Context, tag string) ([]string, error) {
	args := m.Called(ctx, tag)
	return stringsArg(args, 0), args.Error(1)
}
func (m *mockGitRepository) GetCurrentBranch(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
func (m *mockGitRepository) RemoteURL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
func (m *mockGitRepository) RestoreFile(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}
func (m *mockGitRepository) ResetHard(ctx context.Context, ref string) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}
func (m *mockGitRepository) GetFileStatus(ctx context.Context, path string) (string, error) {
	args := m.Called(ctx, path)
	return args.String(0), args.Error(1)
}
func (m *mockGitRepository) Root() string {
	return "."
}

// mockGithubRepository implements repository.GithubRepository
type mockGithubRepository struct{ mock.Mock }

func (m *mockGithubRepository) CreateRelease(ctx context.Context, tag string, prerelease bool) (*domain.Release, error) {
	args := m.Called(ctx, tag, prerelease)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Release), args.Error(1)
}
func (m *mockGithubRepository) GetReleaseByTag(ctx context.Context, tag string) (*domain.Release, error) {
	args := m.Called(ctx, tag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Release), args.Error(1)
}
func (m *mockGithubRepository) ListReleases(ctx context.Context, limit int) ([]domain.Release, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Release), args.Error(1)
}

// mockManifestService implements service.ManifestService
type mockManifestService struct{ mock.Mock }

func (m *mockManifestService) Detect(ctx context.Context) ([]domain.Manifest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Manifest), args.Error(1)
}
func (m *mockManifestService) Update(ctx context.Context, manifests []domain.Manifest, version string) ([]string, error) {
	args := m.Called(ctx, manifests, version)
	return stringsArg(args, 0), args.Error(1)
}

// MockStateRepository is a mock implementation of StateRepository
type MockStateRepository struct {
	mock.Mock
}

func (m *MockStateRepository) Save(ctx context.Context, state *domain.WorkflowState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}
func (m *MockStateRepository) Load(ctx context.Context, sessionID string) (*domain.WorkflowState, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WorkflowState), args.Error(1)
}
func (m *MockStateRepository) LoadLatest(ctx context.Context) (*domain.WorkflowState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WorkflowState), args.Error(1)
}
func (m *MockStateRepository) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}
func (m *MockStateRepository) Exists(ctx context.Context, sessionID string) (bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Bool(0), args.Error(1)
}

type mockConfirmer struct{ mock.Mock }

func (m *mockConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	args := m.Called(ctx, prompt)
	return args.Bool(0), args.Error(1)
}

func stringsArg(args mock.Arguments, i int) []string {
	if args.Get(i) == nil {
		return nil
	}
	return args.Get(i).([]string)
}
