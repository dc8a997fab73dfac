package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/stretchr/testify/mock"
)

// fakeTagStore keeps both tag stores in memory, name -> target.
type fakeTagStore struct {
	local  map[string]string
	remote map[string]string
	calls  []string

	listRemoteErr error
	pullErr       error
	pushErr       map[string]error
	resolveErr    map[string]error
}

func newFakeTagStore(local, remote map[string]string) *fakeTagStore {
	if local == nil {
		local = map[string]string{}
	}
	if remote == nil {
		remote = map[string]string{}
	}
	return &fakeTagStore{local: local, remote: remote, pushErr: map[string]error{}, resolveErr: map[string]error{}}
}

func (f *fakeTagStore) ListLocalTagNames(_ context.Context) ([]string, error) {
	f.calls = append(f.calls, "list-local")
	return keys(f.local), nil
}

func (f *fakeTagStore) ListRemoteTagNames(_ context.Context) ([]string, error) {
	f.calls = append(f.calls, "list-remote")
	if f.listRemoteErr != nil {
		return nil, f.listRemoteErr
	}
	return keys(f.remote), nil
}

func (f *fakeTagStore) DeleteLocalTag(_ context.Context, name string) error {
	f.calls = append(f.calls, "delete:"+name)
	if _, ok := f.local[name]; !ok {
		return fmt.Errorf("tag %s not found", name)
	}
	delete(f.local, name)
	return nil
}

func (f *fakeTagStore) CreateLocalTag(_ context.Context, name, target string) error {
	f.calls = append(f.calls, "create:"+name)
	f.local[name] = target
	return nil
}

func (f *fakeTagStore) PullRemoteTags(_ context.Context, names []string) error {
	f.calls = append(f.calls, fmt.Sprintf("pull:%v", names))
	if f.pullErr != nil {
		return f.pullErr
	}
	for _, name := range names {
		f.local[name] = f.remote[name]
	}
	return nil
}

func (f *fakeTagStore) PushLocalTag(_ context.Context, name string) error {
	f.calls = append(f.calls, "push:"+name)
	if err := f.pushErr[name]; err != nil {
		return err
	}
	f.remote[name] = f.local[name]
	return nil
}

func (f *fakeTagStore) ResolveRemoteRef(_ context.Context, name string) (string, error) {
	f.calls = append(f.calls, "resolve:"+name)
	if err := f.resolveErr[name]; err != nil {
		return "", err
	}
	target, ok := f.remote[name]
	if !ok {
		return "", fmt.Errorf("remote tag %s not found", name)
	}
	return target, nil
}

// mutations returns the calls that change either store.
func (f *fakeTagStore) mutations() []string {
	var out []string
	for _, c := range f.calls {
		switch {
		case c == "list-local", c == "list-remote":
		case len(c) > 8 && c[:8] == "resolve:":
		default:
			out = append(out, c)
		}
	}
	return out
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type mockConfirmer struct {
	mock.Mock
}

func (m *mockConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	args := m.Called(ctx, prompt)
	return args.Bool(0), args.Error(1)
}

type mockGitRepository struct {
	mock.Mock
	*fakeTagStore
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
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
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

func newMockGitRepository(local map[string]string) *mockGitRepository {
	return &mockGitRepository{fakeTagStore: newFakeTagStore(local, nil)}
}
