package repository

import "context"

// TagStore is the tag collaborator consumed by sync and reset. Local
// operations act on refs/tags of the open repository; remote operations act
// on the configured remote.
type TagStore interface {
	ListLocalTagNames(ctx context.Context) ([]string, error)
	ListRemoteTagNames(ctx context.Context) ([]string, error)
	DeleteLocalTag(ctx context.Context, name string) error
	// CreateLocalTag points refs/tags/<name> at target as returned by ResolveRemoteRef.
	CreateLocalTag(ctx context.Context, name, target string) error
	// PullRemoteTags fetches every named tag in a single round trip.
	PullRemoteTags(ctx context.Context, names []string) error
	PushLocalTag(ctx context.Context, name string) error
	// ResolveRemoteRef returns the object the remote-tracked tag points at.
	ResolveRemoteRef(ctx context.Context, name string) (string, error)
}

// GitRepository defines the interface for Git operations.
type GitRepository interface {
	TagStore
	TagExists(ctx context.Context, tag string) (bool, error)
	// CreateTag creates an annotated tag at HEAD.
	CreateTag(ctx context.Context, tag, msg string) error
	DeleteTag(ctx context.Context, tag string) error
	// Staging operations
	AddFiles(ctx context.Context, pattern string) error
	// Commit operations
	Commit(ctx context.Context, message string) error
	GetHeadCommit(ctx context.Context) (string, error)
	CommitCount(ctx context.Context) (int, error)
	// CommitMessagesSince lists commit messages from HEAD back to, but excluding,
	// the commit tag points at. An empty tag walks the whole history.
	CommitMessagesSince(ctx context.Context, tag string) ([]string, error)
	// Branch operations
	GetCurrentBranch(ctx context.Context) (string, error)
	// Remote operations
	RemoteURL(ctx context.Context) (string, error)
	// File operations
	RestoreFile(ctx context.Context, path string) error
	ResetHard(ctx context.Context, ref string) error
	GetFileStatus(ctx context.Context, path string) (string, error)
	// Root is the absolute path of the worktree.
	Root() string
}
