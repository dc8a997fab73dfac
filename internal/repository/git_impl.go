package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/compozy/releasetag/internal/domain"
	"github.com/compozy/releasetag/internal/logger"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"go.uber.org/zap"
)

// GitOptions configures how the repository talks to its remote.
type GitOptions struct {
	RemoteName string
	// DefaultBranch is the initial branch of repositories created by
	// InitGitRepository.
	DefaultBranch string
	// Auth overrides the credentials derived from SSHKeyPath and Token.
	Auth       transport.AuthMethod
	SSHKeyPath string
	Token      string
	Logger     *zap.Logger
}

// DefaultBranch is the initial branch used when GitOptions leaves it empty.
const DefaultBranch = "main"

// gitRepository is the implementation of the GitRepository interface.
type gitRepository struct {
	repo       *git.Repository
	root       string
	remoteName string
	auth       transport.AuthMethod
	log        *zap.Logger
	// trackingFetched is set once remote tags were mirrored below refs/remotes
	trackingFetched bool
}

// OpenGitRepository opens the repository containing path. The handle is meant
// to be opened once per invocation and passed to every operation.
func OpenGitRepository(path string, opts GitOptions) (GitRepository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}
	return newGitRepository(repo, opts)
}

// InitGitRepository creates a new repository at path on opts.DefaultBranch,
// or main when it is empty.
func InitGitRepository(path string, opts GitOptions) (GitRepository, error) {
	branch := opts.DefaultBranch
	if branch == "" {
		branch = DefaultBranch
	}
	repo, err := git.PlainInitWithOptions(path, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName(branch)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize git repository: %w", err)
	}
	return newGitRepository(repo, opts)
}

func newGitRepository(repo *git.Repository, opts GitOptions) (*gitRepository, error) {
	w, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	remoteName := opts.RemoteName
	if remoteName == "" {
		remoteName = git.DefaultRemoteName
	}
	log := logger.OrNop(opts.Logger)
	auth := opts.Auth
	if auth == nil {
		if remote, err := repo.Remote(remoteName); err == nil && len(remote.Config().URLs) > 0 {
			auth, err = NewAuth(remote.Config().URLs[0], opts.SSHKeyPath, opts.Token)
			if err != nil {
				return nil, err
			}
		}
	}
	return &gitRepository{
		repo:       repo,
		root:       w.Filesystem.Root(),
		remoteName: remoteName,
		auth:       auth,
		log:        log.With(zap.String("remote", remoteName)),
	}, nil
}

func (r *gitRepository) Root() string {
	return r.root
}

// ListLocalTagNames returns every tag under refs/tags, sorted.
func (r *gitRepository) ListLocalTagNames(_ context.Context) ([]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to get tags: %w", err)
	}
	var names []string
	if err := iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// ListRemoteTagNames asks the remote for its advertised tags.
func (r *gitRepository) ListRemoteTagNames(ctx context.Context) ([]string, error) {
	remote, err := r.repo.Remote(r.remoteName)
	if err != nil {
		return nil, classifyRemoteError("failed to get remote "+r.remoteName, err)
	}
	refs, err := remote.ListContext(ctx, &git.ListOptions{
		Auth:          r.auth,
		PeelingOption: git.IgnorePeeled,
	})
	if errors.Is(err, transport.ErrEmptyRemoteRepository) {
		// a reachable remote without refs holds no tags
		return []string{}, nil
	}
	if err != nil {
		return nil, classifyRemoteError("failed to list remote refs", err)
	}
	seen := make(map[string]struct{}, len(refs))
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		if !ref.Name().IsTag() {
			continue
		}
		name := strings.TrimSuffix(ref.Name().Short(), "^{}")
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	r.log.Debug("Listed remote tags", zap.Int("count", len(names)))
	return names, nil
}

// DeleteLocalTag removes refs/tags/<name>.
func (r *gitRepository) DeleteLocalTag(_ context.Context, name string) error {
	if err := r.repo.DeleteTag(name); err != nil {
		return fmt.Errorf("failed to delete tag %s: %w", name, err)
	}
	return nil
}

// CreateLocalTag points refs/tags/<name> at an existing object.
func (r *gitRepository) CreateLocalTag(_ context.Context, name, target string) error {
	if !plumbing.IsHash(target) {
		return fmt.Errorf("failed to create tag %s: invalid target %q", name, target)
	}
	hash := plumbing.NewHash(target)
	if err := r.repo.Storer.HasEncodedObject(hash); err != nil {
		return fmt.Errorf("failed to create tag %s: target %s not in object store: %w", name, target, err)
	}
	ref := plumbing.NewHashReference(plumbing.NewTagReferenceName(name), hash)
	if err := r.repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("failed to create tag %s: %w", name, err)
	}
	return nil
}

// PullRemoteTags fetches the named tags into refs/tags with one fetch.
func (r *gitRepository) PullRemoteTags(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	specs := make([]config.RefSpec, 0, len(names))
	for _, name := range names {
		ref := plumbing.NewTagReferenceName(name)
		specs = append(specs, config.RefSpec(fmt.Sprintf("+%s:%s", ref, ref)))
	}
	if err := r.fetch(ctx, specs); err != nil {
		return classifyRemoteError("failed to pull tags", err)
	}
	r.log.Debug("Pulled tags", zap.Strings("tags", names))
	return nil
}

// PushLocalTag pushes a single tag to the remote.
func (r *gitRepository) PushLocalTag(ctx context.Context, name string) error {
	ref := plumbing.NewTagReferenceName(name)
	err := r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: r.remoteName,
		RefSpecs:   []config.RefSpec{config.RefSpec(fmt.Sprintf("%s:%s", ref, ref))},
		Auth:       r.auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return classifyRemoteError("failed to push tag "+name, err)
	}
	r.log.Debug("Pushed tag", zap.String("tag", name))
	return nil
}

// ResolveRemoteRef resolves refs/remotes/<remote>/tags/<name>. Remote tags are
// mirrored into that namespace on the first call of the handle.
func (r *gitRepository) ResolveRemoteRef(ctx context.Context, name string) (string, error) {
	if !r.trackingFetched {
		spec := config.RefSpec(fmt.Sprintf("+refs/tags/*:%s", r.trackingRef("*")))
		if err := r.fetch(ctx, []config.RefSpec{spec}); err != nil {
			return "", classifyRemoteError("failed to fetch remote tags", err)
		}
		r.trackingFetched = true
	}
	ref, err := r.repo.Reference(r.trackingRef(name), true)
	if err != nil {
		return "", fmt.Errorf("failed to resolve remote tag %s: %w", name, err)
	}
	return ref.Hash().String(), nil
}

func (r *gitRepository) trackingRef(name string) plumbing.ReferenceName {
	return plumbing.ReferenceName(fmt.Sprintf("refs/remotes/%s/tags/%s", r.remoteName, name))
}

func (r *gitRepository) fetch(ctx context.Context, specs []config.RefSpec) error {
	err := r.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: r.remoteName,
		RefSpecs:   specs,
		Auth:       r.auth,
		Tags:       git.NoTags,
		Force:      true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return err
	}
	return nil
}

// classifyRemoteError maps transport failures onto the domain taxonomy.
func classifyRemoteError(msg string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		errors.Is(err, transport.ErrInvalidAuthMethod):
		return fmt.Errorf("%s: %w: %w", msg, domain.ErrAuthFailure, err)
	case errors.Is(err, git.ErrRemoteNotFound),
		errors.Is(err, transport.ErrRepositoryNotFound),
		errors.As(err, &netErr):
		return fmt.Errorf("%s: %w: %w", msg, domain.ErrRemoteUnavailable, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// TagExists checks if a tag exists.
func (r *gitRepository) TagExists(_ context.Context, tag string) (bool, error) {
	_, err := r.repo.Tag(tag)
	if errors.Is(err, git.ErrTagNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check tag %s: %w", tag, err)
	}
	return true, nil
}

// CreateTag creates an annotated tag at HEAD.
func (r *gitRepository) CreateTag(_ context.Context, tag, msg string) error {
	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("failed to get HEAD: %w", err)
	}
	_, err = r.repo.CreateTag(tag, head.Hash(), &git.CreateTagOptions{
		Message: msg,
		Tagger:  r.signature(),
	})
	if err != nil {
		return fmt.Errorf("failed to create tag %s: %w", tag, err)
	}
	return nil
}

// DeleteTag deletes a local tag.
func (r *gitRepository) DeleteTag(ctx context.Context, tag string) error {
	return r.DeleteLocalTag(ctx, tag)
}

// signature uses the configured git identity, falling back to a tool identity.
func (r *gitRepository) signature() *object.Signature {
	sig := &object.Signature{Name: "releasetag", Email: "releasetag@localhost", When: time.Now()}
	cfg, err := r.repo.ConfigScoped(config.GlobalScope)
	if err != nil {
		return sig
	}
	if cfg.User.Name != "" {
		sig.Name = cfg.User.Name
	}
	if cfg.User.Email != "" {
		sig.Email = cfg.User.Email
	}
	return sig
}

// AddFiles stages files matching the pattern.
func (r *gitRepository) AddFiles(_ context.Context, pattern string) error {
	w, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	// AddGlob can return an error if no files match the pattern
	// or if there are no changes to stage. We should not fail in these cases.
	err = w.AddGlob(pattern)
	if err != nil && !errors.Is(err, git.ErrGlobNoMatches) {
		return fmt.Errorf("failed to add files with pattern %s: %w", pattern, err)
	}
	return nil
}

// Commit creates a commit with the given message.
func (r *gitRepository) Commit(_ context.Context, message string) error {
	w, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	sig := r.signature()
	_, err = w.Commit(message, &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		return fmt.Errorf("failed to create commit: %w", err)
	}
	return nil
}

// GetHeadCommit returns the SHA of the current HEAD commit.
func (r *gitRepository) GetHeadCommit(_ context.Context) (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// CommitCount counts commits reachable from HEAD. An unborn HEAD counts zero.
func (r *gitRepository) CommitCount(_ context.Context) (int, error) {
	head, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get HEAD: %w", err)
	}
	commits, err := r.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return 0, fmt.Errorf("failed to get commits: %w", err)
	}
	var count int
	err = commits.ForEach(func(_ *object.Commit) error {
		count++
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return 0, fmt.Errorf("failed to iterate commits: %w", err)
	}
	return count, nil
}

// CommitMessagesSince returns the message of every commit after tag, newest first.
func (r *gitRepository) CommitMessagesSince(_ context.Context, tag string) ([]string, error) {
	stop := plumbing.ZeroHash
	if tag != "" {
		ref, err := r.repo.Tag(tag)
		if err != nil {
			return nil, fmt.Errorf("failed to get tag %s: %w", tag, err)
		}
		if stop, err = r.resolveTagCommit(ref); err != nil {
			return nil, fmt.Errorf("failed to resolve tag %s: %w", tag, err)
		}
	}
	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	commits, err := r.repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("failed to get commits: %w", err)
	}
	var messages []string
	err = commits.ForEach(func(c *object.Commit) error {
		if c.Hash == stop {
			return storer.ErrStop
		}
		messages = append(messages, strings.TrimSpace(c.Message))
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, fmt.Errorf("failed to iterate commits: %w", err)
	}
	return messages, nil
}

// resolveTagCommit peels lightweight and annotated tags to their commit.
func (r *gitRepository) resolveTagCommit(tagRef *plumbing.Reference) (plumbing.Hash, error) {
	if commit, err := r.repo.CommitObject(tagRef.Hash()); err == nil {
		return commit.Hash, nil
	}
	tagObj, err := r.repo.TagObject(tagRef.Hash())
	if err != nil {
		return plumbing.ZeroHash, err
	}
	commit, err := tagObj.Commit()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return commit.Hash, nil
}

// GetCurrentBranch returns the name of the current branch.
func (r *gitRepository) GetCurrentBranch(_ context.Context) (string, error) {
	head, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		// unborn branch: read the symbolic target instead
		ref, refErr := r.repo.Storer.Reference(plumbing.HEAD)
		if refErr != nil {
			return "", fmt.Errorf("failed to get HEAD: %w", refErr)
		}
		return ref.Target().Short(), nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	return head.Name().Short(), nil
}

// RemoteURL returns the first URL of the configured remote.
func (r *gitRepository) RemoteURL(_ context.Context) (string, error) {
	remote, err := r.repo.Remote(r.remoteName)
	if err != nil {
		return "", classifyRemoteError("failed to get remote "+r.remoteName, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no URL", r.remoteName)
	}
	return urls[0], nil
}

// RestoreFile restores a file to its state in HEAD.
func (r *gitRepository) RestoreFile(_ context.Context, path string) error {
	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("failed to get HEAD: %w", err)
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return fmt.Errorf("failed to get HEAD commit: %w", err)
	}
	file, err := commit.File(filepath.ToSlash(path))
	if err != nil {
		return fmt.Errorf("failed to get file %s from HEAD: %w", path, err)
	}
	contents, err := file.Contents()
	if err != nil {
		return fmt.Errorf("failed to get file contents: %w", err)
	}
	if err := os.WriteFile(filepath.Join(r.root, path), []byte(contents), 0o644); err != nil {
		return fmt.Errorf("failed to restore file %s: %w", path, err)
	}
	return nil
}

// ResetHard performs a hard reset to the specified reference.
func (r *gitRepository) ResetHard(_ context.Context, ref string) error {
	w, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	hash, err := r.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return fmt.Errorf("failed to resolve revision %s: %w", ref, err)
	}
	if err := w.Reset(&git.ResetOptions{Commit: *hash, Mode: git.HardReset}); err != nil {
		return fmt.Errorf("failed to reset to %s: %w", ref, err)
	}
	return nil
}

// GetFileStatus returns the git status of a specific file.
// Returns "clean" if the file has no changes, "modified" if it has uncommitted changes.
func (r *gitRepository) GetFileStatus(_ context.Context, path string) (string, error) {
	w, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := w.Status()
	if err != nil {
		return "", fmt.Errorf("failed to get status: %w", err)
	}
	// unchanged files are absent from the status map
	fileStatus, ok := status[filepath.ToSlash(path)]
	if !ok {
		return "clean", nil
	}
	if fileStatus.Worktree == git.Unmodified && fileStatus.Staging == git.Unmodified {
		return "clean", nil
	}
	return "modified", nil
}
