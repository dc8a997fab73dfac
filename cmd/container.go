package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/compozy/releasetag/internal/config"
	"github.com/compozy/releasetag/internal/logger"
	"github.com/compozy/releasetag/internal/repository"
	"github.com/compozy/releasetag/internal/service"
	"github.com/compozy/releasetag/internal/usecase"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// container holds all the dependencies for the application. The git
// repository is opened at most once per invocation, on first use.
type container struct {
	fs      afero.Fs
	homeDir string
	workDir string
	in      io.Reader

	cfg     *config.Config
	log     *zap.Logger
	gitRepo repository.GitRepository
}

// newContainer creates a new container rooted at the working directory.
func newContainer() (*container, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	// a missing home only disables the user settings file
	home, _ := os.UserHomeDir()
	return &container{
		fs:      afero.NewOsFs(),
		homeDir: home,
		workDir: wd,
		in:      os.Stdin,
		cfg:     config.DefaultConfig(),
		log:     zap.NewNop(),
	}, nil
}

// setup loads the configuration and builds the logger. --log-level wins over
// the configured level.
func (c *container) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(c.fs, c.homeDir)
	if err != nil {
		if cmd.Annotations[annotationConfigOptional] != "true" {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  %v\n", err)
		cfg = config.DefaultConfig()
	}
	c.cfg = cfg
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	log, err := logger.New(level)
	if err != nil {
		return err
	}
	c.log = log
	return nil
}

// repo opens the repository containing the working directory.
func (c *container) repo() (repository.GitRepository, error) {
	if c.gitRepo != nil {
		return c.gitRepo, nil
	}
	repo, err := repository.OpenGitRepository(c.workDir, repository.GitOptions{
		RemoteName: c.cfg.RemoteName,
		SSHKeyPath: c.cfg.SSHKeyPath,
		Token:      c.cfg.GithubToken,
		Logger:     c.log,
	})
	if err != nil {
		return nil, err
	}
	c.gitRepo = repo
	return repo, nil
}

// projectFS is the worktree as a filesystem rooted at the repository root.
func (c *container) projectFS() (repository.FileSystemRepository, error) {
	repo, err := c.repo()
	if err != nil {
		return nil, err
	}
	return repository.NewProjectFileSystem(repo.Root()), nil
}

func (c *container) manifestService() (service.ManifestService, error) {
	fs, err := c.projectFS()
	if err != nil {
		return nil, err
	}
	return service.NewManifestService(fs), nil
}

func (c *container) changelogService() (service.ChangelogService, error) {
	fs, err := c.projectFS()
	if err != nil {
		return nil, err
	}
	return service.NewChangelogService(fs), nil
}

func (c *container) stateRepo() (repository.StateRepository, error) {
	repo, err := c.repo()
	if err != nil {
		return nil, err
	}
	return repository.NewJSONStateRepository(c.fs, filepath.Join(repo.Root(), repository.DefaultStateDir), c.log), nil
}

// githubRepo returns the GitHub client, or a client that refuses every
// operation when no token is configured.
func (c *container) githubRepo(ctx context.Context) (repository.GithubRepository, error) {
	repo, err := c.repo()
	if err != nil {
		return nil, err
	}
	remoteURL, _ := repo.RemoteURL(ctx)
	if err := config.PopulateRepositoryDefaults(c.cfg, remoteURL); err != nil {
		return nil, err
	}
	if c.cfg.GithubToken == "" {
		return repository.NewGithubNoopRepository(c.cfg.GithubOwner, c.cfg.GithubRepo), nil
	}
	if err := c.cfg.ValidateForGitHubOperations(); err != nil {
		return nil, err
	}
	return repository.NewGithubRepository(c.cfg.GithubToken, c.cfg.GithubOwner, c.cfg.GithubRepo)
}

func (c *container) confirmer(out io.Writer, yes bool) usecase.Confirmer {
	if yes {
		return usecase.AlwaysConfirm{}
	}
	return usecase.NewLineConfirmer(c.in, out)
}

func (c *container) settingsStore() (*config.Store, error) {
	if c.homeDir == "" {
		return nil, fmt.Errorf("cannot locate the home directory for %s", config.UserConfigName)
	}
	return config.NewStore(c.fs, c.homeDir), nil
}

// InitCommands initializes all commands with their dependencies
func InitCommands() error {
	c, err := newContainer()
	if err != nil {
		return err
	}
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return c.setup(cmd)
	}
	rootCmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		_ = c.log.Sync()
	}
	rootCmd.AddCommand(
		newBumpCmd(c, "patch"),
		newBumpCmd(c, "minor"),
		newBumpCmd(c, "major"),
		newSyncCmd(c),
		newResetCmd(c),
		newShowCmd(c),
		newInitCmd(c),
		newReleaseCmd(c),
		newConfigCmd(c),
		newVersionCmd(),
	)
	return nil
}
