package cmd

import (
	"fmt"

	"github.com/compozy/releasetag/internal/repository"
	"github.com/compozy/releasetag/internal/usecase"
	"github.com/spf13/cobra"
)

// newInitCmd creates the init command
func newInitCmd(c *container) *cobra.Command {
	return &cobra.Command{
		Use:         "init",
		Short:       "Initialise a git repository on the base branch with an initial commit",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationConfigOptional: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := &usecase.InitProjectUseCase{
				FS:   c.fs,
				Path: c.workDir,
				Open: func(path string) (repository.GitRepository, error) {
					return repository.InitGitRepository(path, repository.GitOptions{
						RemoteName:    c.cfg.RemoteName,
						DefaultBranch: c.cfg.BaseBranch,
						Logger:        c.log,
					})
				},
			}
			repo, err := uc.Execute(cmd.Context())
			if err != nil {
				return err
			}
			c.gitRepo = repo
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Initialized repository in %s\n", repo.Root())
			return nil
		},
	}
}
