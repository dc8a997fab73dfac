package cmd

import (
	"github.com/compozy/releasetag/internal/orchestrator"
	"github.com/spf13/cobra"
)

// newReleaseCmd creates the release command
func newReleaseCmd(c *container) *cobra.Command {
	var (
		tag   string
		list  bool
		yes   bool
		limit int
	)
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Publish a GitHub release for a version tag",
		Long: `Publish a GitHub release with generated notes for --tag, or for the
latest local version tag. The tag must already be on the remote.
--list prints the most recent releases instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			repo, err := c.repo()
			if err != nil {
				return err
			}
			gh, err := c.githubRepo(ctx)
			if err != nil {
				return err
			}
			orch := orchestrator.NewReleaseOrchestrator(repo, gh, c.confirmer(cmd.OutOrStdout(), yes),
				c.log, cmd.OutOrStdout())
			if list {
				releases, err := orch.List(ctx, limit)
				if err != nil {
					return err
				}
				renderReleases(cmd.OutOrStdout(), releases)
				return nil
			}
			_, err = orch.Execute(ctx, orchestrator.ReleaseConfig{Tag: tag})
			return err
		},
	}
	cmd.Flags().StringVar(&tag, "tag", "", "Tag to release (defaults to the latest local version)")
	cmd.Flags().BoolVar(&list, "list", false, "List recent releases")
	cmd.Flags().IntVar(&limit, "limit", orchestrator.ReleaseListLimit, "Number of releases to list")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.MarkFlagsMutuallyExclusive("tag", "list")
	return cmd
}
