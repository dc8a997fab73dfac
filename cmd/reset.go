package cmd

import (
	"fmt"

	"github.com/compozy/releasetag/internal/usecase"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// newResetCmd creates the reset command
func newResetCmd(c *container) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Replace every local tag with the remote tags",
		Long: `Delete every local tag and recreate the tags of the remote at their
remote targets. Local-only tags are lost. The command does not ask for
confirmation. Running several sync or reset commands against the same
repository at once has an undefined outcome.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := c.repo()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString(
				"⚠️  reset discards local-only tags and moves local tags to their remote targets"))
			uc := &usecase.ResetTagsUseCase{Tags: repo, Logger: c.log}
			report, err := uc.Execute(cmd.Context())
			if err != nil {
				if report != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Local tags are partially rebuilt: %d deleted, %d recreated\n",
						len(report.Deleted), len(report.Created))
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Local tags reset: %d removed, %d recreated from %s\n",
				len(report.Deleted), len(report.Created), c.cfg.RemoteName)
			return nil
		},
	}
}
