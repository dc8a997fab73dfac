package cmd

import (
	"fmt"

	"github.com/compozy/releasetag/internal/usecase"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// newShowCmd creates the show command
func newShowCmd(c *container) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current version and repository summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := c.repo()
			if err != nil {
				return err
			}
			info, err := (&usecase.ShowProjectUseCase{GitRepo: repo}).Execute(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			version := color.GreenString(info.Version.String())
			if !info.Released {
				version = color.HiBlackString("%s (no release yet)", info.Version)
			}
			fmt.Fprintf(out, "📦 Version:  %s\n", version)
			fmt.Fprintf(out, "🌿 Branch:   %s\n", info.Branch)
			fmt.Fprintf(out, "📝 Commits:  %d\n", info.CommitCount)
			fmt.Fprintf(out, "🏷️  Tags:     %d\n", info.LocalTagCount)
			if info.RemoteURL != "" {
				fmt.Fprintf(out, "🔗 Remote:   %s\n", info.RemoteURL)
			}
			return nil
		},
	}
}
