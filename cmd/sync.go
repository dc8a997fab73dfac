package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/compozy/releasetag/internal/domain"
	"github.com/compozy/releasetag/internal/usecase"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// newSyncCmd creates the sync command
func newSyncCmd(c *container) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push local-only tags and pull remote-only tags",
		Long: `Compare local tags with the remote, show where every tag stands and,
after confirmation, pull the remote-only tags and push the local-only ones.
Tags present on both sides are never touched, even if they point at
different commits. Running several sync or reset commands against the same
repository at once has an undefined outcome.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			repo, err := c.repo()
			if err != nil {
				return err
			}
			plan, err := (&usecase.ComputeSyncPlanUseCase{Tags: repo}).Execute(ctx)
			if err != nil {
				return err
			}
			if plan.IsSynchronized() {
				fmt.Fprintf(out, "✅ %d tag(s) already in sync\n", len(plan.InSync))
				return nil
			}
			renderSyncPlan(out, plan)
			session := usecase.NewSyncSession(repo, c.confirmer(out, yes),
				usecase.WithLogger(c.log),
				usecase.WithProgress(func(e usecase.ProgressEvent) {
					switch e.Kind {
					case usecase.ProgressPulled:
						fmt.Fprintf(out, "⬇️  Pulled %s\n", strings.Join(e.Tags, ", "))
					case usecase.ProgressPushed:
						fmt.Fprintf(out, "⬆️  Pushed %s\n", strings.Join(e.Tags, ", "))
					}
				}))
			state, err := session.Run(ctx, plan)
			if err != nil {
				var partial *domain.PartialSyncError
				if errors.As(err, &partial) {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s pushed %s, not pushed %s\n",
						color.YellowString("partial sync:"),
						strings.Join(partial.Pushed, ", "),
						strings.Join(append([]string{partial.Failed}, partial.Remaining...), ", "))
				}
				return err
			}
			switch state {
			case domain.SessionStateCancelled:
				fmt.Fprintln(out, "Sync cancelled, nothing changed")
			case domain.SessionStateDone:
				fmt.Fprintln(out, "✅ Tags synchronized")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
