package cmd

import (
	"fmt"

	"github.com/compozy/releasetag/internal/config"
	"github.com/compozy/releasetag/internal/domain"
	"github.com/compozy/releasetag/internal/orchestrator"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newBumpCmd creates the patch, minor or major command
func newBumpCmd(c *container, kindName string) *cobra.Command {
	var (
		dryRun      bool
		noChangelog bool
		rollback    bool
		sessionID   string
	)
	cmd := &cobra.Command{
		Use:   kindName,
		Short: fmt.Sprintf("Create the next %s release tag", kindName),
		Long: fmt.Sprintf(`Create the next %s release from the latest local version tag.

The command rewrites the version of Cargo.toml, package.json and
pyproject.toml when present, prepends a CHANGELOG.md section, commits
"chore: release <tag>" and creates an annotated tag at HEAD.

Every step is recorded under %s. A failed run is rolled back
automatically; --rollback undoes a recorded session explicitly.`, kindName, ".release-state"),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, err := domain.ParseBumpKind(kindName)
			if err != nil {
				return err
			}
			repo, err := c.repo()
			if err != nil {
				return err
			}
			fs, err := c.projectFS()
			if err != nil {
				return err
			}
			manifests, err := c.manifestService()
			if err != nil {
				return err
			}
			changelog, err := c.changelogService()
			if err != nil {
				return err
			}
			state, err := c.stateRepo()
			if err != nil {
				return err
			}
			orch := orchestrator.NewBumpOrchestrator(repo, fs, manifests, changelog, state, c.log, cmd.OutOrStdout())
			result, err := orch.Execute(cmd.Context(), orchestrator.BumpConfig{
				Kind:      kind,
				Prefix:    c.cfg.VersionPrefix,
				DryRun:    dryRun,
				Changelog: !noChangelog,
				Rollback:  rollback,
				SessionID: sessionID,
			})
			if err != nil {
				if result != nil && result.SessionID != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Session: %s\n", result.SessionID)
				}
				return err
			}
			if result.Plan != nil {
				warnMixedPrefixes(cmd, result.Plan.Resolution)
				if !result.DryRun {
					c.recordInferredPrefix(cmd, result.Plan.Resolution)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the next version without changing anything")
	cmd.Flags().BoolVar(&noChangelog, "no-changelog", false, "Do not update CHANGELOG.md")
	cmd.Flags().BoolVar(&rollback, "rollback", false, "Roll back a recorded bump session")
	cmd.Flags().StringVar(&sessionID, "session-id", "", "Session ID to roll back (uses latest if not specified)")
	return cmd
}

func warnMixedPrefixes(cmd *cobra.Command, res domain.Resolution) {
	if res.MixedPrefixes() {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  Tags use several prefixes %q, keeping %q\n",
			res.Prefixes, res.Version.Prefix())
	}
}

// recordInferredPrefix persists a prefix learned from existing tags so later
// runs keep using it.
func (c *container) recordInferredPrefix(cmd *cobra.Command, res domain.Resolution) {
	if res.InferredPrefix == "" {
		return
	}
	store, err := c.settingsStore()
	if err != nil {
		c.log.Warn("Cannot record version prefix", zap.Error(err))
		return
	}
	setting := config.VersionPrefixSetting{Prefix: res.InferredPrefix}
	if err := store.Save(setting); err != nil {
		c.log.Warn("Cannot record version prefix", zap.Error(err))
		return
	}
	setting.Apply(c.cfg)
	fmt.Fprintf(cmd.OutOrStdout(), "📌 Recorded version prefix %q in %s\n", res.InferredPrefix, store.Path())
}
