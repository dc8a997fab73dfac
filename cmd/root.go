package cmd

import (
	"github.com/compozy/releasetag/pkg/version"
	"github.com/spf13/cobra"
)

// annotationConfigOptional marks commands that must run even when the
// configuration cannot be loaded, so a broken setting can still be fixed.
const annotationConfigOptional = "releasetag/config-optional"

var rootCmd = &cobra.Command{
	Use:   "releasetag",
	Short: "Version tagging and tag synchronisation for git projects",
	Long: `releasetag resolves the current version from git tags, bumps it,
keeps local and remote tags in sync and publishes GitHub releases.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var logLevel string

func init() {
	rootCmd.Version = version.Summary()
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error or none (default from config, warn)")
}

func Execute() error {
	return rootCmd.Execute()
}
