package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/compozy/releasetag/internal/config"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

// newConfigCmd creates the config command
func newConfigCmd(c *container) *cobra.Command {
	var assignments []string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change persisted settings",
		Long: fmt.Sprintf(`Without flags, print the effective configuration.
With --set KEY=VALUE, persist a setting in the user settings file.

Supported keys: %s`, strings.Join(config.SupportedKeys(), ", ")),
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationConfigOptional: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if len(assignments) == 0 {
				printConfig(cmd, c.cfg)
				return nil
			}
			store, err := c.settingsStore()
			if err != nil {
				return err
			}
			// parse everything first so a bad assignment writes nothing
			settings := make([]config.Setting, 0, len(assignments))
			for _, a := range assignments {
				setting, err := config.ParseSetting(a)
				if err != nil {
					return err
				}
				settings = append(settings, setting)
			}
			for _, setting := range settings {
				if err := store.Save(setting); err != nil {
					return err
				}
				setting.Apply(c.cfg)
				fmt.Fprintf(out, "✅ Set %s in %s\n", setting.Key(), store.Path())
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&assignments, "set", nil, "Persist a setting as KEY=VALUE (repeatable)")
	return cmd
}

func printConfig(cmd *cobra.Command, cfg *config.Config) {
	values := map[string]string{
		"github_token":   maskToken(cfg.GithubToken),
		"github_owner":   cfg.GithubOwner,
		"github_repo":    cfg.GithubRepo,
		"version_prefix": cfg.VersionPrefix,
		"remote_name":    cfg.RemoteName,
		"base_branch":    cfg.BaseBranch,
		"ssh_key_path":   cfg.SSHKeyPath,
		"log_level":      cfg.LogLevel,
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	table := uitable.New()
	table.AddRow("KEY", "VALUE")
	for _, k := range keys {
		v := values[k]
		if v == "" {
			v = "-"
		}
		table.AddRow(k, v)
	}
	fmt.Fprintln(cmd.OutOrStdout(), table)
}

func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", 8) + token[len(token)-4:]
}
