package config

import (
	"fmt"
	"strings"
)

// Setting is a single persisted configuration change. The set of settings is
// closed: only the types in this file implement it.
type Setting interface {
	// Key is the configuration key the setting is stored under.
	Key() string
	// Value is the value written to the settings file.
	Value() any
	// Apply copies the setting onto cfg.
	Apply(cfg *Config)
	validate() error
}

type GitHubTokenSetting struct{ Token string }

func (s GitHubTokenSetting) Key() string       { return "github_token" }
func (s GitHubTokenSetting) Value() any        { return s.Token }
func (s GitHubTokenSetting) Apply(cfg *Config) { cfg.GithubToken = s.Token }
func (s GitHubTokenSetting) validate() error   { return ValidateGitHubToken(s.Token) }

type VersionPrefixSetting struct{ Prefix string }

func (s VersionPrefixSetting) Key() string       { return "version_prefix" }
func (s VersionPrefixSetting) Value() any        { return s.Prefix }
func (s VersionPrefixSetting) Apply(cfg *Config) { cfg.VersionPrefix = s.Prefix }
func (s VersionPrefixSetting) validate() error   { return ValidateVersionPrefix(s.Prefix) }

type RemoteNameSetting struct{ Name string }

func (s RemoteNameSetting) Key() string       { return "remote_name" }
func (s RemoteNameSetting) Value() any        { return s.Name }
func (s RemoteNameSetting) Apply(cfg *Config) { cfg.RemoteName = s.Name }
func (s RemoteNameSetting) validate() error   { return ValidateRemoteName(s.Name) }

type BaseBranchSetting struct{ Branch string }

func (s BaseBranchSetting) Key() string       { return "base_branch" }
func (s BaseBranchSetting) Value() any        { return s.Branch }
func (s BaseBranchSetting) Apply(cfg *Config) { cfg.BaseBranch = s.Branch }
func (s BaseBranchSetting) validate() error   { return ValidateBranchName(s.Branch) }

type SSHKeyPathSetting struct{ Path string }

func (s SSHKeyPathSetting) Key() string       { return "ssh_key_path" }
func (s SSHKeyPathSetting) Value() any        { return s.Path }
func (s SSHKeyPathSetting) Apply(cfg *Config) { cfg.SSHKeyPath = s.Path }

func (s SSHKeyPathSetting) validate() error {
	if strings.TrimSpace(s.Path) == "" {
		return fmt.Errorf("ssh key path cannot be empty")
	}
	return nil
}

type LogLevelSetting struct{ Level string }

func (s LogLevelSetting) Key() string       { return "log_level" }
func (s LogLevelSetting) Value() any        { return s.Level }
func (s LogLevelSetting) Apply(cfg *Config) { cfg.LogLevel = s.Level }
func (s LogLevelSetting) validate() error   { return ValidateLogLevel(s.Level) }

// ParseSetting parses a KEY=VALUE assignment. Keys are matched without regard
// to case and may use either the environment form (GITHUB_TOKEN) or the file
// form (github_token).
func ParseSetting(assignment string) (Setting, error) {
	key, value, ok := strings.Cut(assignment, "=")
	if !ok {
		return nil, fmt.Errorf("invalid setting %q: expected KEY=VALUE", assignment)
	}
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.TrimPrefix(key, strings.ToLower(EnvPrefix)+"_")
	value = strings.TrimSpace(value)
	var setting Setting
	switch key {
	case "github_token":
		setting = GitHubTokenSetting{Token: value}
	case "version_prefix":
		setting = VersionPrefixSetting{Prefix: value}
	case "remote_name":
		setting = RemoteNameSetting{Name: value}
	case "base_branch":
		setting = BaseBranchSetting{Branch: value}
	case "ssh_key_path":
		setting = SSHKeyPathSetting{Path: value}
	case "log_level":
		setting = LogLevelSetting{Level: strings.ToLower(value)}
	default:
		return nil, fmt.Errorf("unknown setting %q (supported: %s)", key, strings.Join(SupportedKeys(), ", "))
	}
	if err := setting.validate(); err != nil {
		return nil, fmt.Errorf("invalid value for %s: %w", setting.Key(), err)
	}
	return setting, nil
}

// SupportedKeys lists the keys accepted by ParseSetting.
func SupportedKeys() []string {
	return []string{"GITHUB_TOKEN", "VERSION_PREFIX", "REMOTE_NAME", "BASE_BRANCH", "SSH_KEY_PATH", "LOG_LEVEL"}
}
