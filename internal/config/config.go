package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	// ProjectConfigFile is read from the working directory and overrides the user file
	ProjectConfigFile = ".releasetag.yaml"
	// UserConfigDir holds the persisted user settings below the home directory
	UserConfigDir = ".releasetag"
	// UserConfigName is the persisted settings file inside UserConfigDir
	UserConfigName = "config.yaml"
	// EnvPrefix is prepended to every configuration key when read from the environment
	EnvPrefix = "RELEASETAG"
)

type Config struct {
	GithubToken   string `mapstructure:"github_token"`
	GithubOwner   string `mapstructure:"github_owner"`
	GithubRepo    string `mapstructure:"github_repo"`
	VersionPrefix string `mapstructure:"version_prefix"`
	RemoteName    string `mapstructure:"remote_name"`
	BaseBranch    string `mapstructure:"base_branch"`
	SSHKeyPath    string `mapstructure:"ssh_key_path"`
	LogLevel      string `mapstructure:"log_level"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		RemoteName: "origin",
		BaseBranch: "main",
		LogLevel:   "warn",
	}
}

// UserConfigPath returns the location of the persisted user settings.
func UserConfigPath(homeDir string) string {
	return filepath.Join(homeDir, UserConfigDir, UserConfigName)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// GitHub token is optional - only validate if provided
	if c.GithubToken != "" {
		if err := ValidateGitHubToken(c.GithubToken); err != nil {
			return fmt.Errorf("invalid github_token: %w", err)
		}
	}
	// Owner and repo may still be derived from the remote
	if c.GithubOwner != "" || c.GithubRepo != "" {
		if err := ValidateGitHubOwnerRepo(c.GithubOwner, c.GithubRepo); err != nil {
			return fmt.Errorf("invalid github configuration: %w", err)
		}
	}
	if err := ValidateVersionPrefix(c.VersionPrefix); err != nil {
		return fmt.Errorf("invalid version_prefix: %w", err)
	}
	if err := ValidateRemoteName(c.RemoteName); err != nil {
		return fmt.Errorf("invalid remote_name: %w", err)
	}
	if err := ValidateBranchName(c.BaseBranch); err != nil {
		return fmt.Errorf("invalid base_branch: %w", err)
	}
	if err := ValidateLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	return nil
}

// ValidateForGitHubOperations validates that GitHub token is present for operations that require it
func (c *Config) ValidateForGitHubOperations() error {
	if c.GithubToken == "" {
		return fmt.Errorf("github_token is required for GitHub operations")
	}
	if err := ValidateGitHubOwnerRepo(c.GithubOwner, c.GithubRepo); err != nil {
		return fmt.Errorf("invalid github configuration: %w", err)
	}
	return c.Validate()
}

// ValidateGitHubToken validates GitHub token format (exported for reuse)
func ValidateGitHubToken(token string) error {
	token = strings.TrimSpace(token)
	if len(token) < 40 {
		return fmt.Errorf("token too short: expected at least 40 characters")
	}
	classicPAT := regexp.MustCompile(`^[a-fA-F0-9]{40}$`)
	fineGrainedPAT := regexp.MustCompile(`^github_pat_[a-zA-Z0-9_]{82}$`)
	appToken := regexp.MustCompile(`^ghs_[a-zA-Z0-9]{36}$`)
	oauthToken := regexp.MustCompile(`^gho_[a-zA-Z0-9]{36}$`)
	personalToken := regexp.MustCompile(`^ghp_[a-zA-Z0-9]{36}$`)
	if !classicPAT.MatchString(token) &&
		!fineGrainedPAT.MatchString(token) &&
		!appToken.MatchString(token) &&
		!oauthToken.MatchString(token) &&
		!personalToken.MatchString(token) {
		return fmt.Errorf("invalid token format")
	}
	return nil
}

// ValidateGitHubOwnerRepo validates GitHub owner and repository names (exported for reuse)
func ValidateGitHubOwnerRepo(owner, repo string) error {
	if owner == "" {
		return fmt.Errorf("owner cannot be empty")
	}
	if repo == "" {
		return fmt.Errorf("repository cannot be empty")
	}
	validName := regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-_.]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)
	if !validName.MatchString(owner) {
		return fmt.Errorf("invalid owner format: %s", owner)
	}
	if len(owner) > 39 {
		return fmt.Errorf("owner too long: maximum 39 characters")
	}
	if !validName.MatchString(repo) {
		return fmt.Errorf("invalid repository format: %s", repo)
	}
	if len(repo) > 100 {
		return fmt.Errorf("repository too long: maximum 100 characters")
	}
	return nil
}

// ValidateVersionPrefix rejects prefixes that would not survive a parse of the tag.
func ValidateVersionPrefix(prefix string) error {
	if strings.ContainsAny(prefix, "0123456789") {
		return fmt.Errorf("prefix %q must not contain digits", prefix)
	}
	if strings.ContainsAny(prefix, " ~^:?*[\\") {
		return fmt.Errorf("prefix %q contains characters not allowed in tag names", prefix)
	}
	return nil
}

// ValidateRemoteName validates a git remote name.
func ValidateRemoteName(name string) error {
	if name == "" {
		return fmt.Errorf("remote name cannot be empty")
	}
	if !regexp.MustCompile(`^[a-zA-Z0-9._-]+$`).MatchString(name) {
		return fmt.Errorf("invalid remote name: %s", name)
	}
	return nil
}

// ValidateBranchName validates a git branch name.
func ValidateBranchName(branch string) error {
	if branch == "" {
		return fmt.Errorf("branch name cannot be empty")
	}
	if len(branch) > 255 {
		return fmt.Errorf("branch name too long: %d characters (max: 255)", len(branch))
	}
	if strings.HasPrefix(branch, "/") || strings.HasSuffix(branch, "/") {
		return fmt.Errorf("branch name cannot start or end with slash: %s", branch)
	}
	if strings.Contains(branch, "..") {
		return fmt.Errorf("branch name cannot contain consecutive dots: %s", branch)
	}
	if strings.HasSuffix(branch, ".lock") {
		return fmt.Errorf("branch name cannot end with .lock: %s", branch)
	}
	if !regexp.MustCompile(`^[a-zA-Z0-9._/-]+$`).MatchString(branch) {
		return fmt.Errorf("invalid branch name format: %s", branch)
	}
	return nil
}

// ValidateLogLevel accepts the levels understood by the logger package.
func ValidateLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "error", "none":
		return nil
	}
	return fmt.Errorf("unknown level %q (expected debug, info, warn, error or none)", level)
}

// LoadConfig merges defaults, the user settings file, the project file and the
// environment, in that order of precedence.
func LoadConfig(fs afero.Fs, homeDir string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// BindEnv allows multiple env vars - it will check them in order
	bindings := map[string][]string{
		"github_token":   {"GITHUB_TOKEN", EnvPrefix + "_GITHUB_TOKEN"},
		"github_owner":   {"GITHUB_OWNER", EnvPrefix + "_GITHUB_OWNER"},
		"github_repo":    {"GITHUB_REPO", EnvPrefix + "_GITHUB_REPO"},
		"version_prefix": {EnvPrefix + "_VERSION_PREFIX"},
		"remote_name":    {EnvPrefix + "_REMOTE_NAME"},
		"base_branch":    {EnvPrefix + "_BASE_BRANCH"},
		"ssh_key_path":   {EnvPrefix + "_SSH_KEY_PATH"},
		"log_level":      {EnvPrefix + "_LOG_LEVEL"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s env: %w", key, err)
		}
	}
	defaults := DefaultConfig()
	v.SetDefault("remote_name", defaults.RemoteName)
	v.SetDefault("base_branch", defaults.BaseBranch)
	v.SetDefault("log_level", defaults.LogLevel)
	files := []string{ProjectConfigFile}
	if homeDir != "" {
		files = []string{UserConfigPath(homeDir), ProjectConfigFile}
	}
	for _, path := range files {
		exists, err := afero.Exists(fs, path)
		if err != nil {
			return nil, fmt.Errorf("failed to check config file %s: %w", path, err)
		}
		if !exists {
			continue
		}
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}
