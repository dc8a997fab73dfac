package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ParseGitRemoteURL extracts the owner and repository from a GitHub remote.
// Both https and scp-like ssh forms are accepted.
func ParseGitRemoteURL(remoteURL string) (string, string, error) {
	remoteURL = strings.TrimSpace(remoteURL)
	if remoteURL == "" {
		return "", "", fmt.Errorf("remote URL is empty")
	}
	var path string
	switch {
	case strings.Contains(remoteURL, "://"):
		u, err := url.Parse(remoteURL)
		if err != nil {
			return "", "", fmt.Errorf("failed to parse remote URL %q: %w", remoteURL, err)
		}
		path = u.Path
	case IsSSHURL(remoteURL):
		// git@github.com:owner/repo.git
		_, path, _ = strings.Cut(remoteURL, ":")
	default:
		// local clones keep the owner/repo layout in their last two segments
		path = filepath.ToSlash(remoteURL)
	}
	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("remote URL %q does not point at owner/repo", remoteURL)
	}
	owner, repo := parts[len(parts)-2], parts[len(parts)-1]
	if owner == "" || repo == "" {
		return "", "", fmt.Errorf("remote URL %q does not point at owner/repo", remoteURL)
	}
	return owner, repo, nil
}

// ToHTTPSURL turns an ssh remote into its browsable https address.
func ToHTTPSURL(remoteURL string) string {
	remoteURL = strings.TrimSpace(remoteURL)
	switch {
	case strings.HasPrefix(remoteURL, "ssh://"):
		u, err := url.Parse(remoteURL)
		if err != nil {
			return remoteURL
		}
		return "https://" + u.Hostname() + strings.TrimSuffix(u.Path, ".git")
	case strings.HasPrefix(remoteURL, "git@"):
		host, path, ok := strings.Cut(strings.TrimPrefix(remoteURL, "git@"), ":")
		if !ok {
			return remoteURL
		}
		return "https://" + host + "/" + strings.TrimSuffix(path, ".git")
	}
	return strings.TrimSuffix(remoteURL, ".git")
}

// IsSSHURL reports whether the remote is reached over ssh.
func IsSSHURL(remoteURL string) bool {
	if strings.HasPrefix(remoteURL, "ssh://") {
		return true
	}
	return !strings.Contains(remoteURL, "://") && strings.Contains(remoteURL, "@") && strings.Contains(remoteURL, ":")
}

// PopulateRepositoryDefaults fills GithubOwner and GithubRepo when they were
// not configured, from GITHUB_REPOSITORY first and the remote URL second.
func PopulateRepositoryDefaults(cfg *Config, remoteURL string) error {
	if cfg.GithubOwner != "" && cfg.GithubRepo != "" {
		return nil
	}
	if slug := os.Getenv("GITHUB_REPOSITORY"); slug != "" {
		owner, repo, ok := strings.Cut(slug, "/")
		if ok && owner != "" && repo != "" {
			if cfg.GithubOwner == "" {
				cfg.GithubOwner = owner
			}
			if cfg.GithubRepo == "" {
				cfg.GithubRepo = repo
			}
			return nil
		}
	}
	owner, repo, err := ParseGitRemoteURL(remoteURL)
	if err != nil {
		return fmt.Errorf("failed to derive github repository: %w", err)
	}
	if cfg.GithubOwner == "" {
		cfg.GithubOwner = owner
	}
	if cfg.GithubRepo == "" {
		cfg.GithubRepo = repo
	}
	return nil
}
