package repository

import (
	"fmt"
	"strings"

	"github.com/compozy/releasetag/internal/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// NewAuth picks the transport credentials for remoteURL. ssh remotes use the
// key at sshKeyPath when set and the ssh agent otherwise; https remotes use
// the GitHub token. A nil method means anonymous access.
func NewAuth(remoteURL, sshKeyPath, token string) (transport.AuthMethod, error) {
	if config.IsSSHURL(remoteURL) {
		if sshKeyPath == "" {
			return nil, nil
		}
		keys, err := ssh.NewPublicKeysFromFile(sshUser(remoteURL), sshKeyPath, "")
		if err != nil {
			return nil, fmt.Errorf("failed to load ssh key %s: %w", sshKeyPath, err)
		}
		return keys, nil
	}
	if token == "" || !strings.HasPrefix(remoteURL, "http") {
		return nil, nil
	}
	// Use x-access-token as username for GitHub token authentication
	return &http.BasicAuth{
		Username: "x-access-token",
		Password: token,
	}, nil
}

func sshUser(remoteURL string) string {
	rest := strings.TrimPrefix(remoteURL, "ssh://")
	if user, _, ok := strings.Cut(rest, "@"); ok && user != "" && !strings.Contains(user, "/") {
		return user
	}
	return ssh.DefaultUsername
}
