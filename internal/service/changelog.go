package service

import (
	"context"
	"time"
)

// ChangelogRelease describes the release a changelog section is written for.
type ChangelogRelease struct {
	Tag         string
	PreviousTag string
	// RepoURL is the browsable https address used for compare links.
	RepoURL string
	Date    time.Time
}

// ChangelogService maintains CHANGELOG.md from conventional commit messages.
type ChangelogService interface {
	// Render formats a release section from commit messages.
	Render(release ChangelogRelease, messages []string) string
	// Prepend inserts section above earlier releases and reports whether the
	// file had to be created.
	Prepend(ctx context.Context, section string) (bool, error)
}
