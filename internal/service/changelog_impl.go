package service

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

// ChangelogFile is written at the project root.
const ChangelogFile = "CHANGELOG.md"

const changelogHeader = "# Changelog\n\nThis document records all notable changes to the project.\n\n"

var conventionalHeader = regexp.MustCompile(`^(\w+)(\([^)]*\))?(!)?:\s*(.+)$`)

type changelogService struct {
	fs afero.Fs
}

// NewChangelogService creates a ChangelogService over a filesystem rooted at the project.
func NewChangelogService(fs afero.Fs) ChangelogService {
	return &changelogService{fs: fs}
}

func (s *changelogService) Render(release ChangelogRelease, messages []string) string {
	var features, fixes, breaking []string
	for _, msg := range messages {
		subject, body, _ := strings.Cut(strings.TrimSpace(msg), "\n")
		m := conventionalHeader.FindStringSubmatch(subject)
		if m == nil {
			continue
		}
		switch m[1] {
		case "feat":
			features = append(features, subject)
		case "fix":
			fixes = append(fixes, subject)
		}
		if m[3] == "!" || strings.Contains(body, "BREAKING CHANGE:") {
			breaking = append(breaking, subject)
		}
	}
	var b strings.Builder
	title := release.Tag
	if link := compareURL(release); link != "" {
		title = fmt.Sprintf("[%s](%s)", release.Tag, link)
	}
	fmt.Fprintf(&b, "## %s (%s)\n\n", title, release.Date.Format("2006-01-02"))
	writeGroup(&b, "Features", features)
	writeGroup(&b, "Bug Fixes", fixes)
	writeGroup(&b, "Breaking Changes", breaking)
	if len(features)+len(fixes)+len(breaking) == 0 {
		b.WriteString("No notable changes.\n\n")
	}
	return b.String()
}

func compareURL(release ChangelogRelease) string {
	if release.RepoURL == "" {
		return ""
	}
	base := strings.TrimSuffix(release.RepoURL, "/")
	if release.PreviousTag == "" {
		return fmt.Sprintf("%s/commits/%s", base, release.Tag)
	}
	return fmt.Sprintf("%s/compare/%s...%s", base, release.PreviousTag, release.Tag)
}

func writeGroup(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func (s *changelogService) Prepend(ctx context.Context, section string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	data, err := afero.ReadFile(s.fs, ChangelogFile)
	created := false
	switch {
	case os.IsNotExist(err):
		created = true
		data = []byte(changelogHeader)
	case err != nil:
		return false, fmt.Errorf("failed to read %s: %w", ChangelogFile, err)
	}
	content := string(data)
	var out string
	if idx := strings.Index(content, "\n## "); idx >= 0 {
		out = content[:idx+1] + section + content[idx+1:]
	} else {
		if !strings.HasSuffix(content, "\n\n") {
			content = strings.TrimRight(content, "\n") + "\n\n"
		}
		out = content + section
	}
	if err := afero.WriteFile(s.fs, ChangelogFile, []byte(out), ManifestFilePermissions); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", ChangelogFile, err)
	}
	return created, nil
}
