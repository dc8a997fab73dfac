package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/compozy/releasetag/internal/domain"
	"github.com/spf13/afero"
)

var (
	tomlTableHeader = regexp.MustCompile(`^\s*\[([^\[\]]+)\]\s*(#.*)?$`)
	tomlVersionLine = regexp.MustCompile(`^(\s*version\s*=\s*)(["'])([^"']*)(["'])(.*)$`)
)

// manifestService is the implementation of the ManifestService interface.
// Paths are relative to the root of fs.
type manifestService struct {
	fs afero.Fs
}

// NewManifestService creates a ManifestService over a filesystem rooted at the project.
func NewManifestService(fs afero.Fs) ManifestService {
	return &manifestService{fs: fs}
}

func (s *manifestService) Detect(ctx context.Context) ([]domain.Manifest, error) {
	var found []domain.Manifest
	for _, kind := range ManifestFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := afero.ReadFile(s.fs, string(kind))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", kind, err)
		}
		version, ok, err := readVersion(kind, data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", kind, err)
		}
		if !ok {
			continue
		}
		found = append(found, domain.Manifest{Kind: kind, Path: string(kind), Version: version})
	}
	return found, nil
}

func (s *manifestService) Update(ctx context.Context, manifests []domain.Manifest, version string) ([]string, error) {
	if len(manifests) == 0 {
		return nil, domain.ErrNoManifest
	}
	updated := make([]string, 0, len(manifests))
	for _, m := range manifests {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		data, err := afero.ReadFile(s.fs, m.Path)
		if err != nil {
			return updated, fmt.Errorf("failed to read %s: %w", m.Path, err)
		}
		out, err := rewriteVersion(m.Kind, data, version)
		if err != nil {
			return updated, fmt.Errorf("failed to update %s: %w", m.Path, err)
		}
		if err := afero.WriteFile(s.fs, m.Path, out, ManifestFilePermissions); err != nil {
			return updated, fmt.Errorf("failed to write %s: %w", m.Path, err)
		}
		updated = append(updated, m.Path)
	}
	return updated, nil
}

// readVersion returns the managed version of a manifest. ok is false when the
// manifest has no plain string version, e.g. a workspace-inherited one.
func readVersion(kind domain.ManifestKind, data []byte) (string, bool, error) {
	switch kind {
	case domain.ManifestNpm:
		var pkg struct {
			Version *string `json:"version"`
		}
		if err := json.Unmarshal(data, &pkg); err != nil {
			return "", false, err
		}
		if pkg.Version == nil {
			return "", false, nil
		}
		return *pkg.Version, true, nil
	case domain.ManifestCargo, domain.ManifestPyProject:
		var doc map[string]any
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return "", false, err
		}
		for _, table := range tomlTables(kind) {
			if v, ok := lookupString(doc, append(strings.Split(table, "."), "version")...); ok {
				return v, true, nil
			}
		}
		return "", false, nil
	}
	return "", false, fmt.Errorf("unsupported manifest %s", kind)
}

// tomlTables lists the tables whose version key is managed, by priority.
func tomlTables(kind domain.ManifestKind) []string {
	if kind == domain.ManifestCargo {
		return []string{"package"}
	}
	return []string{"tool.poetry", "project"}
}

func lookupString(doc map[string]any, path ...string) (string, bool) {
	var cur any = doc
	for _, key := range path {
		table, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		if cur, ok = table[key]; !ok {
			return "", false
		}
	}
	s, ok := cur.(string)
	return s, ok
}

// rewriteVersion replaces the version in place so formatting and comments survive,
// then re-reads the result to make sure the right key was changed.
func rewriteVersion(kind domain.ManifestKind, data []byte, version string) ([]byte, error) {
	var (
		out []byte
		ok  bool
	)
	switch kind {
	case domain.ManifestNpm:
		out, ok = rewriteJSONVersion(data, version)
	case domain.ManifestCargo, domain.ManifestPyProject:
		table, err := versionTable(kind, data)
		if err != nil {
			return nil, err
		}
		var text string
		text, ok = rewriteTOMLVersion(string(data), table, version)
		out = []byte(text)
	default:
		return nil, fmt.Errorf("unsupported manifest %s", kind)
	}
	if !ok {
		return nil, fmt.Errorf("no rewritable version key")
	}
	got, found, err := readVersion(kind, out)
	if err != nil {
		return nil, fmt.Errorf("rewritten manifest does not parse: %w", err)
	}
	if !found || got != version {
		return nil, fmt.Errorf("rewritten manifest reports version %q", got)
	}
	return out, nil
}

// versionTable returns the first managed table that holds a string version.
func versionTable(kind domain.ManifestKind, data []byte) (string, error) {
	var doc map[string]any
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return "", err
	}
	for _, table := range tomlTables(kind) {
		if _, ok := lookupString(doc, append(strings.Split(table, "."), "version")...); ok {
			return table, nil
		}
	}
	return "", fmt.Errorf("no version key")
}

func rewriteTOMLVersion(content, table, version string) (string, bool) {
	lines := strings.Split(content, "\n")
	current := ""
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[[") {
			current = ""
			continue
		}
		if m := tomlTableHeader.FindStringSubmatch(line); m != nil {
			current = strings.TrimSpace(m[1])
			continue
		}
		if current != table {
			continue
		}
		if m := tomlVersionLine.FindStringSubmatch(line); m != nil {
			lines[i] = m[1] + m[2] + version + m[4] + m[5]
			return strings.Join(lines, "\n"), true
		}
	}
	return content, false
}

// rewriteJSONVersion replaces the string value of the top-level "version" key.
func rewriteJSONVersion(content []byte, version string) ([]byte, bool) {
	depth := 0
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '{', '[':
			depth++
		case '}', ']':
			depth--
		case '"':
			end := stringEnd(content, i)
			if end < 0 {
				return content, false
			}
			if depth == 1 && string(content[i+1:end]) == "version" {
				j := skipSpace(content, end+1)
				if j < len(content) && content[j] == ':' {
					k := skipSpace(content, j+1)
					if k < len(content) && content[k] == '"' {
						vend := stringEnd(content, k)
						if vend < 0 {
							return content, false
						}
						out := make([]byte, 0, len(content)+len(version))
						out = append(out, content[:k+1]...)
						out = append(out, version...)
						out = append(out, content[vend:]...)
						return out, true
					}
				}
			}
			i = end
		}
	}
	return content, false
}

// stringEnd returns the index of the quote closing the string opened at start.
func stringEnd(content []byte, start int) int {
	for j := start + 1; j < len(content); j++ {
		switch content[j] {
		case '\\':
			j++
		case '"':
			return j
		}
	}
	return -1
}

func skipSpace(content []byte, i int) int {
	for i < len(content) && (content[i] == ' ' || content[i] == '\t' || content[i] == '\n' || content[i] == '\r') {
		i++
	}
	return i
}
