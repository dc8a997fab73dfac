package orchestrator

import (
	"fmt"
	"strings"

	"github.com/compozy/releasetag/internal/domain"
)

// ValidateTagName checks that name is a usable git tag ref and parses as a version.
func ValidateTagName(name string) error {
	if name == "" {
		return fmt.Errorf("tag name cannot be empty")
	}
	if len(name) > 255 {
		return fmt.Errorf("tag name too long: %d characters (max: 255)", len(name))
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") || strings.HasPrefix(name, "-") {
		return fmt.Errorf("tag name cannot start or end with slash or start with dash: %s", name)
	}
	if strings.Contains(name, "..") || strings.Contains(name, "@{") || strings.Contains(name, "//") {
		return fmt.Errorf("tag name contains an invalid sequence: %s", name)
	}
	if strings.HasSuffix(name, ".lock") || strings.HasSuffix(name, ".") {
		return fmt.Errorf("tag name cannot end with .lock or a dot: %s", name)
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(" ~^:?*[\\", r) {
			return fmt.Errorf("tag name contains invalid character %q: %s", r, name)
		}
	}
	if _, err := domain.ParseVersion(name); err != nil {
		return err
	}
	return nil
}
