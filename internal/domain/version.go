package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// coreSpan matches the longest strict semantic version starting at the first digit.
var coreSpan = func() *regexp.Regexp {
	re := regexp.MustCompile(
		`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
			`(-(0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(\.(0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*))*)?` +
			`(\+[0-9a-zA-Z-]+(\.[0-9a-zA-Z-]+)*)?`,
	)
	re.Longest()
	return re
}()

// BumpKind selects which component of a version is incremented.
type BumpKind int

const (
	BumpPatch BumpKind = iota
	BumpMinor
	BumpMajor
)

func (k BumpKind) String() string {
	switch k {
	case BumpPatch:
		return "patch"
	case BumpMinor:
		return "minor"
	case BumpMajor:
		return "major"
	default:
		return fmt.Sprintf("BumpKind(%d)", int(k))
	}
}

// ParseBumpKind maps "patch", "minor" or "major" to a BumpKind.
func ParseBumpKind(s string) (BumpKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "patch":
		return BumpPatch, nil
	case "minor":
		return BumpMinor, nil
	case "major":
		return BumpMajor, nil
	}
	return 0, fmt.Errorf("unknown bump kind %q (expected patch, minor or major)", s)
}

// Version is a tag name split into a literal prefix, a semantic version core
// and a literal suffix. Prefix and suffix never take part in ordering.
type Version struct {
	prefix string
	suffix string
	core   *semver.Version
}

// ParseVersion splits text into prefix, semver core and suffix. The prefix is
// the leading run without ASCII digits; the core is the longest strict semver
// starting at the first digit; the rest is the suffix, which may not begin
// with a digit, '.', '-' or '+'.
func ParseVersion(text string) (*Version, error) {
	start := strings.IndexFunc(text, isASCIIDigit)
	if start < 0 {
		return nil, fmt.Errorf("%w: %q has no version core", ErrInvalidVersion, text)
	}
	rest := text[start:]
	span := coreSpan.FindString(rest)
	if span == "" {
		return nil, fmt.Errorf("%w: %q is not a semantic version", ErrInvalidVersion, text)
	}
	suffix := rest[len(span):]
	if suffix != "" && strings.ContainsRune("0123456789.-+", rune(suffix[0])) {
		return nil, fmt.Errorf("%w: %q is not a semantic version", ErrInvalidVersion, text)
	}
	core, err := semver.StrictNewVersion(span)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, text, err)
	}
	return &Version{prefix: text[:start], suffix: suffix, core: core}, nil
}

// NewVersion builds a release version with the given decoration.
func NewVersion(prefix string, major, minor, patch uint64, suffix string) *Version {
	return &Version{
		prefix: prefix,
		suffix: suffix,
		core:   semver.New(major, minor, patch, "", ""),
	}
}

// InitialVersion is the sentinel returned when no release exists yet.
func InitialVersion() *Version {
	return NewVersion("", 0, 1, 0, "")
}

func (v *Version) Prefix() string     { return v.prefix }
func (v *Version) Suffix() string     { return v.suffix }
func (v *Version) Major() uint64      { return v.core.Major() }
func (v *Version) Minor() uint64      { return v.core.Minor() }
func (v *Version) Patch() uint64      { return v.core.Patch() }
func (v *Version) Prerelease() string { return v.core.Prerelease() }
func (v *Version) Build() string      { return v.core.Metadata() }

// Core returns the semantic version without prefix or suffix.
func (v *Version) Core() string {
	return v.core.String()
}

// String formats the version back to its tag form.
func (v *Version) String() string {
	return v.prefix + v.core.String() + v.suffix
}

// Bump returns the next release version. Pre-release and build metadata are
// dropped; prefix and suffix are carried over.
func (v *Version) Bump(kind BumpKind) *Version {
	major, minor, patch := v.Major(), v.Minor(), v.Patch()
	switch kind {
	case BumpMajor:
		major, minor, patch = major+1, 0, 0
	case BumpMinor:
		minor, patch = minor+1, 0
	default:
		patch++
	}
	return NewVersion(v.prefix, major, minor, patch, v.suffix)
}

// WithPrefix returns a copy of v using the given prefix.
func (v *Version) WithPrefix(prefix string) *Version {
	return &Version{prefix: prefix, suffix: v.suffix, core: v.core}
}

// Compare orders versions by semantic version precedence, ignoring prefix,
// suffix and build metadata. It returns -1, 0 or 1.
func (v *Version) Compare(other *Version) int {
	return v.core.Compare(other.core)
}

// LessThan reports whether v sorts before other.
func (v *Version) LessThan(other *Version) bool {
	return v.Compare(other) < 0
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
