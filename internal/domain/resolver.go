package domain

import "sort"

// Resolution is the outcome of scanning a tag list for the latest release.
type Resolution struct {
	// Version is the highest parsable tag, or InitialVersion when none parse.
	Version *Version
	// Found is false when Version is the sentinel.
	Found bool
	// InferredPrefix is set when the caller had no recorded prefix and the
	// latest release carries one. Persisting it is the caller's decision.
	InferredPrefix string
	// Prefixes lists every distinct prefix among parsable tags, sorted.
	Prefixes []string
	// Ignored lists tag names that did not parse as versions.
	Ignored []string
}

// MixedPrefixes reports whether parsable tags disagree on their prefix.
func (r Resolution) MixedPrefixes() bool {
	return len(r.Prefixes) > 1
}

// ResolveLatest returns the highest version among tagNames. Unparsable names
// are skipped. When several prefixes are present the prefix of the overall
// maximum wins. recordedPrefix is the prefix the caller already persisted;
// when it is empty and the winner has one, it is reported as InferredPrefix.
func ResolveLatest(tagNames []string, recordedPrefix string) Resolution {
	var (
		res      Resolution
		prefixes = map[string]struct{}{}
	)
	for _, name := range tagNames {
		v, err := ParseVersion(name)
		if err != nil {
			res.Ignored = append(res.Ignored, name)
			continue
		}
		prefixes[v.Prefix()] = struct{}{}
		if res.Version == nil || res.Version.LessThan(v) ||
			(res.Version.Compare(v) == 0 && v.String() > res.Version.String()) {
			res.Version = v
		}
	}
	for p := range prefixes {
		res.Prefixes = append(res.Prefixes, p)
	}
	sort.Strings(res.Prefixes)
	if res.Version == nil {
		res.Version = InitialVersion()
		return res
	}
	res.Found = true
	if recordedPrefix == "" && res.Version.Prefix() != "" {
		res.InferredPrefix = res.Version.Prefix()
	}
	return res
}
