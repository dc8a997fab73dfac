package domain

import "sort"

// SyncPlan partitions a local and a remote tag set. It is recomputed for
// every reconciliation and never updated in place.
type SyncPlan struct {
	// AllTags is the union of both sets in plain string order.
	AllTags []string
	ToPush  map[string]struct{}
	ToPull  map[string]struct{}
	InSync  map[string]struct{}
}

// ComputeSyncPlan diffs local against remote: tags only present locally are
// pushed, tags only present remotely are pulled.
func ComputeSyncPlan(local, remote []string) SyncPlan {
	localSet := toSet(local)
	remoteSet := toSet(remote)
	plan := SyncPlan{
		ToPush: map[string]struct{}{},
		ToPull: map[string]struct{}{},
		InSync: map[string]struct{}{},
	}
	for name := range localSet {
		if _, ok := remoteSet[name]; ok {
			plan.InSync[name] = struct{}{}
		} else {
			plan.ToPush[name] = struct{}{}
		}
		plan.AllTags = append(plan.AllTags, name)
	}
	for name := range remoteSet {
		if _, ok := localSet[name]; !ok {
			plan.ToPull[name] = struct{}{}
			plan.AllTags = append(plan.AllTags, name)
		}
	}
	sort.Strings(plan.AllTags)
	return plan
}

// IsSynchronized reports whether there is nothing to push or pull.
func (p SyncPlan) IsSynchronized() bool {
	return len(p.ToPush) == 0 && len(p.ToPull) == 0
}

// PushList returns the tags to push in AllTags order.
func (p SyncPlan) PushList() []string {
	return sortedKeys(p.ToPush)
}

// PullList returns the tags to pull in AllTags order.
func (p SyncPlan) PullList() []string {
	return sortedKeys(p.ToPull)
}

// Status describes where a single tag stands in the plan.
func (p SyncPlan) Status(name string) TagStatus {
	switch {
	case has(p.ToPush, name):
		return TagStatusLocalOnly
	case has(p.ToPull, name):
		return TagStatusRemoteOnly
	case has(p.InSync, name):
		return TagStatusInSync
	}
	return TagStatusUnknown
}

// TagStatus is the position of a tag relative to both stores.
type TagStatus string

const (
	TagStatusLocalOnly  TagStatus = "local-only"
	TagStatusRemoteOnly TagStatus = "remote-only"
	TagStatusInSync     TagStatus = "in-sync"
	TagStatusUnknown    TagStatus = "unknown"
)

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func has(set map[string]struct{}, name string) bool {
	_, ok := set[name]
	return ok
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
