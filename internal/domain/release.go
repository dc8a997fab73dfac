package domain

import "time"

// Release is a published release on the hosting service.
type Release struct {
	TagName     string
	Name        string
	URL         string
	Draft       bool
	Prerelease  bool
	PublishedAt time.Time
}

// ProjectInfo summarises the repository for the show command.
type ProjectInfo struct {
	Version       *Version
	Released      bool
	Branch        string
	CommitCount   int
	RemoteURL     string
	LocalTagCount int
}
