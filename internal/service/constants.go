package service

import "github.com/compozy/releasetag/internal/domain"

// ManifestFiles lists the supported manifests in detection order.
var ManifestFiles = []domain.ManifestKind{
	domain.ManifestCargo,
	domain.ManifestNpm,
	domain.ManifestPyProject,
}

// ManifestFilePermissions is used when a manifest is rewritten.
const ManifestFilePermissions = 0o644
