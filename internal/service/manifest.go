package service

import (
	"context"

	"github.com/compozy/releasetag/internal/domain"
)

// ManifestService reads and rewrites the version of project manifests.
type ManifestService interface {
	// Detect returns the manifests present at the project root that carry a
	// version the tool can manage.
	Detect(ctx context.Context) ([]domain.Manifest, error)
	// Update writes version into every manifest and returns the rewritten paths.
	Update(ctx context.Context, manifests []domain.Manifest, version string) ([]string, error)
}
