package domain

// ManifestKind identifies a project descriptor that carries a version.
type ManifestKind string

const (
	ManifestCargo     ManifestKind = "Cargo.toml"
	ManifestNpm       ManifestKind = "package.json"
	ManifestPyProject ManifestKind = "pyproject.toml"
)

// Manifest is a project descriptor found in the working tree.
type Manifest struct {
	Kind    ManifestKind
	Path    string
	Version string
}
