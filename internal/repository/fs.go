package repository

import "github.com/spf13/afero"

// FileSystemRepository is the project worktree seen as a filesystem whose
// root is the repository root. Manifest, changelog and compensation code
// address files by their worktree-relative path.
type FileSystemRepository interface {
	afero.Fs
}

// NewProjectFileSystem roots the OS filesystem at the worktree.
func NewProjectFileSystem(root string) FileSystemRepository {
	return afero.NewBasePathFs(afero.NewOsFs(), root)
}
