package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/compozy/releasetag/internal/repository"
	"github.com/spf13/afero"
)

// ErrAlreadyInitialized is returned when init runs inside an existing repository.
var ErrAlreadyInitialized = errors.New("directory is already a git repository")

const defaultGitignore = "/target\n/Cargo.lock\n/node_modules\n/.idea\n/.vscode\n/" + repository.DefaultStateDir + "\n"

// InitProjectUseCase creates a repository with a .gitignore and an initial
// commit. Open decides the initial branch.
type InitProjectUseCase struct {
	FS   afero.Fs
	Path string
	// Open initializes the repository; repository.InitGitRepository in production.
	Open func(path string) (repository.GitRepository, error)
}

// Execute runs the use case.
func (uc *InitProjectUseCase) Execute(ctx context.Context) (repository.GitRepository, error) {
	exists, err := afero.DirExists(uc.FS, filepath.Join(uc.Path, ".git"))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", uc.Path, err)
	}
	if exists {
		return nil, ErrAlreadyInitialized
	}
	repo, err := uc.Open(uc.Path)
	if err != nil {
		return nil, err
	}
	ignore := filepath.Join(uc.Path, ".gitignore")
	present, err := afero.Exists(uc.FS, ignore)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect .gitignore: %w", err)
	}
	if !present {
		if err := afero.WriteFile(uc.FS, ignore, []byte(defaultGitignore), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write .gitignore: %w", err)
		}
	}
	if err := repo.AddFiles(ctx, ".gitignore"); err != nil {
		return nil, err
	}
	if err := repo.Commit(ctx, "Initial commit"); err != nil {
		return nil, err
	}
	return repo, nil
}
