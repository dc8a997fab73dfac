package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/compozy/releasetag/internal/domain"
	"github.com/compozy/releasetag/internal/logger"
	"github.com/gofrs/flock"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	// DefaultStateDir holds bump workflow state below the worktree
	DefaultStateDir = ".release-state"
	// StateSchemaVersion defines the current schema version for state files
	StateSchemaVersion = "1.0.0"
	// StateFilePermissions defines the permissions for state files
	StateFilePermissions = 0o600
	// StateDirPermissions defines the permissions for state directory
	StateDirPermissions = 0o700
	// LockTimeout defines the maximum time to wait for a lock
	LockTimeout = 30 * time.Second
	// LockRetryInterval defines the interval between lock retry attempts
	LockRetryInterval = 100 * time.Millisecond
)

// ErrStateNotFound is returned when no workflow state exists for a session.
var ErrStateNotFound = errors.New("workflow state not found")

// StateRepository persists bump workflow state so a failed run can be rolled back.
type StateRepository interface {
	Save(ctx context.Context, state *domain.WorkflowState) error
	Load(ctx context.Context, sessionID string) (*domain.WorkflowState, error)
	LoadLatest(ctx context.Context) (*domain.WorkflowState, error)
	Delete(ctx context.Context, sessionID string) error
	Exists(ctx context.Context, sessionID string) (bool, error)
}

type stateMetadata struct {
	SchemaVersion string    `json:"schema_version"`
	Checksum      string    `json:"checksum"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type stateEnvelope struct {
	Metadata stateMetadata         `json:"metadata"`
	State    *domain.WorkflowState `json:"state"`
}

// JSONStateRepository stores one JSON file per session. Lock files are taken
// with flock, so stateDir must exist on the host filesystem even when fs is
// not the OS filesystem.
type JSONStateRepository struct {
	fs       afero.Fs
	stateDir string
	log      *zap.Logger
}

func NewJSONStateRepository(fs afero.Fs, stateDir string, log *zap.Logger) *JSONStateRepository {
	if stateDir == "" {
		stateDir = DefaultStateDir
	}
	log = logger.OrNop(log)
	return &JSONStateRepository{fs: fs, stateDir: stateDir, log: log}
}

// Save writes the state atomically through a temp file and updates the latest pointer.
func (r *JSONStateRepository) Save(ctx context.Context, state *domain.WorkflowState) error {
	if err := r.fs.MkdirAll(r.stateDir, StateDirPermissions); err != nil {
		return fmt.Errorf("failed to ensure state directory: %w", err)
	}
	return r.withLock(ctx, state.SessionID, false, func() error {
		payload, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("failed to marshal state: %w", err)
		}
		envelope := stateEnvelope{
			Metadata: stateMetadata{
				SchemaVersion: StateSchemaVersion,
				Checksum:      checksum(payload),
				CreatedAt:     state.StartedAt,
				UpdatedAt:     time.Now(),
			},
			State: state,
		}
		data, err := json.MarshalIndent(envelope, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal state envelope: %w", err)
		}
		filename := r.stateFile(state.SessionID)
		if err := r.writeAtomic(filename, data); err != nil {
			return fmt.Errorf("failed to write state file: %w", err)
		}
		if err := r.writeAtomic(r.latestFile(), []byte(filename)); err != nil {
			return fmt.Errorf("failed to update latest link: %w", err)
		}
		return nil
	})
}

// Load reads and verifies the state of sessionID.
func (r *JSONStateRepository) Load(ctx context.Context, sessionID string) (*domain.WorkflowState, error) {
	var state *domain.WorkflowState
	err := r.withLock(ctx, sessionID, true, func() error {
		data, err := afero.ReadFile(r.fs, r.stateFile(sessionID))
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("%w: session %s", ErrStateNotFound, sessionID)
			}
			return fmt.Errorf("failed to read state file: %w", err)
		}
		var envelope stateEnvelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			return fmt.Errorf("failed to unmarshal state: %w", err)
		}
		if envelope.Metadata.SchemaVersion != StateSchemaVersion {
			return fmt.Errorf("incompatible schema version: expected %s, got %s",
				StateSchemaVersion, envelope.Metadata.SchemaVersion)
		}
		payload, err := json.Marshal(envelope.State)
		if err != nil {
			return fmt.Errorf("failed to marshal state for checksum validation: %w", err)
		}
		if envelope.Metadata.Checksum != checksum(payload) {
			return fmt.Errorf("state checksum mismatch: data may be corrupted")
		}
		state = envelope.State
		return nil
	})
	return state, err
}

// LoadLatest loads the session most recently saved.
func (r *JSONStateRepository) LoadLatest(ctx context.Context) (*domain.WorkflowState, error) {
	data, err := afero.ReadFile(r.fs, r.latestFile())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no latest session", ErrStateNotFound)
		}
		return nil, fmt.Errorf("failed to read latest link: %w", err)
	}
	sessionID := sessionFromFile(string(data))
	if sessionID == "" {
		return nil, fmt.Errorf("invalid latest link target: %s", data)
	}
	return r.Load(ctx, sessionID)
}

// Delete removes the state of sessionID; a missing file is not an error.
func (r *JSONStateRepository) Delete(ctx context.Context, sessionID string) error {
	err := r.withLock(ctx, sessionID, false, func() error {
		if err := r.fs.Remove(r.stateFile(sessionID)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete state file: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := r.fs.Remove(r.lockFile(sessionID)); err != nil && !os.IsNotExist(err) {
		r.log.Warn("Failed to remove lock file", zap.String("session_id", sessionID), zap.Error(err))
	}
	return nil
}

// Exists checks if a state file exists for sessionID.
func (r *JSONStateRepository) Exists(_ context.Context, sessionID string) (bool, error) {
	ok, err := afero.Exists(r.fs, r.stateFile(sessionID))
	if err != nil {
		return false, fmt.Errorf("failed to check state file: %w", err)
	}
	return ok, nil
}

func (r *JSONStateRepository) withLock(ctx context.Context, sessionID string, shared bool, fn func() error) error {
	lock := flock.New(r.lockFile(sessionID))
	lockCtx, cancel := context.WithTimeout(ctx, LockTimeout)
	defer cancel()
	var (
		locked bool
		err    error
	)
	if shared {
		locked, err = lock.TryRLockContext(lockCtx, LockRetryInterval)
	} else {
		locked, err = lock.TryLockContext(lockCtx, LockRetryInterval)
	}
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("could not acquire lock within timeout")
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			r.log.Warn("Failed to unlock state file", zap.String("session_id", sessionID), zap.Error(unlockErr))
		}
	}()
	return fn()
}

func (r *JSONStateRepository) writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := afero.WriteFile(r.fs, tmp, data, StateFilePermissions); err != nil {
		return err
	}
	if err := r.fs.Rename(tmp, path); err != nil {
		if removeErr := r.fs.Remove(tmp); removeErr != nil {
			r.log.Warn("Failed to remove temp file", zap.String("path", tmp), zap.Error(removeErr))
		}
		return err
	}
	return nil
}

func (r *JSONStateRepository) stateFile(sessionID string) string {
	return filepath.Join(r.stateDir, fmt.Sprintf("state-%s.json", sessionID))
}

func (r *JSONStateRepository) lockFile(sessionID string) string {
	return filepath.Join(r.stateDir, fmt.Sprintf(".state-%s.lock", sessionID))
}

func (r *JSONStateRepository) latestFile() string {
	return filepath.Join(r.stateDir, "latest.txt")
}

func sessionFromFile(filename string) string {
	base := filepath.Base(filename)
	if !strings.HasPrefix(base, "state-") || !strings.HasSuffix(base, ".json") {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(base, "state-"), ".json")
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
