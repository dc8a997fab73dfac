package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/compozy/releasetag/internal/domain"
	"github.com/compozy/releasetag/internal/logger"
	"github.com/compozy/releasetag/internal/repository"
	"github.com/compozy/releasetag/internal/service"
	"github.com/compozy/releasetag/internal/usecase"
	"go.uber.org/zap"
)

// ErrTagExists is returned when the bumped tag is already present locally.
var ErrTagExists = errors.New("tag already exists")

// BumpConfig contains configuration for the patch, minor and major workflow.
type BumpConfig struct {
	Kind domain.BumpKind
	// Prefix is the persisted version prefix, empty when none was recorded.
	Prefix    string
	DryRun    bool
	Changelog bool
	Rollback  bool   // Roll back a previous session instead of bumping
	SessionID string // Session to roll back; the latest one when empty
}

// BumpResult describes what a bump did or, in dry-run mode, would do.
type BumpResult struct {
	Plan             *usecase.VersionPlan
	Tag              string
	Manifests        []string
	ChangelogUpdated bool
	Committed        bool
	SessionID        string
	DryRun           bool
}

// BumpOrchestrator creates a release commit and tag as a saga.
type BumpOrchestrator struct {
	gitRepo      repository.GitRepository
	fsRepo       repository.FileSystemRepository
	manifestSvc  service.ManifestService
	changelogSvc service.ChangelogService
	stateRepo    repository.StateRepository
	log          *zap.Logger
	out          io.Writer
}

// NewBumpOrchestrator creates a new bump orchestrator. Status lines go to out.
func NewBumpOrchestrator(
	gitRepo repository.GitRepository,
	fsRepo repository.FileSystemRepository,
	manifestSvc service.ManifestService,
	changelogSvc service.ChangelogService,
	stateRepo repository.StateRepository,
	log *zap.Logger,
	out io.Writer,
) *BumpOrchestrator {
	log = logger.OrNop(log)
	if out == nil {
		out = io.Discard
	}
	return &BumpOrchestrator{
		gitRepo:      gitRepo,
		fsRepo:       fsRepo,
		manifestSvc:  manifestSvc,
		changelogSvc: changelogSvc,
		stateRepo:    stateRepo,
		log:          log,
		out:          out,
	}
}

// Execute runs the bump workflow, or rolls back a session when cfg.Rollback is set.
func (o *BumpOrchestrator) Execute(ctx context.Context, cfg BumpConfig) (*BumpResult, error) {
	if cfg.Rollback {
		return o.performRollback(ctx, cfg.SessionID)
	}
	ctx, cancel := context.WithTimeout(ctx, BumpWorkflowTimeout)
	defer cancel()
	if cfg.DryRun {
		return o.executeDryRun(ctx, cfg)
	}
	return o.executeWithSaga(ctx, cfg)
}

// resolve computes the next tag and checks it can be created.
func (o *BumpOrchestrator) resolve(ctx context.Context, cfg BumpConfig) (*usecase.VersionPlan, string, error) {
	uc := &usecase.CalculateVersionUseCase{Tags: o.gitRepo, Prefix: cfg.Prefix}
	plan, err := uc.Execute(ctx, cfg.Kind)
	if err != nil {
		return nil, "", fmt.Errorf("failed to calculate version: %w", err)
	}
	tag := plan.Next.String()
	if err := ValidateTagName(tag); err != nil {
		return nil, "", fmt.Errorf("invalid tag: %w", err)
	}
	exists, err := o.gitRepo.TagExists(ctx, tag)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check tag %s: %w", tag, err)
	}
	if exists {
		return nil, "", fmt.Errorf("%w: %s", ErrTagExists, tag)
	}
	return plan, tag, nil
}

func (o *BumpOrchestrator) executeDryRun(ctx context.Context, cfg BumpConfig) (*BumpResult, error) {
	plan, tag, err := o.resolve(ctx, cfg)
	if err != nil {
		return nil, err
	}
	manifests, err := o.manifestSvc.Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to detect manifests: %w", err)
	}
	result := &BumpResult{Plan: plan, Tag: tag, DryRun: true, ChangelogUpdated: cfg.Changelog}
	fmt.Fprintf(o.out, "🔍 Dry-run: %s -> %s\n", plan.Current, tag)
	for _, m := range manifests {
		result.Manifests = append(result.Manifests, m.Path)
		fmt.Fprintf(o.out, "   would set %s version %s -> %s\n", m.Path, m.Version, plan.Next.Core())
	}
	if cfg.Changelog {
		fmt.Fprintf(o.out, "   would prepend a %s section to %s\n", tag, service.ChangelogFile)
	}
	fmt.Fprintf(o.out, "   would commit %q and create tag %s\n", commitMessage(tag), tag)
	return result, nil
}

// bumpContext holds shared state for workflow execution
type bumpContext struct {
	plan       *usecase.VersionPlan
	tag        string
	baseCommit string
	files      []string
	result     *BumpResult
}

func (o *BumpOrchestrator) executeWithSaga(ctx context.Context, cfg BumpConfig) (*BumpResult, error) {
	baseCommit, err := o.gitRepo.GetHeadCommit(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository has no commit to tag: %w", err)
	}
	saga := NewSagaExecutor(o.stateRepo, true, o.log)
	saga.SetBaseCommit(baseCommit)
	compensator := NewCompensatingActions(o.gitRepo, o.fsRepo, o.log)
	bctx := &bumpContext{baseCommit: baseCommit, result: &BumpResult{SessionID: saga.SessionID()}}

	o.addResolveVersionStep(saga, cfg, compensator, bctx)
	o.addUpdateManifestsStep(saga, compensator, bctx)
	if cfg.Changelog {
		o.addUpdateChangelogStep(saga, compensator, bctx)
	}
	o.addCommitReleaseStep(saga, compensator, bctx)
	o.addCreateTagStep(saga, compensator, bctx)

	if err := saga.Execute(ctx); err != nil {
		return bctx.result, fmt.Errorf("bump workflow failed: %w", err)
	}
	fmt.Fprintf(o.out, "✅ Created tag %s\n", bctx.tag)
	fmt.Fprintln(o.out, "💡 Publish it with: releasetag sync")
	return bctx.result, nil
}

func (o *BumpOrchestrator) addResolveVersionStep(
	saga *SagaExecutor,
	cfg BumpConfig,
	compensator *CompensatingActions,
	bctx *bumpContext,
) {
	saga.AddStep(SagaStep{
		Name: "Resolve Version",
		Type: domain.OperationTypeResolveVersion,
		Execute: func(ctx context.Context) (map[string]any, error) {
			plan, tag, err := o.resolve(ctx, cfg)
			if err != nil {
				return nil, err
			}
			bctx.plan, bctx.tag = plan, tag
			bctx.result.Plan, bctx.result.Tag = plan, tag
			saga.SetTag(tag)
			fmt.Fprintf(o.out, "🔖 %s -> %s\n", plan.Current, tag)
			return map[string]any{keyTag: tag, "current": plan.Current.String()}, nil
		},
		Compensate: compensator.NoOp,
	})
}

func (o *BumpOrchestrator) addUpdateManifestsStep(
	saga *SagaExecutor,
	compensator *CompensatingActions,
	bctx *bumpContext,
) {
	saga.AddStep(SagaStep{
		Name: "Update Manifests",
		Type: domain.OperationTypeUpdateManifests,
		Execute: func(ctx context.Context) (map[string]any, error) {
			manifests, err := o.manifestSvc.Detect(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to detect manifests: %w", err)
			}
			if len(manifests) == 0 {
				o.log.Info("No manifest found, tagging without a version bump commit")
				return map[string]any{keySkip: true}, nil
			}
			updated, err := o.manifestSvc.Update(ctx, manifests, bctx.plan.Next.Core())
			if err != nil {
				// the step never completes, so undo the partial rewrite here
				_ = compensator.RestoreFiles(ctx, map[string]any{keyModifiedFiles: updated})
				return nil, fmt.Errorf("failed to update manifests: %w", err)
			}
			bctx.files = append(bctx.files, updated...)
			bctx.result.Manifests = updated
			for _, path := range updated {
				fmt.Fprintf(o.out, "📝 Updated %s\n", path)
			}
			return map[string]any{keyModifiedFiles: updated}, nil
		},
		Compensate: compensator.RestoreFiles,
	})
}

func (o *BumpOrchestrator) addUpdateChangelogStep(
	saga *SagaExecutor,
	compensator *CompensatingActions,
	bctx *bumpContext,
) {
	saga.AddStep(SagaStep{
		Name: "Update Changelog",
		Type: domain.OperationTypeUpdateChangelog,
		Execute: func(ctx context.Context) (map[string]any, error) {
			previous := ""
			if bctx.plan.Resolution.Found {
				previous = bctx.plan.Current.String()
			}
			uc := &usecase.GenerateChangelogUseCase{GitRepo: o.gitRepo, ChangelogSvc: o.changelogSvc}
			created, err := uc.Execute(ctx, bctx.tag, previous)
			if err != nil {
				return nil, err
			}
			bctx.files = append(bctx.files, service.ChangelogFile)
			bctx.result.ChangelogUpdated = true
			fmt.Fprintf(o.out, "📝 Updated %s\n", service.ChangelogFile)
			if created {
				return map[string]any{keyCreatedFiles: []string{service.ChangelogFile}}, nil
			}
			return map[string]any{keyModifiedFiles: []string{service.ChangelogFile}}, nil
		},
		Compensate: compensator.RestoreFiles,
	})
}

func (o *BumpOrchestrator) addCommitReleaseStep(
	saga *SagaExecutor,
	compensator *CompensatingActions,
	bctx *bumpContext,
) {
	saga.AddStep(SagaStep{
		Name: "Commit Release",
		Type: domain.OperationTypeCommitRelease,
		Execute: func(ctx context.Context) (map[string]any, error) {
			if len(bctx.files) == 0 {
				return map[string]any{keySkip: true}, nil
			}
			for _, path := range bctx.files {
				if err := o.gitRepo.AddFiles(ctx, path); err != nil {
					return nil, fmt.Errorf("failed to stage %s: %w", path, err)
				}
			}
			if err := o.gitRepo.Commit(ctx, commitMessage(bctx.tag)); err != nil {
				return nil, err
			}
			head, err := o.gitRepo.GetHeadCommit(ctx)
			if err != nil {
				return nil, err
			}
			bctx.result.Committed = true
			return map[string]any{keyCommitSHA: head, keyBaseCommit: bctx.baseCommit}, nil
		},
		Compensate: compensator.ResetCommit,
	})
}

func (o *BumpOrchestrator) addCreateTagStep(
	saga *SagaExecutor,
	compensator *CompensatingActions,
	bctx *bumpContext,
) {
	saga.AddStep(SagaStep{
		Name: "Create Tag",
		Type: domain.OperationTypeCreateTag,
		Execute: func(ctx context.Context) (map[string]any, error) {
			if err := o.gitRepo.CreateTag(ctx, bctx.tag, "Release "+bctx.tag); err != nil {
				return nil, err
			}
			return map[string]any{keyTag: bctx.tag, keyCreatedInSession: true}, nil
		},
		Compensate: compensator.DeleteTag,
	})
}

// performRollback undoes a persisted bump session.
func (o *BumpOrchestrator) performRollback(ctx context.Context, sessionID string) (*BumpResult, error) {
	if sessionID == "" {
		state, err := o.stateRepo.LoadLatest(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load latest session: %w", err)
		}
		sessionID = state.SessionID
	}
	saga, err := LoadExistingSaga(ctx, o.stateRepo, sessionID, o.log)
	if err != nil {
		return nil, fmt.Errorf("failed to load saga: %w", err)
	}
	result := &BumpResult{SessionID: sessionID, Tag: saga.GetState().Tag}
	if saga.GetState().Status == domain.WorkflowStatusRolledBack {
		fmt.Fprintf(o.out, "Session %s is already rolled back\n", sessionID)
		return result, nil
	}
	o.rebuildSagaSteps(saga, NewCompensatingActions(o.gitRepo, o.fsRepo, o.log))
	ctx, cancel := context.WithTimeout(ctx, RollbackTimeout)
	defer cancel()
	fmt.Fprintf(o.out, "🔄 Rolling back session %s\n", sessionID)
	if err := saga.Rollback(ctx); err != nil {
		return result, fmt.Errorf("rollback failed: %w", err)
	}
	fmt.Fprintln(o.out, "✅ Rollback completed successfully")
	return result, nil
}

// rebuildSagaSteps reattaches compensations, which are not persisted.
func (o *BumpOrchestrator) rebuildSagaSteps(saga *SagaExecutor, compensator *CompensatingActions) {
	compensateMap := map[domain.OperationType]func(context.Context, map[string]any) error{
		domain.OperationTypeResolveVersion:  compensator.NoOp,
		domain.OperationTypeUpdateManifests: compensator.RestoreFiles,
		domain.OperationTypeUpdateChangelog: compensator.RestoreFiles,
		domain.OperationTypeCommitRelease:   compensator.ResetCommit,
		domain.OperationTypeCreateTag:       compensator.DeleteTag,
	}
	for _, op := range saga.GetState().Operations {
		if compensate, ok := compensateMap[op.Type]; ok {
			saga.RegisterCompensation(SagaStep{Name: string(op.Type), Type: op.Type, Compensate: compensate})
		}
	}
}

func commitMessage(tag string) string {
	return "chore: release " + tag
}
