package domain

import (
	"time"
)

// WorkflowStatus represents the overall status of a bump workflow
type WorkflowStatus string

const (
	WorkflowStatusPending    WorkflowStatus = "pending"
	WorkflowStatusRunning    WorkflowStatus = "running"
	WorkflowStatusCompleted  WorkflowStatus = "completed"
	WorkflowStatusFailed     WorkflowStatus = "failed"
	WorkflowStatusRolledBack WorkflowStatus = "rolled_back"
)

// OperationStatus represents the status of an individual operation
type OperationStatus string

const (
	OperationStatusPending    OperationStatus = "pending"
	OperationStatusRunning    OperationStatus = "running"
	OperationStatusCompleted  OperationStatus = "completed"
	OperationStatusFailed     OperationStatus = "failed"
	OperationStatusRolledBack OperationStatus = "rolled_back"
)

// OperationType identifies a step of the bump workflow
type OperationType string

const (
	OperationTypeResolveVersion  OperationType = "resolve_version"
	OperationTypeUpdateManifests OperationType = "update_manifests"
	OperationTypeUpdateChangelog OperationType = "update_changelog"
	OperationTypeCommitRelease   OperationType = "commit_release"
	OperationTypeCreateTag       OperationType = "create_tag"
)

// WorkflowState records a bump run so a failed run can be compensated later.
type WorkflowState struct {
	SessionID  string            `json:"session_id"`
	StartedAt  time.Time         `json:"started_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	Tag        string            `json:"tag"`
	BaseCommit string            `json:"base_commit"`
	Operations []OperationRecord `json:"operations"`
	Status     WorkflowStatus    `json:"status"`
	Error      string            `json:"error,omitempty"`
}

// OperationRecord is a single step of the workflow.
type OperationRecord struct {
	ID           string          `json:"id"`
	Type         OperationType   `json:"type"`
	Status       OperationStatus `json:"status"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	RollbackData map[string]any  `json:"rollback_data,omitempty"`
	Error        string          `json:"error,omitempty"`
}

func NewWorkflowState(sessionID string) *WorkflowState {
	now := time.Now()
	return &WorkflowState{
		SessionID:  sessionID,
		StartedAt:  now,
		UpdatedAt:  now,
		Operations: []OperationRecord{},
		Status:     WorkflowStatusPending,
	}
}

// AddOperation appends a pending operation.
func (ws *WorkflowState) AddOperation(opType OperationType) *OperationRecord {
	ws.Operations = append(ws.Operations, OperationRecord{
		ID:        string(opType) + "_" + time.Now().Format("20060102150405"),
		Type:      opType,
		Status:    OperationStatusPending,
		StartedAt: time.Now(),
	})
	ws.UpdatedAt = time.Now()
	return &ws.Operations[len(ws.Operations)-1]
}

// CompletedOperations returns completed operations, most recent first.
func (ws *WorkflowState) CompletedOperations() []OperationRecord {
	var completed []OperationRecord
	for i := len(ws.Operations) - 1; i >= 0; i-- {
		if ws.Operations[i].Status == OperationStatusCompleted {
			completed = append(completed, ws.Operations[i])
		}
	}
	return completed
}

func (ws *WorkflowState) MarkOperationStarted(opType OperationType) {
	if op := ws.find(opType, OperationStatusPending); op != nil {
		op.Status = OperationStatusRunning
		op.StartedAt = time.Now()
		ws.UpdatedAt = op.StartedAt
	}
}

func (ws *WorkflowState) MarkOperationCompleted(opType OperationType, rollbackData map[string]any) {
	if op := ws.find(opType, OperationStatusRunning); op != nil {
		now := time.Now()
		op.Status = OperationStatusCompleted
		op.CompletedAt = &now
		op.RollbackData = rollbackData
		ws.UpdatedAt = now
	}
}

func (ws *WorkflowState) MarkOperationRolledBack(opType OperationType) {
	if op := ws.find(opType, OperationStatusCompleted); op != nil {
		op.Status = OperationStatusRolledBack
		ws.UpdatedAt = time.Now()
	}
}

// MarkOperationFailed fails the operation and the workflow with it.
func (ws *WorkflowState) MarkOperationFailed(opType OperationType, err error) {
	now := time.Now()
	if op := ws.find(opType, OperationStatusRunning); op != nil {
		op.Status = OperationStatusFailed
		op.CompletedAt = &now
		op.Error = err.Error()
	}
	ws.UpdatedAt = now
	ws.Status = WorkflowStatusFailed
	ws.Error = err.Error()
}

func (ws *WorkflowState) find(opType OperationType, status OperationStatus) *OperationRecord {
	for i := range ws.Operations {
		if ws.Operations[i].Type == opType && ws.Operations[i].Status == status {
			return &ws.Operations[i]
		}
	}
	return nil
}
