package models

import "time"

// Artifact is one backup archive on disk, tracked in the backup registry.
type Artifact struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Category  string    `json:"category"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	FilePath  string    `json:"file_path"`
	SizeBytes int64     `json:"size_bytes"`
	Encrypted bool      `json:"encrypted"`
	Status    string    `json:"status"`
}

const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

type ArtifactRegistry struct {
	Artifacts []Artifact `json:"artifacts"`
}

// UpdateRun records one invocation of the update orchestrator.
type UpdateRun struct {
	ID         string          `json:"id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Services   []ServiceUpdate `json:"services"`
}

type ServiceUpdate struct {
	Service    string `json:"service"`
	OldImageID string `json:"old_image_id,omitempty"`
	NewImageID string `json:"new_image_id,omitempty"`
	Snapshot   string `json:"snapshot,omitempty"`
	Outcome    string `json:"outcome"`
	Error      string `json:"error,omitempty"`
}

type UpdateRegistry struct {
	Runs []UpdateRun `json:"runs"`
}
