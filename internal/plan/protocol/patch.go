package protocol

import "floorplan/internal/plan/models"

// Patch types pushed to live clients.
const (
	PatchSnapshot = "snapshot"
	PatchSession  = "session"
	PatchError    = "error"
)

type PatchEnvelope struct {
	Sequence uint64 `json:"seq"`
	Type     string `json:"type"`
	Payload  any    `json:"payload"`
}

type SnapshotChanged struct {
	PlanID   string          `json:"planId"`
	Snapshot models.Snapshot `json:"snapshot"`
}

type SessionChanged struct {
	Session Session `json:"session"`
}

type IntentRejected struct {
	Intent string `json:"intent"`
	Error  string `json:"error"`
}
