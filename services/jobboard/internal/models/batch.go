package models

import "time"

type BatchAction string

const (
	BatchApply   BatchAction = "apply"
	BatchCollect BatchAction = "collect"
)

func ParseBatchAction(s string) (BatchAction, bool) {
	switch BatchAction(s) {
	case BatchApply, BatchCollect:
		return BatchAction(s), true
	}
	return "", false
}

// Path is the endpoint below the API base URL.
func (a BatchAction) Path() string {
	return "/api/jobs/batch-" + string(a)
}

type BatchRequest struct {
	JobIDs []JobID `json:"jobIds"`
}

// BatchCompletedEvent is published after the backend accepted a batch action.
type BatchCompletedEvent struct {
	ID          string      `json:"id"`
	Action      BatchAction `json:"action"`
	JobIDs      []JobID     `json:"job_ids"`
	Count       int         `json:"count"`
	CompletedAt time.Time   `json:"completed_at"`
}
