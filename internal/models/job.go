package models

// FineTuneJob mirrors a fine-tuning job record on the vendor side.
// Timestamps are unix seconds as returned by the API; FinishedAt is zero
// while the job is still running.
type FineTuneJob struct {
	ID             string `json:"id"`
	Model          string `json:"model"`
	FineTunedModel string `json:"fine_tuned_model"`
	Status         string `json:"status"`
	TrainingFile   string `json:"training_file"`
	Error          string `json:"error,omitempty"`
	CreatedAt      int64  `json:"created_at"`
	FinishedAt     int64  `json:"finished_at"`
}

// JobEvent is a progress line emitted by the vendor while a job runs.
type JobEvent struct {
	CreatedAt int64  `json:"created_at"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// Terminal reports whether the job can no longer change state.
func (j FineTuneJob) Terminal() bool {
	switch j.Status {
	case "succeeded", "failed", "cancelled":
		return true
	}
	return false
}
