package manager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/models"
)

// upsertJobSQL returns the upsert statement for the given driver. MySQL has
// no ON CONFLICT clause, so the two dialects need separate statements; the
// placeholder order is identical.
func upsertJobSQL(driver string) string {
	const insert = `INSERT INTO job_records (job_id, base_model, fine_tuned_model, status, training_file, error, created_at, finished_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if driver == "mysql" {
		return insert + `
		 ON DUPLICATE KEY UPDATE
			fine_tuned_model = VALUES(fine_tuned_model),
			status = VALUES(status),
			error = VALUES(error),
			finished_at = VALUES(finished_at),
			updated_at = VALUES(updated_at)`
	}
	return insert + `
		 ON CONFLICT(job_id) DO UPDATE SET
			fine_tuned_model = excluded.fine_tuned_model,
			status = excluded.status,
			error = excluded.error,
			finished_at = excluded.finished_at,
			updated_at = excluded.updated_at`
}

// UpsertJobRecord stores the latest observed state of a fine-tuning job.
// Called on job creation and by the watcher on every status change.
func (s *Service) UpsertJobRecord(ctx context.Context, job models.FineTuneJob) error {
	if job.ID == "" {
		return errors.New("job id is required")
	}
	_, err := s.db.ExecContext(ctx, upsertJobSQL(s.driver),
		job.ID, job.Model, job.FineTunedModel, job.Status, job.TrainingFile, job.Error,
		job.CreatedAt, job.FinishedAt, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert job record: %w", err)
	}
	return nil
}

// GetJobRecord returns the locally stored state of one job.
func (s *Service) GetJobRecord(ctx context.Context, jobID string) (*models.FineTuneJob, error) {
	var job models.FineTuneJob
	err := s.db.QueryRowContext(ctx,
		`SELECT job_id, base_model, fine_tuned_model, status, training_file, error, created_at, finished_at
		 FROM job_records WHERE job_id = ?`,
		jobID,
	).Scan(&job.ID, &job.Model, &job.FineTunedModel, &job.Status, &job.TrainingFile, &job.Error, &job.CreatedAt, &job.FinishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get job record: %w", err)
	}
	return &job, nil
}

// ListJobRecords returns all locally observed jobs, newest first.
func (s *Service) ListJobRecords(ctx context.Context) ([]models.FineTuneJob, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT job_id, base_model, fine_tuned_model, status, training_file, error, created_at, finished_at
		 FROM job_records ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list job records: %w", err)
	}
	defer rows.Close()

	var jobs []models.FineTuneJob
	for rows.Next() {
		var job models.FineTuneJob
		if err := rows.Scan(&job.ID, &job.Model, &job.FineTunedModel, &job.Status, &job.TrainingFile, &job.Error, &job.CreatedAt, &job.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan job record: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// ActiveJobIDs returns jobs that have not reached a terminal status, so the
// watcher can resume them after a restart.
func (s *Service) ActiveJobIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT job_id FROM job_records WHERE status NOT IN ('succeeded', 'failed', 'cancelled')`,
	)
	if err != nil {
		return nil, fmt.Errorf("active job ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan job id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
