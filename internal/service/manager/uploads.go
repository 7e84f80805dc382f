package manager

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/models"
)

// RecordUpload writes an audit row for a training file upload and returns
// the completed record.
func (s *Service) RecordUpload(ctx context.Context, rec models.UploadRecord) (*models.UploadRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO uploads (id, file_id, filename, size, format, samples, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.FileID, rec.Filename, rec.Size, rec.Format, rec.Samples, rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("record upload: %w", err)
	}
	return &rec, nil
}

// ListUploads returns the most recent upload audit rows.
func (s *Service) ListUploads(ctx context.Context, limit int) ([]models.UploadRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, file_id, filename, size, format, samples, created_at FROM uploads ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	var records []models.UploadRecord
	for rows.Next() {
		var rec models.UploadRecord
		if err := rows.Scan(&rec.ID, &rec.FileID, &rec.Filename, &rec.Size, &rec.Format, &rec.Samples, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
