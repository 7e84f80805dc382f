package models

import "time"

// UploadRecord is the local audit row written for each training file upload.
type UploadRecord struct {
	ID        string    `json:"id"`
	FileID    string    `json:"file_id"`
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	Format    string    `json:"format"`
	Samples   int       `json:"samples"`
	CreatedAt time.Time `json:"created_at"`
}
