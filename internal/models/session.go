package models

import "time"

// Session groups a chat transcript held against one fine-tuned model.
type Session struct {
	ID        int64     `json:"id"`
	Model     string    `json:"model"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
