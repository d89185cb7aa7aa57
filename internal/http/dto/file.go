package dto

import "time"

type FileResponse struct {
	FileID      string    `json:"file_id"`
	ProjectID   string    `json:"project_id"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}
