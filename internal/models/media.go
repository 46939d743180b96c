package models

import "time"

// Media is the stored metadata for an uploaded file; the bytes themselves
// live in Cloudinary.
type Media struct {
	ID         string    `json:"id"`
	UploaderID string    `json:"uploader_id"`
	FileName   string    `json:"file_name"`
	FileURL    string    `json:"file_url"`
	FileType   string    `json:"file_type,omitempty"`
	FileSize   int64     `json:"file_size,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
