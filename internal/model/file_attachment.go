package model

import "time"

// FileAttachment references an uploaded file stored on local disk.
// The stored file outlives the session; nothing removes it.
type FileAttachment struct {
	Filename   string    `json:"filename"`
	StoredPath string    `json:"file_path"`
	Message    *string   `json:"message"`
	UploadTime time.Time `json:"upload_time"`
	FileID     string    `json:"file_id"`
}
