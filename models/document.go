package models

import (
	"time"

	"github.com/google/uuid"
)

// ProcessingStatus represents the processing state of a stored document
type ProcessingStatus string

const (
	ProcessingPending   ProcessingStatus = "pending"
	ProcessingCompleted ProcessingStatus = "completed"
	ProcessingFailed    ProcessingStatus = "failed"
)

// Document represents an uploaded or generated file tracked in the documents table
type Document struct {
	ID               uuid.UUID        `json:"id"`
	UserID           *uuid.UUID       `json:"user_id,omitempty"`
	OriginalFilename string           `json:"original_filename"`
	Filename         string           `json:"filename"`
	FilePath         string           `json:"file_path"` // Storage key
	MimeType         string           `json:"mime_type"`
	FileSize         int64            `json:"file_size"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
	CreatedAt        time.Time        `json:"created_at"`
}
