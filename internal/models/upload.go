package models

import "time"

// UploadStatus represents the outcome of one POST /upload.
type UploadStatus string

const (
	UploadStatusStored   UploadStatus = "stored"
	UploadStatusRejected UploadStatus = "rejected" // body could not be decoded
	UploadStatusFailed   UploadStatus = "failed"   // volume write failed
)

// UploadRecord is the server-side account of a single upload.
type UploadRecord struct {
	ID         string       `json:"id"`
	ReceivedAt time.Time    `json:"receivedAt"`
	Size       int64        `json:"size"`
	StoredAs   string       `json:"storedAs,omitempty"`
	Rows       int          `json:"rows"`
	Skipped    int          `json:"skipped"`
	Status     UploadStatus `json:"status"`
	Error      string       `json:"error,omitempty"`
}
