package models

import "time"

// StoredFile represents metadata about a frame persisted in the volume.
type StoredFile struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modifiedAt"`
}
