// Package models contains domain types for the CSV ingest backend.
package models

// CellType represents the inferred type of a frame column.
type CellType string

const (
	CellTypeInteger CellType = "integer"
	CellTypeFloat   CellType = "float"
	CellTypeBoolean CellType = "boolean"
	CellTypeString  CellType = "string"
)

// Column names one frame column and carries its inferred type.
type Column struct {
	Name string   `json:"name" msgpack:"name"`
	Type CellType `json:"type" msgpack:"type"`
}

// Row is one ordered sequence of cells. A cell holds an int64, float64,
// bool, string, or nil when the value is missing.
type Row []interface{}
