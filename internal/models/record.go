// Package models defines the records, wire payloads and latency samples shared
// across the service.
package models

import "time"

// Record labels.
const (
	LabelNormal = 0
	LabelFraud  = 1
)

// Record is one searchable transaction description.
type Record struct {
	ID        string    `json:"id" db:"id"`
	Text      string    `json:"text" db:"text"`
	Amount    float64   `json:"amount" db:"amount"`
	Label     int       `json:"label" db:"label"`
	Metadata  string    `json:"metadata,omitempty" db:"metadata"`
	Source    string    `json:"source,omitempty" db:"source"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IsFraud reports whether the record is labelled fraudulent.
func (r *Record) IsFraud() bool {
	return r.Label == LabelFraud
}

// LatencySample is one timed backend search, kept for dashboard statistics.
type LatencySample struct {
	ID        int64     `json:"id" db:"id"`
	Query     string    `json:"query" db:"query"`
	Backend   string    `json:"backend" db:"backend"`
	Seconds   float64   `json:"seconds" db:"seconds"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
