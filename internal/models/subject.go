package models

import "time"

// Subject maps a subject name to the range of standards it is taught in
// within one school. The range is stored as a "<start>-<end>" string.
type Subject struct {
	ID            string    `db:"id" json:"id"`
	SchoolID      string    `db:"school_id" json:"school_id"`
	Name          string    `db:"subject" json:"subject"`
	StandardRange string    `db:"standard_range" json:"standard_range"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
