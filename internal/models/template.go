package models

import "time"

// Template represents a poster design owned by a school.
type Template struct {
	ID        string    `db:"id" json:"id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	Name      string    `db:"name" json:"name"`
	Standard  int       `db:"standard" json:"standard"`
	MaxMarks  int       `db:"max_marks" json:"max_marks"`
	ImageURL  *string   `db:"image_url" json:"image_url,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TemplateFilter captures supported filters for listing templates.
type TemplateFilter struct {
	SchoolID  string
	MaxMarks  *int
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
