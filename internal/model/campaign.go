package model

import "time"

// Campaign is one inspection campaign (inventário). At most one campaign is
// active at any time; the database enforces this with a partial unique index.
type Campaign struct {
	ID           int64      `json:"id"`
	Year         int        `json:"year"`
	Active       bool       `json:"active"`
	IncludeBooks bool       `json:"include_books"`
	StartsOn     *time.Time `json:"starts_on,omitempty"`
	EndsOn       *time.Time `json:"ends_on,omitempty"`
	CreatedBy    *int64     `json:"created_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
