package models

import "time"

// Review holds a student's rating for one enrollment. Same active-only
// uniqueness rule as Payment.
type Review struct {
	ID           int64        `db:"review_id" json:"review_id"`
	Rating       int16        `db:"rating" json:"rating"`
	Content      string       `db:"content" json:"content"`
	Status       RecordStatus `db:"status" json:"status"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time   `db:"updated_at" json:"updated_at,omitempty"`
	DeletedAt    *time.Time   `db:"deleted_at" json:"deleted_at,omitempty"`
	EnrollmentID int64        `db:"enrollment_id" json:"enrollment_id"`
}
