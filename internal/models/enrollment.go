package models

import "time"

// Enrollment represents a student's registration to a class. It is the root of
// the ledger: payments and reviews reference it and may only be created while
// it is active.
type Enrollment struct {
	ID        int64        `db:"enrollment_id" json:"enrollment_id"`
	StudentID int64        `db:"student_id" json:"student_id"`
	ClassID   int64        `db:"class_id" json:"class_id"`
	Status    RecordStatus `db:"status" json:"status"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time   `db:"updated_at" json:"updated_at,omitempty"`
	DeletedAt *time.Time   `db:"deleted_at" json:"deleted_at,omitempty"`
}
