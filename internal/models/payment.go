package models

import "time"

// Payment records the fee paid for one enrollment. At most one active payment
// may exist per enrollment; a deleted payment frees the slot for a new one.
type Payment struct {
	ID           int64        `db:"payment_id" json:"payment_id"`
	Amount       float64      `db:"amount" json:"amount"`
	Status       RecordStatus `db:"status" json:"status"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time   `db:"updated_at" json:"updated_at,omitempty"`
	DeletedAt    *time.Time   `db:"deleted_at" json:"deleted_at,omitempty"`
	EnrollmentID int64        `db:"enrollment_id" json:"enrollment_id"`
}
