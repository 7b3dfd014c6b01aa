package models

// RecordStatus is the lifecycle state shared by enrollments, payments and reviews.
// Rows are never removed physically; Active transitions to Deleted exactly once.
type RecordStatus int16

const (
	RecordStatusActive  RecordStatus = 0
	RecordStatusDeleted RecordStatus = 1
)

// String renders the status for logs and exports.
func (s RecordStatus) String() string {
	switch s {
	case RecordStatusActive:
		return "active"
	case RecordStatusDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
