package service

// Cache key prefixes for list responses. Writes invalidate by prefix match so
// grouped deletes can clear all affected entities in one pass.
const (
	cacheKeyEnrollments = "academy:enrollments"
	cacheKeyPayments    = "academy:payments"
	cacheKeyReviews     = "academy:reviews"
)
