// Package metrics provides constants used across metric definitions.
package metrics

// Status labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Document outcome labels for migration_documents_total.
const (
	OutcomeUpdated   = "updated"
	OutcomeUnchanged = "unchanged"
	OutcomeSkipped   = "skipped"
	OutcomeCreated   = "created"
	OutcomeMoved     = "moved"
)

// Store operation labels.
const (
	OpQuery       = "query"
	OpGet         = "get"
	OpCommit      = "commit"
	OpTransaction = "transaction"
)

// Histogram bucket parameters.
const (
	BucketStart1ms = 0.001
	BucketFactor2  = 2.0
	BucketCount15  = 15
)
