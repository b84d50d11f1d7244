package simpleposts

// CleanupStatus is the outcome of a best-effort blob delete.
type CleanupStatus string

// Cleanup status constants (typed).
const (
	// CleanupSucceeded means the blob was deleted.
	CleanupSucceeded CleanupStatus = "succeeded"
	// CleanupSkipped means the blob was already absent.
	CleanupSkipped CleanupStatus = "skipped_not_found"
	// CleanupFailed means the delete failed and an orphaned blob may remain.
	// This is reported, not escalated: the record is already consistent.
	CleanupFailed CleanupStatus = "failed"
)

// CleanupResult describes one compensating or cleanup blob delete attempt.
// It is a value, not an error: cleanup outcomes never change control flow.
type CleanupResult struct {
	ObjectKey string
	Status    CleanupStatus
	Err       error
}

// Orphaned reports whether the attempt may have left a blob behind.
func (r CleanupResult) Orphaned() bool {
	return r.Status == CleanupFailed
}
