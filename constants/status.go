package constants

// JobStatus is the canonical status for a batch extraction job.
type JobStatus string

// Stable values (archived alongside records).
const (
	JobStatusQueued  JobStatus = "QUEUED"  // waiting for a worker
	JobStatusRunning JobStatus = "RUNNING" // in progress
	JobStatusOK      JobStatus = "OK"      // record produced
	JobStatusPartial JobStatus = "PARTIAL" // record recovered from partial extraction
	JobStatusFailed  JobStatus = "FAILED"  // terminal failure, no usable record
)
