package domain

import "time"

// CompareJobStatus represents the lifecycle state of an async comparison job.
type CompareJobStatus string

// Comparison job lifecycle statuses.
const (
	CompareJobStatusQueued   CompareJobStatus = "queued"
	CompareJobStatusStarted  CompareJobStatus = "started"
	CompareJobStatusFinished CompareJobStatus = "finished"
	CompareJobStatusFailed   CompareJobStatus = "failed"
)

// CompareJob stores durable state for one asynchronous comparison run. The
// Result is retained until the job row expires or is deleted, so callers can
// poll after the progress channel has gone quiet.
type CompareJob struct {
	ID           string
	Status       CompareJobStatus
	SessionIDs   []string
	QueryTerms   []string
	MatchType    MatchType
	ChannelName  string
	Result       CompareResult
	ErrorMessage *string
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	UpdatedAt    time.Time
}
