package domain

import "time"

// JobStatus is the lifecycle state of an ingestion job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == JobCompleted || s == JobFailed
}

// BrandResult is the outcome of ingesting one brand.
type BrandResult struct {
	Brand Brand  `json:"brand"`
	Rows  int    `json:"rows"`
	Error string `json:"error,omitempty"`
}

// Job is a snapshot of one ingestion request.
type Job struct {
	ID         string        `json:"id"`
	Target     string        `json:"target"`
	Status     JobStatus     `json:"status"`
	Results    []BrandResult `json:"results"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Error      string        `json:"error,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	StartedAt  *time.Time    `json:"started_at,omitempty"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}

// TotalRows sums the rows written across brands.
func (j Job) TotalRows() int {
	total := 0
	for _, r := range j.Results {
		total += r.Rows
	}
	return total
}
