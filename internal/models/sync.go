package models

import "time"

// SyncStats counts what one reconciliation pass did.
type SyncStats struct {
	Pushed   int
	Appended int
	Marked   int
	Pulled   int
	Skipped  int
	Writes   int
}

// SyncRun statuses.
const (
	SyncRunning = "running"
	SyncSuccess = "success"
	SyncFailed  = "failed"
)

// SyncRun is one recorded scheduler invocation.
type SyncRun struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string
	Stats      SyncStats
	Error      string
}

// DailySummary aggregates one date's entries.
type DailySummary struct {
	Date    string
	Average float64
	Rounded Severity
	Peak    Severity
	Count   int
}
