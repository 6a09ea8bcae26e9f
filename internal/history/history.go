// Package history records import runs and the fingerprints of the
// transactions each run submitted, so later runs can skip them.
package history

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("run not found")

type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusPreviewed Status = "previewed"
	StatusFailed    Status = "failed"
)

// Run summarizes one pipeline execution.
type Run struct {
	ID          uuid.UUID
	Destination string
	DryRun      bool
	Status      Status
	Loaded      int
	Imported    int
	Transfers   int
	Skipped     int
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Submission is a transaction as remembered by history.
type Submission struct {
	Fingerprint string
	Date        time.Time
	Amount      string
	Description string
}

type ListFilter struct {
	Destination string
	Limit       int
}
