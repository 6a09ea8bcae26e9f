package runs

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgersync/internal/history"
)

type runResponse struct {
	ID          uuid.UUID      `json:"id"`
	Destination string         `json:"destination"`
	DryRun      bool           `json:"dry_run"`
	Status      history.Status `json:"status"`
	Loaded      int            `json:"loaded"`
	Imported    int            `json:"imported"`
	Transfers   int            `json:"transfers"`
	Skipped     int            `json:"skipped"`
	Error       string         `json:"error,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
}

func toResponse(run *history.Run) runResponse {
	return runResponse{
		ID:          run.ID,
		Destination: run.Destination,
		DryRun:      run.DryRun,
		Status:      run.Status,
		Loaded:      run.Loaded,
		Imported:    run.Imported,
		Transfers:   run.Transfers,
		Skipped:     run.Skipped,
		Error:       run.Error,
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
	}
}

func toResponseList(list []*history.Run) []runResponse {
	resp := make([]runResponse, len(list))
	for i, run := range list {
		resp[i] = toResponse(run)
	}

	return resp
}
