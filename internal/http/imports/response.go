package imports

import (
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgersync/internal/pipeline"
	"github.com/MrJamesThe3rd/ledgersync/internal/snapshot"
)

type importResponse struct {
	RunID        *uuid.UUID       `json:"run_id,omitempty"`
	Submitted    bool             `json:"submitted"`
	Transfers    int              `json:"transfers"`
	Skipped      int              `json:"skipped"`
	Pending      int              `json:"pending"`
	Transactions []snapshot.Entry `json:"transactions"`
}

func toResponse(res *pipeline.Result) importResponse {
	resp := importResponse{
		Submitted:    res.Submitted,
		Transfers:    len(res.Pairs),
		Skipped:      len(res.Skipped),
		Pending:      len(res.Pending),
		Transactions: snapshot.Entries(res.Transactions),
	}

	if res.Run != nil && res.Run.ID != uuid.Nil {
		resp.RunID = &res.Run.ID
	}

	return resp
}
