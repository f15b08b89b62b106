package usecase

import (
	"context"
	"encoding/json"
	"errors"

	applogger "SumReport/pkg/logger"
	"SumReport/pkg/queue"
)

// JobTypeTableRefresh is the queue message type of asynchronous refreshes.
const JobTypeTableRefresh = "table.refresh"

// RefreshRequest is the payload of a queued refresh.
type RefreshRequest struct {
	RequestedBy string `json:"requested_by,omitempty"`
}

// RefreshTableJob runs FundTable.Refresh from the job queue.
type RefreshTableJob struct {
	table *FundTable
	l     *applogger.Logger
}

func NewRefreshTableJob(table *FundTable, l *applogger.Logger) *RefreshTableJob {
	return &RefreshTableJob{table: table, l: l}
}

func (j *RefreshTableJob) Name() string { return "refresh-fund-table" }
func (j *RefreshTableJob) Type() string { return JobTypeTableRefresh }

// Handle refreshes the table. A refresh already running counts as done.
func (j *RefreshTableJob) Handle(ctx context.Context, payload json.RawMessage) error {
	req, err := queue.Decode[RefreshRequest](payload)
	if err != nil {
		return err
	}
	tbl, err := j.table.Refresh(ctx)
	if errors.Is(err, ErrRefreshInProgress) {
		if j.l != nil {
			j.l.Info("queued refresh skipped, another is running", applogger.String("requested_by", req.RequestedBy))
		}
		return nil
	}
	if err != nil {
		return err
	}
	if j.l != nil {
		j.l.Info("queued refresh done",
			applogger.String("requested_by", req.RequestedBy),
			applogger.String("batch_id", tbl.BatchID),
		)
	}
	return nil
}

var _ queue.Job = (*RefreshTableJob)(nil)
