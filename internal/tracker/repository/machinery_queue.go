package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/RichardKnop/machinery/v1"
	"github.com/RichardKnop/machinery/v1/tasks"
	"github.com/google/uuid"

	"github.com/blankon/sitetrack/internal/tracker/entity"
)

// MachineryExportQueue sends export jobs to the worker pool over the machinery broker.
type MachineryExportQueue struct {
	server *machinery.Server
}

// NewMachineryExportQueue wraps a configured machinery server.
func NewMachineryExportQueue(server *machinery.Server) *MachineryExportQueue {
	return &MachineryExportQueue{server: server}
}

// Enqueue sends the export task and returns its UUID.
func (q *MachineryExportQueue) Enqueue(ctx context.Context, req entity.ExportRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal export request: %w", err)
	}

	signature := tasks.Signature{
		Name: entity.ExportTaskName,
		UUID: "export_" + uuid.New().String(),
		Args: []tasks.Arg{
			{
				Type:  "string",
				Value: string(payload),
			},
		},
	}

	if _, err := q.server.SendTaskWithContext(ctx, &signature); err != nil {
		return "", fmt.Errorf("could not send export task: %w", err)
	}
	return signature.UUID, nil
}

// Status reads the task state from the result backend.
func (q *MachineryExportQueue) Status(ctx context.Context, id string) (entity.ExportJob, error) {
	state, err := q.server.GetBackend().GetState(id)
	if err != nil {
		return entity.ExportJob{}, fmt.Errorf("%w: export %s: %v", entity.ErrNotFound, id, err)
	}

	job := entity.ExportJob{ID: id, State: state.State, Error: state.Error}
	if state.IsSuccess() && len(state.Results) > 0 {
		job.URL = fmt.Sprint(state.Results[0].Value)
	}
	return job, nil
}
