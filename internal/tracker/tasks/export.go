// Package tasks holds the machinery task bodies run by the sitetrack worker.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/RichardKnop/machinery/v1"
	"go.uber.org/zap"

	"github.com/blankon/sitetrack/internal/tracker/entity"
)

// ExportRunner renders an export and returns the URL of the stored file.
type ExportRunner interface {
	RunExport(ctx context.Context, req entity.ExportRequest) (string, error)
}

// Exporter adapts an ExportRunner to the machinery task signature.
type Exporter struct {
	runner  ExportRunner
	timeout time.Duration
	logger  *zap.Logger
	active  int32
}

func NewExporter(runner ExportRunner, timeout time.Duration, logger *zap.Logger) *Exporter {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{runner: runner, timeout: timeout, logger: logger}
}

// Export is the body of the "export" task. payload is a JSON ExportRequest.
func (e *Exporter) Export(payload string) (string, error) {
	atomic.AddInt32(&e.active, 1)
	defer atomic.AddInt32(&e.active, -1)

	var req entity.ExportRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", fmt.Errorf("failed to decode export request: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	start := time.Now()
	url, err := e.runner.RunExport(ctx, req)
	if err != nil {
		e.logger.Error("export failed", zap.String("kind", string(req.Kind)), zap.Error(err))
		return "", err
	}
	e.logger.Info("export done", zap.String("kind", string(req.Kind)), zap.String("url", url), zap.Duration("took", time.Since(start)))
	return url, nil
}

// Active reports the number of exports currently running.
func (e *Exporter) Active() int {
	return int(atomic.LoadInt32(&e.active))
}

// Register binds the export task on server.
func (e *Exporter) Register(server *machinery.Server) error {
	return server.RegisterTask(entity.ExportTaskName, e.Export)
}
