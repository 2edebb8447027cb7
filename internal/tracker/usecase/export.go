package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blankon/sitetrack/internal/export"
	"github.com/blankon/sitetrack/internal/tracker/entity"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	issueColumns    = []string{"id", "created_at", "staff_name", "issue_detail", "related_to", "status", "days_pending", "image_url"}
	progressColumns = []string{"task_name", "update_by", "status", "created_at"}
)

func (s *TrackerUsecase) exportTable(ctx context.Context, kind entity.Kind, f ListFilter) (export.Table, error) {
	switch kind {
	case entity.KindIssue:
		views, err := s.ListIssues(ctx, f)
		if err != nil {
			return export.Table{}, err
		}
		table := export.Table{Sheet: string(kind), Headers: issueColumns, Rows: make([]export.Row, 0, len(views))}
		for _, v := range views {
			table.Rows = append(table.Rows, export.Row{
				Cells: []interface{}{
					v.ID,
					v.CreatedAt.In(s.Options.Location),
					v.StaffName,
					v.IssueDetail,
					v.RelatedTo,
					v.Status,
					v.DaysPending,
					v.ImageURL,
				},
				ImageURL: v.ImageURL,
			})
		}
		return table, nil

	case entity.KindProgress:
		records, err := s.ListProgress(ctx, f)
		if err != nil {
			return export.Table{}, err
		}
		table := export.Table{Sheet: string(kind), Headers: progressColumns, Rows: make([]export.Row, 0, len(records))}
		for _, p := range records {
			table.Rows = append(table.Rows, export.Row{
				Cells:    []interface{}{p.TaskName, p.UpdateBy, p.Status, p.CreatedAt.In(s.Options.Location)},
				ImageURL: p.ImageURL,
			})
		}
		return table, nil
	}
	return export.Table{}, entity.NewValidationError("kind", "unknown ledger "+string(kind))
}

// ExportCSV writes the filtered ledger as CSV.
func (s *TrackerUsecase) ExportCSV(ctx context.Context, kind entity.Kind, f ListFilter, w io.Writer) error {
	table, err := s.exportTable(ctx, kind, f)
	if err != nil {
		return err
	}
	return export.WriteCSV(w, table)
}

// ExportXLSX writes the filtered ledger as a spreadsheet with embedded photos.
func (s *TrackerUsecase) ExportXLSX(ctx context.Context, kind entity.Kind, f ListFilter, w io.Writer) (export.Report, error) {
	if s.Sheets == nil {
		return export.Report{}, UsecaseError{Code: http.StatusServiceUnavailable, Message: "spreadsheet export is not configured"}
	}
	table, err := s.exportTable(ctx, kind, f)
	if err != nil {
		return export.Report{}, err
	}
	report, err := s.Sheets.Write(ctx, w, table)
	if err != nil {
		return report, err
	}
	if report.Failed > 0 {
		s.Logger.Warn("export finished with missing images",
			zap.String("kind", string(kind)), zap.Int("rows", report.Rows), zap.Int("failed", report.Failed))
	}
	return report, nil
}

// RunExport renders an export request into the blob store and returns its URL.
// It is the body of the async export task.
func (s *TrackerUsecase) RunExport(ctx context.Context, req entity.ExportRequest) (string, error) {
	kind, err := entity.ParseKind(string(req.Kind))
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := s.ExportXLSX(ctx, kind, filterOf(req), &buf); err != nil {
		return "", err
	}

	name := fmt.Sprintf("export_%s_%s_%s.xlsx", kind, s.now().UTC().Format("20060102-150405"), uuid.New().String()[:8])
	if err := s.Blobs.Upload(ctx, name, xlsxContentType, &buf, int64(buf.Len())); err != nil {
		return "", fmt.Errorf("%w: %s: %v", entity.ErrUpload, name, err)
	}

	url := s.Blobs.PublicURL(name)
	s.Logger.Info("export stored", zap.String("kind", string(kind)), zap.String("url", url))
	return url, nil
}

// EnqueueExport schedules RunExport on a worker.
func (s *TrackerUsecase) EnqueueExport(ctx context.Context, req entity.ExportRequest) (entity.ExportJob, error) {
	if s.Exports == nil {
		return entity.ExportJob{}, ErrExportDisabled
	}
	if _, err := entity.ParseKind(string(req.Kind)); err != nil {
		return entity.ExportJob{}, err
	}
	if _, err := s.predicate(filterOf(req), nil, ""); err != nil {
		return entity.ExportJob{}, err
	}

	id, err := s.Exports.Enqueue(ctx, req)
	if err != nil {
		return entity.ExportJob{}, err
	}
	return entity.ExportJob{ID: id, State: "PENDING"}, nil
}

func (s *TrackerUsecase) ExportStatus(ctx context.Context, id string) (entity.ExportJob, error) {
	if s.Exports == nil {
		return entity.ExportJob{}, ErrExportDisabled
	}
	return s.Exports.Status(ctx, id)
}

func filterOf(req entity.ExportRequest) ListFilter {
	return ListFilter{Status: req.Status, Text: req.Text, From: req.From, To: req.To, Task: req.Task}
}
