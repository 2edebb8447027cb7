package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blankon/sitetrack/internal/tracker/entity"
)

func TestExportCSV_Issues(t *testing.T) {
	f := newFixture(t, TrackerOptions{})
	ctx := context.Background()

	_, err := f.tracker.SubmitIssue(ctx, IssueSubmission{StaffName: "สมชาย", IssueDetail: "Leak, level 3", RelatedTo: "HW"}, photo(pngHeader))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.tracker.ExportCSV(ctx, entity.KindIssue, ListFilter{}, &buf))

	body := strings.TrimPrefix(buf.String(), "\xef\xbb\xbf")
	records, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, issueColumns, records[0])
	assert.Equal(t, "สมชาย", records[1][2])
	assert.Equal(t, "Leak, level 3", records[1][3])
	assert.Equal(t, "Pending", records[1][5])
	assert.Equal(t, "0", records[1][6])
	assert.True(t, strings.HasPrefix(records[1][7], "http://site.test/uploads/issue_"))
}

func TestExportCSV_ProgressFiltered(t *testing.T) {
	f := newFixture(t, TrackerOptions{})
	ctx := context.Background()

	submit(t, f, "Duct", "Anan", 20, false)
	submit(t, f, "Pipe", "Malee", 35, false)

	var buf bytes.Buffer
	require.NoError(t, f.tracker.ExportCSV(ctx, entity.KindProgress, ListFilter{Task: "Pipe"}, &buf))

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(buf.String(), "\xef\xbb\xbf"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, progressColumns, records[0])
	assert.Equal(t, []string{"Pipe", "Malee", "35"}, records[1][:3])

	err = f.tracker.ExportCSV(ctx, entity.Kind("orders"), ListFilter{}, &buf)
	assert.True(t, errors.Is(err, entity.ErrValidation))
}

func TestRunExport(t *testing.T) {
	f := newFixture(t, TrackerOptions{})
	ctx := context.Background()

	submit(t, f, "Duct", "Anan", 20, true)

	url, err := f.tracker.RunExport(ctx, entity.ExportRequest{Kind: entity.KindProgress})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://site.test/uploads/export_progress_"))
	assert.True(t, strings.HasSuffix(url, ".xlsx"))

	require.Len(t, f.sheets.WriteCalls(), 1)
	table := f.sheets.WriteCalls()[0].Table
	require.Len(t, table.Rows, 1)
	assert.NotEmpty(t, table.Rows[0].ImageURL)

	name := strings.TrimPrefix(url, "http://site.test/uploads/")
	assert.Equal(t, xlsxContentType, f.blobs.types[name])
	assert.Equal(t, []byte("PK-fake"), f.blobs.objects[name])
	require.Len(t, f.store.UploadCalls(), 2)
	assert.Equal(t, name, f.store.UploadCalls()[1].Name)

	_, err = f.tracker.RunExport(ctx, entity.ExportRequest{Kind: "orders"})
	assert.True(t, errors.Is(err, entity.ErrValidation))
}

func TestEnqueueExport(t *testing.T) {
	f := newFixture(t, TrackerOptions{})
	ctx := context.Background()

	_, err := f.tracker.EnqueueExport(ctx, entity.ExportRequest{Kind: entity.KindIssue})
	assert.Equal(t, ErrExportDisabled, err)
	assert.Equal(t, http.StatusServiceUnavailable, StatusCode(err))

	jobs := map[string]entity.ExportJob{
		"export_1": {ID: "export_1", State: "SUCCESS", URL: "http://site.test/uploads/x.xlsx"},
	}
	queue := &ExportQueueMock{
		EnqueueFunc: func(ctx context.Context, req entity.ExportRequest) (string, error) {
			return "export_1", nil
		},
		StatusFunc: func(ctx context.Context, id string) (entity.ExportJob, error) {
			job, ok := jobs[id]
			if !ok {
				return entity.ExportJob{}, entity.ErrNotFound
			}
			return job, nil
		},
	}
	tracker := NewTrackerUsecase(f.issues, f.progress, f.store, nil, f.sheets, queue, TrackerOptions{}, zap.NewNop())

	job, err := tracker.EnqueueExport(ctx, entity.ExportRequest{Kind: entity.KindIssue, Status: "Pending"})
	require.NoError(t, err)
	assert.Equal(t, "export_1", job.ID)
	assert.Equal(t, "PENDING", job.State)
	require.Len(t, queue.EnqueueCalls(), 1)
	assert.Equal(t, "Pending", queue.EnqueueCalls()[0].Req.Status)

	_, err = tracker.EnqueueExport(ctx, entity.ExportRequest{Kind: entity.KindIssue, From: "yesterday"})
	assert.True(t, errors.Is(err, entity.ErrValidation))

	job, err = tracker.ExportStatus(ctx, "export_1")
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", job.State)

	_, err = tracker.ExportStatus(ctx, "export_2")
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{entity.NewValidationError("x", "bad"), http.StatusBadRequest},
		{entity.ErrNotAuthorized, http.StatusUnauthorized},
		{entity.ErrNotFound, http.StatusNotFound},
		{entity.ErrUpload, http.StatusBadGateway},
		{entity.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{UsecaseError{Code: http.StatusConflict, Message: "x"}, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusCode(tt.err))
	}
}
