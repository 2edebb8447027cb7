package endpoint

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/blankon/sitetrack/internal/auth"
	"github.com/blankon/sitetrack/internal/tracker/entity"
	"github.com/blankon/sitetrack/internal/tracker/usecase"
	httputil "github.com/blankon/sitetrack/pkg/httputil"
)

const maxJSONBody = 1 << 20

// TrackerHTTPEndpoint http endpoint for the issue and progress ledgers
type TrackerHTTPEndpoint struct {
	tracker   *usecase.TrackerUsecase
	admin     *usecase.AdminUsecase
	instances InstanceLister
	site      SiteInfo
	version   string
	maxUpload int64
	logger    *zap.Logger
}

// NewTrackerHTTPEndpoint returns new tracker endpoint. instances may be nil.
func NewTrackerHTTPEndpoint(
	tracker *usecase.TrackerUsecase,
	admin *usecase.AdminUsecase,
	instances InstanceLister,
	site SiteInfo,
	version string,
	logger *zap.Logger,
) *TrackerHTTPEndpoint {
	if logger == nil {
		logger = zap.NewNop()
	}
	if site.Roster == nil {
		site.Roster = []string{}
	}
	site.Tags = entity.RelatedToTags
	site.Statuses = entity.IssueStatuses
	return &TrackerHTTPEndpoint{
		tracker:   tracker,
		admin:     admin,
		instances: instances,
		site:      site,
		version:   version,
		maxUpload: tracker.Options.MaxPhotoBytes + 1<<20,
		logger:    logger,
	}
}

// Routes registers every API route on mux
func (e *TrackerHTTPEndpoint) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/issues", e.SubmitIssueHandler)
	mux.HandleFunc("GET /api/v1/issues", e.ListIssuesHandler)
	mux.HandleFunc("GET /api/v1/issues/summary", e.IssueSummaryHandler)
	mux.HandleFunc("GET /api/v1/issues/export.csv", e.exportCSVHandler(entity.KindIssue))
	mux.HandleFunc("GET /api/v1/issues/export.xlsx", e.exportXLSXHandler(entity.KindIssue))

	mux.HandleFunc("POST /api/v1/progress", e.SubmitProgressHandler)
	mux.HandleFunc("GET /api/v1/progress", e.ListProgressHandler)
	mux.HandleFunc("GET /api/v1/progress/current", e.CurrentProgressHandler)
	mux.HandleFunc("GET /api/v1/progress/dashboard", e.DashboardHandler)
	mux.HandleFunc("GET /api/v1/progress/export.csv", e.exportCSVHandler(entity.KindProgress))
	mux.HandleFunc("GET /api/v1/progress/export.xlsx", e.exportXLSXHandler(entity.KindProgress))

	mux.HandleFunc("POST /api/v1/exports", e.EnqueueExportHandler)
	mux.HandleFunc("GET /api/v1/exports/{id}", e.ExportStatusHandler)

	mux.HandleFunc("POST /api/v1/admin/login", e.LoginHandler)
	mux.HandleFunc("PATCH /api/v1/admin/{kind}/{id}", e.UpdateStatusHandler)
	mux.HandleFunc("PUT /api/v1/admin/{kind}", e.BulkUpdateHandler)
	mux.HandleFunc("DELETE /api/v1/admin/{kind}/{id}", e.DeleteHandler)

	mux.HandleFunc("GET /api/v1/version", e.VersionHandler)
	mux.HandleFunc("GET /api/v1/roster", e.RosterHandler)
	mux.HandleFunc("GET /api/v1/instances", e.InstancesHandler)
}

func (e *TrackerHTTPEndpoint) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := usecase.StatusCode(err)
	message := err.Error()
	if code >= http.StatusInternalServerError {
		e.logger.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		var useErr usecase.UsecaseError
		if !errors.As(err, &useErr) {
			message = http.StatusText(code)
		}
	}
	httputil.ResponseError(message, code, w)
}

func listFilter(r *http.Request) usecase.ListFilter {
	q := r.URL.Query()
	return usecase.ListFilter{
		Status: q.Get("status"),
		Text:   q.Get("q"),
		From:   q.Get("from"),
		To:     q.Get("to"),
		Task:   q.Get("task"),
	}
}

// readForm parses a multipart or urlencoded submission and returns the
// optional photo part. The caller closes the returned closer.
func (e *TrackerHTTPEndpoint) readForm(w http.ResponseWriter, r *http.Request) (*usecase.Photo, io.Closer, error) {
	r.Body = http.MaxBytesReader(w, r.Body, e.maxUpload)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := r.ParseForm(); err != nil {
			return nil, nil, entity.NewValidationError("", "can't read request body")
		}
		return nil, nil, nil
	}

	if err := r.ParseMultipartForm(e.maxUpload); err != nil {
		return nil, nil, entity.NewValidationError("photo", "can't read upload: "+err.Error())
	}
	file, header, err := r.FormFile("photo")
	if err == http.ErrMissingFile {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, entity.NewValidationError("photo", err.Error())
	}
	return &usecase.Photo{Filename: header.Filename, Size: header.Size, Reader: file}, file, nil
}

// SubmitIssueHandler accepts a new issue with an optional photo
func (e *TrackerHTTPEndpoint) SubmitIssueHandler(w http.ResponseWriter, r *http.Request) {
	photo, closer, err := e.readForm(w, r)
	if err != nil {
		e.writeError(w, r, err)
		return
	}
	if closer != nil {
		defer closer.Close()
	}

	issue, err := e.tracker.SubmitIssue(r.Context(), usecase.IssueSubmission{
		StaffName:   r.FormValue("staff_name"),
		IssueDetail: r.FormValue("issue_detail"),
		RelatedTo:   r.FormValue("related_to"),
	}, photo)
	if err != nil {
		e.writeError(w, r, err)
		return
	}
	httputil.ResponseJSON(issue, http.StatusCreated, w)
}

// ListIssuesHandler lists issues matching the query parameters
func (e *TrackerHTTPEndpoint) ListIssuesHandler(w http.ResponseWriter, r *http.Request) {
	issues, err := e.tracker.ListIssues(r.Context(), listFilter(r))
	if err != nil {
		e.writeError(w, r, err)
		return
	}
	httputil.ResponseJSON(issues, http.StatusOK, w)
}

// IssueSummaryHandler counts issues per status
func (e *TrackerHTTPEndpoint) IssueSummaryHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := e.tracker.IssueSummary(r.Context(), listFilter(r))
	if err != nil {
		e.writeError(w, r, err)
		return
	}
	httputil.ResponseJSON(summary, http.StatusOK, w)
}

// SubmitProgressHandler accepts a progress update with an optional photo
func (e *TrackerHTTPEndpoint) SubmitProgressHandler(w http.ResponseWriter, r *http.Request) {
	photo, closer, err := e.readForm(w, r)
	if err != nil {
		e.writeError(w, r, err)
		return
	}
	if closer != nil {
		defer closer.Close()
	}

	status, err := strconv.Atoi(strings.TrimSpace(r.FormValue("status")))
	if err != nil {
		e.writeError(w, r, entity.NewValidationError("status", "must be a whole percentage"))
		return
	}

	progress, err := e.tracker.SubmitProgress(r.Context(), usecase.ProgressSubmission{
		TaskName: r.FormValue("task_name"),
		UpdateBy: r.FormValue("update_by"),
		Status:   status,
	}, photo)
	if err != nil {
		e.writeError(w, r, err)
		return
	}
	httputil.ResponseJSON(progress, http.StatusCreated, w)
}

// ListProgressHandler lists the progress history
func (e *TrackerHTTPEndpoint) ListProgressHandler(w http.ResponseWriter, r *http.Request) {
	records, err := e.tracker.ListProgress(r.Context(), listFilter(r))
	if err != nil {
		e.writeError(w, r, err)
		return
	}
	httputil.ResponseJSON(records, http.StatusOK, w)
}

// CurrentProgressHandler returns the prefill for ?task=
func (e *TrackerHTTPEndpoint) CurrentProgressHandler(w http.ResponseWriter, r *http.Request) {
	prefill, err := e.tracker.CurrentProgress(r.Context(), r.URL.Query().Get("task"))
	if err != nil {
		e.writeError(w, r, err)
		return
	}
	httputil.ResponseJSON(prefill, http.StatusOK, w)
}

// DashboardHandler returns the progress dashboard; ?view=upload selects the submission view
func (e *TrackerHTTPEndpoint) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	dash, err := e.tracker.ProgressDashboard(r.Context(), listFilter(r), r.URL.Query().Get("view"))
	if err != nil {
		e.writeError(w, r, err)
		return
	}
	httputil.ResponseJSON(dash, http.StatusOK, w)
}

func attachment(w http.ResponseWriter, kind entity.Kind, ext, contentType string, body *bytes.Buffer) {
	name := fmt.Sprintf("%s_%s.%s", kind, time.Now().Format("20060102"), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(body.Len()))
	w.WriteHeader(http.StatusOK)
	body.WriteTo(w)
}

func (e *TrackerHTTPEndpoint) exportCSVHandler(kind entity.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := e.tracker.ExportCSV(r.Context(), kind, listFilter(r), &buf); err != nil {
			e.writeError(w, r, err)
			return
		}
		attachment(w, kind, "csv", "text/csv; charset=utf-8", &buf)
	}
}

func (e *TrackerHTTPEndpoint) exportXLSXHandler(kind entity.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if _, err := e.tracker.ExportXLSX(r.Context(), kind, listFilter(r), &buf); err != nil {
			e.writeError(w, r, err)
			return
		}
		attachment(w, kind, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", &buf)
	}
}

// EnqueueExportHandler queues a spreadsheet export on the worker
func (e *TrackerHTTPEndpoint) EnqueueExportHandler(w http.ResponseWriter, r *http.Request) {
	var req entity.ExportRequest
	if err := httputil.DecodeJSON(http.MaxBytesReader(w, r.Body, maxJSONBody), &req); err != nil {
		httputil.ResponseError("Can't read request body", http.StatusBadRequest, w)
		return
	}

	job, err := e.tracker.EnqueueExport(r.Context(), req)
	if err != nil {
		e.writeError(w, r, err)
		return
	}
	httputil.ResponseJSON(job, http.StatusAccepted, w)
}

// ExportStatusHandler reports a queued export
func (e *TrackerHTTPEndpoint) ExportStatusHandler(w http.ResponseWriter, r *http.Request) {
	job, err := e.tracker.ExportStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		e.writeError(w, r, err)
		return
	}
	httputil.ResponseJSON(job, http.StatusOK, w)
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LoginHandler exchanges the admin secret for a session token
func (e *TrackerHTTPEndpoint) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeJSON(http.MaxBytesReader(w, r.Body, maxJSONBody), &req); err != nil {
		httputil.ResponseError("Can't read request body", http.StatusBadRequest, w)
		return
	}

	res, err := e.admin.Login(r.Context(), clientAddr(r), req.Secret)
	if err != nil {
		e.writeError(w, r, err)
		return
	}
	httputil.ResponseJSON(res, http.StatusOK, w)
}

func (e *TrackerHTTPEndpoint) session(r *http.Request) (auth.Session, error) {
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if header == "" || token == header {
		return auth.Session{}, fmt.Errorf("%w: missing bearer token", entity.ErrNotAuthorized)
	}
	return e.admin.Verify(token)
}

func pathTarget(r *http.Request) (entity.Kind, int64, error) {
	kind, err := entity.ParseKind(r.PathValue("kind"))
	if err != nil {
		return "", 0, err
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return "", 0, entity.NewValidationError("id", "must be a number")
	}
	return kind, id, nil
}

// UpdateStatusHandler changes the status of one record
func (e *TrackerHTTPEndpoint) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	session, err := e.session(r)
	if err != nil {
		e.writeError(w, r, err)
		return
	}
	kind, id, err := pathTarget(r)
	if err != nil {
		e.writeError(w, r, err)
		return
	}

	var req StatusRequest
	if err := httputil.DecodeJSON(http.MaxBytesReader(w, r.Body, maxJSONBody), &req); err != nil || req.Status == nil {
		httputil.ResponseError("Can't read request body", http.StatusBadRequest, w)
		return
	}

	if err := e.admin.UpdateStatus(r.Context(), session, kind, id, fmt.Sprint(req.Status)); err != nil {
		e.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BulkUpdateHandler applies a batch of row edits and reports each row
func (e *TrackerHTTPEndpoint) BulkUpdateHandler(w http.ResponseWriter, r *http.Request) {
	session, err := e.session(r)
	if err != nil {
		e.writeError(w, r, err)
		return
	}
	kind, err := entity.ParseKind(r.PathValue("kind"))
	if err != nil {
		e.writeError(w, r, err)
		return
	}

	var req BulkRequest
	if err := httputil.DecodeJSON(http.MaxBytesReader(w, r.Body, maxJSONBody), &req); err != nil {
		httputil.ResponseError("Can't read request body", http.StatusBadRequest, w)
		return
	}

	results, err := e.admin.BulkUpdate(r.Context(), session, kind, req.Rows)
	if err != nil {
		e.writeError(w, r, err)
		return
	}

	res := BulkResponse{Results: results}
	for _, row := range results {
		if !row.OK {
			res.Failed++
		}
	}
	httputil.ResponseJSON(res, http.StatusOK, w)
}

// DeleteHandler removes one record
func (e *TrackerHTTPEndpoint) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	session, err := e.session(r)
	if err != nil {
		e.writeError(w, r, err)
		return
	}
	kind, id, err := pathTarget(r)
	if err != nil {
		e.writeError(w, r, err)
		return
	}

	if err := e.admin.DeleteRecord(r.Context(), session, kind, id); err != nil {
		e.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *TrackerHTTPEndpoint) VersionHandler(w http.ResponseWriter, r *http.Request) {
	httputil.ResponseJSON(map[string]string{"version": e.version}, http.StatusOK, w)
}

// RosterHandler serves the roster and presentation settings
func (e *TrackerHTTPEndpoint) RosterHandler(w http.ResponseWriter, r *http.Request) {
	httputil.ResponseJSON(e.site, http.StatusOK, w)
}

// InstancesHandler lists server and worker heartbeats
func (e *TrackerHTTPEndpoint) InstancesHandler(w http.ResponseWriter, r *http.Request) {
	if e.instances == nil {
		httputil.ResponseError("monitoring is not configured", http.StatusServiceUnavailable, w)
		return
	}
	snapshot, err := e.instances.Snapshot(r.Context())
	if err != nil {
		e.writeError(w, r, err)
		return
	}
	httputil.ResponseJSON(snapshot, http.StatusOK, w)
}
