package usecase

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blankon/sitetrack/internal/notification"
	"github.com/blankon/sitetrack/internal/tracker/entity"
)

func TestSubmitIssue(t *testing.T) {
	f := newFixture(t, TrackerOptions{})
	ctx := context.Background()

	issue, err := f.tracker.SubmitIssue(ctx, IssueSubmission{
		StaffName:   "  Anan ",
		IssueDetail: "Sprinkler pipe clashes with duct at grid C4",
		RelatedTo:   "IFS",
	}, photo(pngHeader))
	require.NoError(t, err)

	assert.NotZero(t, issue.ID)
	assert.Equal(t, "Anan", issue.StaffName)
	assert.Equal(t, entity.IssueStatusPending, issue.Status)
	assert.False(t, issue.CreatedAt.IsZero())
	assert.True(t, strings.HasPrefix(issue.ImageURL, "http://site.test/uploads/issue_"))
	assert.True(t, strings.HasSuffix(issue.ImageURL, ".png"))

	names := f.blobs.names()
	require.Len(t, names, 1)
	assert.Equal(t, pngHeader, f.blobs.objects[names[0]])
	assert.Equal(t, "image/png", f.blobs.types[names[0]])

	require.Len(t, f.notifier.issues, 1)
	assert.Equal(t, issue.ID, f.notifier.issues[0].ID)
}

func TestSubmitIssue_StalledWebhookDoesNotDelay(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := newFixture(t, TrackerOptions{})
	hook := notification.NewWebhook(srv.URL, zap.NewNop())
	tracker := NewTrackerUsecase(f.issues, f.progress, f.store, hook, f.sheets, nil, TrackerOptions{}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	start := time.Now()
	issue, err := tracker.SubmitIssue(ctx, IssueSubmission{StaffName: "Anan", IssueDetail: "leak"}, nil)
	elapsed := time.Since(start)
	cancel()

	require.NoError(t, err)
	assert.NotZero(t, issue.ID)
	assert.Less(t, elapsed, time.Second)

	start = time.Now()
	_, err = tracker.SubmitProgress(context.Background(), ProgressSubmission{TaskName: "Duct", UpdateBy: "Anan", Status: 40}, nil)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	close(release)
	hook.Wait()
}

func TestSubmitIssue_WithoutPhoto(t *testing.T) {
	f := newFixture(t, TrackerOptions{})

	issue, err := f.tracker.SubmitIssue(context.Background(), IssueSubmission{StaffName: "Anan", IssueDetail: "Door frame missing"}, nil)
	require.NoError(t, err)
	assert.Empty(t, issue.ImageURL)
	assert.Empty(t, issue.RelatedTo)
	assert.Empty(t, f.blobs.names())
}

func TestSubmitIssue_Validation(t *testing.T) {
	tests := []struct {
		name  string
		sub   IssueSubmission
		field string
	}{
		{"missing name", IssueSubmission{IssueDetail: "leak"}, "staff_name"},
		{"blank detail", IssueSubmission{StaffName: "Anan", IssueDetail: "   "}, "issue_detail"},
		{"name too long", IssueSubmission{StaffName: strings.Repeat("ก", 51), IssueDetail: "leak"}, "staff_name"},
		{"detail too long", IssueSubmission{StaffName: "Anan", IssueDetail: strings.Repeat("x", 501)}, "issue_detail"},
		{"unknown tag", IssueSubmission{StaffName: "Anan", IssueDetail: "leak", RelatedTo: "Plumbing"}, "related_to"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, TrackerOptions{})
			_, err := f.tracker.SubmitIssue(context.Background(), tt.sub, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, entity.ErrValidation))

			var ve entity.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)

			issues, err := f.issues.ListAll(context.Background())
			require.NoError(t, err)
			assert.Empty(t, issues)
		})
	}
}

func TestSubmitIssue_FiftyThaiCharactersAccepted(t *testing.T) {
	f := newFixture(t, TrackerOptions{})
	_, err := f.tracker.SubmitIssue(context.Background(), IssueSubmission{StaffName: strings.Repeat("ก", 50), IssueDetail: "leak"}, nil)
	assert.NoError(t, err)
}

func TestSubmitIssue_UploadFailure(t *testing.T) {
	f := newFixture(t, TrackerOptions{})
	f.blobs.fail = errBroken

	_, err := f.tracker.SubmitIssue(context.Background(), IssueSubmission{StaffName: "Anan", IssueDetail: "leak"}, photo(pngHeader))
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrUpload))

	issues, err := f.issues.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Empty(t, f.notifier.issues)
}

func TestSubmitIssue_RejectsNonImage(t *testing.T) {
	f := newFixture(t, TrackerOptions{})

	_, err := f.tracker.SubmitIssue(context.Background(), IssueSubmission{StaffName: "Anan", IssueDetail: "leak"},
		photo([]byte("%PDF-1.4 not a photo")))
	assert.True(t, errors.Is(err, entity.ErrValidation))
	assert.Empty(t, f.blobs.names())
}

func TestSubmitIssue_RejectsWebP(t *testing.T) {
	f := newFixture(t, TrackerOptions{})
	webp := []byte("RIFF\x24\x00\x00\x00WEBPVP8 \x18\x00\x00\x00")

	_, err := f.tracker.SubmitIssue(context.Background(), IssueSubmission{StaffName: "Anan", IssueDetail: "leak"}, photo(webp))
	var ve entity.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "photo", ve.Field)
	assert.Empty(t, f.blobs.names())
}

func TestSubmitIssue_PhotoTooLarge(t *testing.T) {
	f := newFixture(t, TrackerOptions{MaxPhotoBytes: 8})

	_, err := f.tracker.SubmitIssue(context.Background(), IssueSubmission{StaffName: "Anan", IssueDetail: "leak"},
		photo(bytes.Repeat(pngHeader, 2)))
	assert.True(t, errors.Is(err, entity.ErrValidation))
}

func TestSubmitIssue_StoreUnavailableLeavesOrphan(t *testing.T) {
	f := newFixture(t, TrackerOptions{})
	require.NoError(t, f.db.Close())

	_, err := f.tracker.SubmitIssue(context.Background(), IssueSubmission{StaffName: "Anan", IssueDetail: "leak"}, photo(pngHeader))
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrStoreUnavailable))
	assert.Len(t, f.blobs.names(), 1)
	assert.Empty(t, f.notifier.issues)
}

func TestListIssuesAndSummary(t *testing.T) {
	f := newFixture(t, TrackerOptions{})
	ctx := context.Background()

	for _, sub := range []IssueSubmission{
		{StaffName: "Anan", IssueDetail: "Chilled water leak", RelatedTo: "HW"},
		{StaffName: "Malee", IssueDetail: "Cable tray missing", RelatedTo: "CSC"},
		{StaffName: "Somchai", IssueDetail: "Leak under riser", RelatedTo: "HW"},
	} {
		_, err := f.tracker.SubmitIssue(ctx, sub, nil)
		require.NoError(t, err)
	}

	all, err := f.issues.ListAll(ctx)
	require.NoError(t, err)
	require.NoError(t, f.issues.UpdateFields(ctx, all[0].ID, map[string]interface{}{"status": entity.IssueStatusClosed}))

	leaks, err := f.tracker.ListIssues(ctx, ListFilter{Text: "LEAK"})
	require.NoError(t, err)
	require.Len(t, leaks, 2)
	assert.Equal(t, "Somchai", leaks[0].StaffName)
	assert.Equal(t, 0, leaks[0].DaysPending)

	pending, err := f.tracker.ListIssues(ctx, ListFilter{Status: entity.IssueStatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	summary, err := f.tracker.IssueSummary(ctx, ListFilter{Status: "All"})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Open)
	assert.Equal(t, map[string]int{entity.IssueStatusPending: 2, entity.IssueStatusClosed: 1}, summary.Counts)
}

func TestListIssues_OpenMatchesPending(t *testing.T) {
	f := newFixture(t, TrackerOptions{})
	ctx := context.Background()

	_, err := f.tracker.SubmitIssue(ctx, IssueSubmission{StaffName: "Anan", IssueDetail: "Chilled water leak"}, nil)
	require.NoError(t, err)
	_, err = f.issues.Append(ctx, entity.Issue{StaffName: "Malee", IssueDetail: "Cable tray missing", Status: entity.IssueStatusOpen})
	require.NoError(t, err)

	for _, status := range []string{entity.IssueStatusOpen, entity.IssueStatusPending} {
		views, err := f.tracker.ListIssues(ctx, ListFilter{Status: status})
		require.NoError(t, err)
		assert.Len(t, views, 2, status)

		summary, err := f.tracker.IssueSummary(ctx, ListFilter{Status: status})
		require.NoError(t, err)
		assert.Equal(t, 2, summary.Total, status)
		assert.Equal(t, 2, summary.Open, status)
	}
}

func TestListIssues_BadDate(t *testing.T) {
	f := newFixture(t, TrackerOptions{})

	_, err := f.tracker.ListIssues(context.Background(), ListFilter{From: "10/03/2026"})
	var ve entity.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "from", ve.Field)
}

func TestListIssues_StoreUnavailable(t *testing.T) {
	f := newFixture(t, TrackerOptions{})
	require.NoError(t, f.db.Close())

	views, err := f.tracker.ListIssues(context.Background(), ListFilter{})
	assert.Nil(t, views)
	assert.True(t, errors.Is(err, entity.ErrStoreUnavailable))
}
