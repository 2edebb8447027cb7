package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blankon/sitetrack/internal/tracker/entity"
)

func sampleIssues() []entity.Issue {
	return []entity.Issue{
		{ID: 1, StaffName: "Autapol", IssueDetail: "Chiller pump leaking", Status: "Pending", CreatedAt: base},
		{ID: 2, StaffName: "Jirapat", IssueDetail: "Cable tray missing", Status: "Closed", CreatedAt: base.Add(24 * time.Hour)},
		{ID: 3, StaffName: "Anu", IssueDetail: "PUMP room flooded", Status: "Pending", ImageURL: "http://img/3.jpg", CreatedAt: base.Add(48 * time.Hour)},
		{ID: 4, StaffName: "Pimchanok", IssueDetail: "Duct clash with beam", Status: "In Progress", CreatedAt: base.Add(72 * time.Hour)},
	}
}

var textFields = []string{"staff_name", "issue_detail"}

func TestFilter_NoOptionsReturnsCopy(t *testing.T) {
	issues := sampleIssues()
	got := Filter(issues, Predicate{Status: AllStatuses})
	require.Len(t, got, len(issues))

	got[0].Status = "Changed"
	assert.Equal(t, "Pending", issues[0].Status)
}

func TestFilter_Status(t *testing.T) {
	got := Filter(sampleIssues(), Predicate{Status: "Pending"})
	assert.Equal(t, []int64{1, 3}, ids(got))
}

func TestFilter_SameStatus(t *testing.T) {
	issues := sampleIssues()
	issues[1].Status = "Open"

	assert.Equal(t, []int64{2}, ids(Filter(issues, Predicate{Status: "Open"})))
	got := Filter(issues, Predicate{Status: "Open", SameStatus: entity.SameIssueStatus})
	assert.Equal(t, []int64{1, 2, 3}, ids(got))

	got = Filter(issues, Predicate{Status: "Pending", SameStatus: entity.SameIssueStatus})
	assert.Equal(t, []int64{1, 2, 3}, ids(got))

	got = Filter(issues, Predicate{Status: "In Progress", SameStatus: entity.SameIssueStatus})
	assert.Equal(t, []int64{4}, ids(got))
}

func TestFilter_TextIsCaseInsensitiveOr(t *testing.T) {
	got := Filter(sampleIssues(), Predicate{Text: "pump", TextFields: textFields})
	assert.Equal(t, []int64{1, 3}, ids(got))

	got = Filter(sampleIssues(), Predicate{Text: "ANU", TextFields: textFields})
	assert.Equal(t, []int64{3}, ids(got))
}

func TestFilter_DateRangeInclusive(t *testing.T) {
	from := base.Add(24 * time.Hour)
	to := base.Add(48 * time.Hour)
	got := Filter(sampleIssues(), Predicate{From: from, To: to})
	assert.Equal(t, []int64{2, 3}, ids(got))

	got = Filter(sampleIssues(), Predicate{From: from})
	assert.Equal(t, []int64{2, 3, 4}, ids(got))

	got = Filter(sampleIssues(), Predicate{To: base})
	assert.Equal(t, []int64{1}, ids(got))
}

func TestFilter_DateUsesLocation(t *testing.T) {
	bangkok := time.FixedZone("ICT", 7*3600)
	// 20:00 UTC on the 10th is already the 11th in Bangkok
	late := entity.Issue{ID: 9, Status: "Pending", CreatedAt: time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)}
	day, err := ParseDate("2025-03-11", bangkok)
	require.NoError(t, err)

	got := Filter([]entity.Issue{late}, Predicate{From: day, To: day, Location: bangkok})
	assert.Len(t, got, 1)

	dayUTC, err := ParseDate("2025-03-11", nil)
	require.NoError(t, err)
	got = Filter([]entity.Issue{late}, Predicate{From: dayUTC, To: dayUTC})
	assert.Len(t, got, 0)
}

func TestFilter_KeyEquals(t *testing.T) {
	records := []entity.Progress{
		progress(1, "T1", 10, base),
		progress(2, "T2", 20, base),
		progress(3, "T1", 30, base),
	}
	got := Filter(records, Predicate{KeyField: "task_name", KeyValue: "T1"})
	assert.Equal(t, []int64{1, 3}, ids(got))
}

func TestFilter_Idempotent(t *testing.T) {
	p := Predicate{Status: "Pending", Text: "pump", TextFields: textFields, From: base}
	once := Filter(sampleIssues(), p)
	twice := Filter(once, p)
	assert.Equal(t, once, twice)
}

func TestFilter_Commutative(t *testing.T) {
	byStatus := Predicate{Status: "Pending"}
	byText := Predicate{Text: "pump", TextFields: textFields}

	a := Filter(Filter(sampleIssues(), byStatus), byText)
	b := Filter(Filter(sampleIssues(), byText), byStatus)
	assert.Equal(t, a, b)
	assert.Equal(t, []int64{1, 3}, ids(a))
}

func TestStatusCounts(t *testing.T) {
	counts := StatusCounts(sampleIssues())
	assert.Equal(t, map[string]int{"Pending": 2, "Closed": 1, "In Progress": 1}, counts)
}

func TestGallery(t *testing.T) {
	records := []entity.Progress{
		{ID: 1, TaskName: "T1", ImageURL: "a.jpg", CreatedAt: base},
		{ID: 2, TaskName: "T1", CreatedAt: base.Add(time.Hour)},
		{ID: 3, TaskName: "T1", ImageURL: "c.jpg", CreatedAt: base.Add(2 * time.Hour)},
		{ID: 4, TaskName: "T2", ImageURL: "d.jpg", CreatedAt: base},
	}
	got := Gallery(records, "key", "T1")
	assert.Equal(t, []int64{3, 1}, ids(got))
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(records))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("", nil)
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = ParseDate("10/03/2025", nil)
	assert.Error(t, err)
}
