package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blankon/sitetrack/internal/tracker/entity"
)

var base = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func progress(id int64, task string, status int, at time.Time) entity.Progress {
	return entity.Progress{ID: id, TaskName: task, UpdateBy: "Anu", Status: status, CreatedAt: at}
}

func TestLatestForKey(t *testing.T) {
	records := []entity.Progress{
		progress(1, "T1", 30, base),
		progress(2, "T2", 10, base.Add(time.Hour)),
		progress(3, "T1", 55, base.Add(2*time.Hour)),
		progress(4, "T1", 40, base.Add(time.Minute)),
	}

	latest, ok := LatestForKey(records, "key", "T1")
	require.True(t, ok)
	assert.Equal(t, int64(3), latest.ID)
	assert.Equal(t, 55, latest.Status)

	_, ok = LatestForKey(records, "key", "missing")
	assert.False(t, ok)

	_, ok = LatestForKey([]entity.Progress{}, "key", "T1")
	assert.False(t, ok)
}

func TestLatestForKey_TieBreaksOnID(t *testing.T) {
	records := []entity.Progress{
		progress(7, "T1", 70, base),
		progress(9, "T1", 90, base),
		progress(8, "T1", 80, base),
	}

	latest, ok := LatestForKey(records, "key", "T1")
	require.True(t, ok)
	assert.Equal(t, int64(9), latest.ID)
}

func TestLatestForKey_AnyAppendOrder(t *testing.T) {
	records := []entity.Progress{
		progress(1, "K", 1, base.Add(3*time.Hour)),
		progress(2, "K", 2, base.Add(1*time.Hour)),
		progress(3, "K", 3, base.Add(3*time.Hour)),
		progress(4, "K", 4, base.Add(2*time.Hour)),
	}

	// every rotation of the slice must agree
	for shift := range records {
		rotated := append(append([]entity.Progress{}, records[shift:]...), records[:shift]...)
		latest, ok := LatestForKey(rotated, "key", "K")
		require.True(t, ok)
		assert.Equal(t, int64(3), latest.ID, "shift %d", shift)
	}
}

func TestLatestForKey_IssueKeyIsNameAndDetail(t *testing.T) {
	issues := []entity.Issue{
		{ID: 1, StaffName: "Anu", IssueDetail: "pump leak", Status: "Pending", CreatedAt: base},
		{ID: 2, StaffName: "Anu", IssueDetail: "pump leak", Status: "Closed", CreatedAt: base.Add(time.Hour)},
		{ID: 3, StaffName: "Anu", IssueDetail: "cable tray", Status: "Pending", CreatedAt: base.Add(2 * time.Hour)},
	}

	latest, ok := LatestForKey(issues, "key", "Anu"+entity.IssueKeySeparator+"pump leak")
	require.True(t, ok)
	assert.Equal(t, int64(2), latest.ID)
}

func TestLatestPerKey(t *testing.T) {
	records := []entity.Progress{
		progress(1, "T1", 30, base),
		progress(2, "T2", 10, base.Add(time.Hour)),
		progress(3, "T1", 55, base.Add(2*time.Hour)),
		progress(4, "T3", 100, base.Add(30*time.Minute)),
	}

	snapshot := LatestPerKey(records, "key")
	require.Len(t, snapshot, 3)
	assert.Equal(t, []int64{3, 2, 4}, ids(snapshot))
	assert.Equal(t, 55, snapshot[0].Status)

	// input order untouched
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(records))
}

func TestKeys(t *testing.T) {
	records := []entity.Progress{
		progress(1, "B", 1, base),
		progress(2, "A", 1, base),
		progress(3, "B", 1, base),
	}
	assert.Equal(t, []string{"A", "B"}, Keys(records, "key"))
}

func ids[T Record](records []T) []int64 {
	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, r.RecordID())
	}
	return out
}
