package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/ioutil"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blankon/sitetrack/internal/export"
	"github.com/blankon/sitetrack/internal/storage"
	"github.com/blankon/sitetrack/internal/tracker/entity"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// memBlobs keeps uploaded objects for BlobStoreMock.
type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	fail    error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memBlobs) store() *BlobStoreMock {
	return &BlobStoreMock{
		UploadFunc: func(_ context.Context, name string, contentType string, r io.Reader, _ int64) error {
			if m.fail != nil {
				return m.fail
			}
			data, err := ioutil.ReadAll(r)
			if err != nil {
				return err
			}
			m.mu.Lock()
			defer m.mu.Unlock()
			m.objects[name] = data
			m.types[name] = contentType
			return nil
		},
		OpenFunc: func(_ context.Context, name string) (io.ReadCloser, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			data, ok := m.objects[name]
			if !ok {
				return nil, entity.ErrNotFound
			}
			return ioutil.NopCloser(bytes.NewReader(data)), nil
		},
		PublicURLFunc: func(name string) string {
			return "http://site.test/uploads/" + name
		},
	}
}

func (m *memBlobs) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for name := range m.objects {
		out = append(out, name)
	}
	return out
}

type recordingNotifier struct {
	issues   []entity.Issue
	progress []entity.Progress
}

func (n *recordingNotifier) IssueSubmitted(_ context.Context, issue entity.Issue) {
	n.issues = append(n.issues, issue)
}

func (n *recordingNotifier) ProgressSubmitted(_ context.Context, p entity.Progress) {
	n.progress = append(n.progress, p)
}

func newSheets() *SheetWriterMock {
	return &SheetWriterMock{
		WriteFunc: func(_ context.Context, w io.Writer, table export.Table) (export.Report, error) {
			_, err := w.Write([]byte("PK-fake"))
			return export.Report{Rows: len(table.Rows)}, err
		},
	}
}

type fixture struct {
	db       *storage.DB
	issues   *storage.IssueStore
	progress *storage.ProgressStore
	blobs    *memBlobs
	store    *BlobStoreMock
	notifier *recordingNotifier
	sheets   *SheetWriterMock
	tracker  *TrackerUsecase
}

func newFixture(t *testing.T, opts TrackerOptions) *fixture {
	t.Helper()
	db, err := storage.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		db:       db,
		issues:   storage.NewIssueStore(db),
		progress: storage.NewProgressStore(db),
		blobs:    newMemBlobs(),
		notifier: &recordingNotifier{},
		sheets:   newSheets(),
	}
	f.store = f.blobs.store()
	f.tracker = NewTrackerUsecase(f.issues, f.progress, f.store, f.notifier, f.sheets, nil, opts, zap.NewNop())
	return f
}

func photo(data []byte) *Photo {
	return &Photo{Filename: "site.png", Size: int64(len(data)), Reader: bytes.NewReader(data)}
}

func mustBangkok(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Bangkok")
	if err != nil {
		return time.FixedZone("ICT", 7*3600)
	}
	return loc
}

var errBroken = errors.New("bucket is gone")
