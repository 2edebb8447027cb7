package usecase

import (
	"context"
	"io"

	"github.com/blankon/sitetrack/internal/auth"
	"github.com/blankon/sitetrack/internal/export"
	"github.com/blankon/sitetrack/internal/tracker/entity"
)

//go:generate moq -out ports_moq.go . BlobStore ExportQueue SheetWriter

type IssueLedger interface {
	Append(ctx context.Context, issue entity.Issue) (int64, error)
	ListAll(ctx context.Context) ([]entity.Issue, error)
	Get(ctx context.Context, id int64) (entity.Issue, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
}

type ProgressLedger interface {
	Append(ctx context.Context, p entity.Progress) (int64, error)
	ListAll(ctx context.Context) ([]entity.Progress, error)
	Get(ctx context.Context, id int64) (entity.Progress, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
}

// BlobStore keeps uploaded photos and rendered exports.
type BlobStore interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader, size int64) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	PublicURL(name string) string
}

// Notifier is told about every accepted submission. It must not block for long.
type Notifier interface {
	IssueSubmitted(ctx context.Context, issue entity.Issue)
	ProgressSubmitted(ctx context.Context, p entity.Progress)
}

type SessionAuthority interface {
	Login(ctx context.Context, client, secret string) (string, auth.Session, error)
	Verify(token string) (auth.Session, error)
}

type ExportQueue interface {
	Enqueue(ctx context.Context, req entity.ExportRequest) (string, error)
	Status(ctx context.Context, id string) (entity.ExportJob, error)
}

type SheetWriter interface {
	Write(ctx context.Context, w io.Writer, table export.Table) (export.Report, error)
}

type nopNotifier struct{}

func (nopNotifier) IssueSubmitted(context.Context, entity.Issue)       {}
func (nopNotifier) ProgressSubmitted(context.Context, entity.Progress) {}
