package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/go-playground/validator.v9"

	"github.com/blankon/sitetrack/internal/export"
	"github.com/blankon/sitetrack/internal/tracker/entity"
	"github.com/blankon/sitetrack/internal/tracker/query"
)

const defaultMaxPhotoBytes = 10 << 20

type TrackerOptions struct {
	Roster        []string
	Location      *time.Location
	MaxPhotoBytes int64
}

type TrackerUsecase struct {
	Issues   IssueLedger
	Progress ProgressLedger
	Blobs    BlobStore
	Notifier Notifier
	Sheets   SheetWriter
	// Exports may be nil; the async export calls then return ErrExportDisabled.
	Exports ExportQueue
	Options TrackerOptions
	Logger  *zap.Logger

	validate *validator.Validate
	now      func() time.Time
}

func NewTrackerUsecase(
	issues IssueLedger,
	progress ProgressLedger,
	blobs BlobStore,
	notifier Notifier,
	sheets SheetWriter,
	exports ExportQueue,
	opts TrackerOptions,
	logger *zap.Logger,
) *TrackerUsecase {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.MaxPhotoBytes <= 0 {
		opts.MaxPhotoBytes = defaultMaxPhotoBytes
	}
	return &TrackerUsecase{
		Issues:   issues,
		Progress: progress,
		Blobs:    blobs,
		Notifier: notifier,
		Sheets:   sheets,
		Exports:  exports,
		Options:  opts,
		Logger:   logger,
		validate: newValidator(),
		now:      time.Now,
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateStruct reports the first failing field as an entity.ValidationError.
func (s *TrackerUsecase) validateStruct(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return entity.NewValidationError("", err.Error())
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return entity.NewValidationError(fe.Field(), "is required")
	case "max":
		if fe.Kind() == reflect.String {
			return entity.NewValidationError(fe.Field(), "must be at most "+fe.Param()+" characters")
		}
		return entity.NewValidationError(fe.Field(), "must be at most "+fe.Param())
	case "min":
		return entity.NewValidationError(fe.Field(), "must be at least "+fe.Param())
	case "oneof":
		return entity.NewValidationError(fe.Field(), "must be one of "+fe.Param())
	}
	return entity.NewValidationError(fe.Field(), "is invalid")
}

// uploadPhoto stores photo under a fresh name and returns its public URL.
// A nil photo is not an error and yields an empty URL.
func (s *TrackerUsecase) uploadPhoto(ctx context.Context, prefix string, photo *Photo) (string, error) {
	if photo == nil || photo.Reader == nil {
		return "", nil
	}
	if photo.Size > s.Options.MaxPhotoBytes {
		return "", entity.NewValidationError("photo", fmt.Sprintf("must be at most %d bytes", s.Options.MaxPhotoBytes))
	}

	header := make([]byte, 512)
	n, err := io.ReadFull(photo.Reader, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("%w: failed to read photo: %v", entity.ErrUpload, err)
	}
	header = header[:n]
	if n == 0 {
		return "", entity.NewValidationError("photo", "is empty")
	}

	contentType := strings.Split(http.DetectContentType(header), ";")[0]
	// Only formats the spreadsheet export can embed are accepted.
	ext, ok := export.PictureExtension(contentType)
	if !ok {
		s.Logger.Info("photo upload rejected", zap.String("filename", photo.Filename), zap.String("content_type", contentType))
		return "", entity.NewValidationError("photo", "must be a JPEG, PNG or GIF image")
	}

	name := prefix + uuid.New().String() + ext
	body := io.MultiReader(bytes.NewReader(header), photo.Reader)
	if err := s.Blobs.Upload(ctx, name, contentType, body, photo.Size); err != nil {
		return "", fmt.Errorf("%w: %s: %v", entity.ErrUpload, name, err)
	}
	return s.Blobs.PublicURL(name), nil
}

func (s *TrackerUsecase) predicate(f ListFilter, textFields []string, keyField string) (query.Predicate, error) {
	from, err := query.ParseDate(f.From, s.Options.Location)
	if err != nil {
		return query.Predicate{}, entity.NewValidationError("from", "must be a YYYY-MM-DD date")
	}
	to, err := query.ParseDate(f.To, s.Options.Location)
	if err != nil {
		return query.Predicate{}, entity.NewValidationError("to", "must be a YYYY-MM-DD date")
	}
	return query.Predicate{
		Status:     f.Status,
		Text:       strings.TrimSpace(f.Text),
		TextFields: textFields,
		From:       from,
		To:         to,
		Location:   s.Options.Location,
		KeyField:   keyField,
		KeyValue:   strings.TrimSpace(f.Task),
	}, nil
}

func (s *TrackerUsecase) onRoster(name string) bool {
	if len(s.Options.Roster) == 0 {
		return true
	}
	for _, member := range s.Options.Roster {
		if member == name {
			return true
		}
	}
	return false
}

// logOrphan records a blob whose ledger row was never written.
func (s *TrackerUsecase) logOrphan(url string, err error) {
	if url == "" {
		return
	}
	s.Logger.Warn("ledger insert failed after upload, blob is orphaned", zap.String("url", url), zap.Error(err))
}
