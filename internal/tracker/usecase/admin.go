package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/blankon/sitetrack/internal/auth"
	"github.com/blankon/sitetrack/internal/tracker/entity"
)

// editableFields lists the columns the admin panel may overwrite per ledger.
var editableFields = map[entity.Kind]map[string]bool{
	entity.KindIssue:    {"status": true, "related_to": true},
	entity.KindProgress: {"status": true, "update_by": true},
}

// AdminUsecase is the only path that mutates or deletes ledger rows.
type AdminUsecase struct {
	Issues   IssueLedger
	Progress ProgressLedger
	Auth     SessionAuthority
	Logger   *zap.Logger

	now func() time.Time
}

func NewAdminUsecase(issues IssueLedger, progress ProgressLedger, authority SessionAuthority, logger *zap.Logger) *AdminUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminUsecase{
		Issues:   issues,
		Progress: progress,
		Auth:     authority,
		Logger:   logger,
		now:      time.Now,
	}
}

func (s *AdminUsecase) Login(ctx context.Context, client, secret string) (LoginResult, error) {
	token, session, err := s.Auth.Login(ctx, client, secret)
	if err != nil {
		s.Logger.Warn("admin login rejected", zap.String("client", client), zap.Error(err))
		return LoginResult{}, err
	}
	s.Logger.Info("admin login", zap.String("client", client))
	return LoginResult{Token: token, ExpiresAt: session.ExpiresAt}, nil
}

func (s *AdminUsecase) Verify(token string) (auth.Session, error) {
	return s.Auth.Verify(token)
}

func (s *AdminUsecase) authorize(session auth.Session) error {
	if !session.IsAdmin(s.now()) {
		return fmt.Errorf("%w: admin session required", entity.ErrNotAuthorized)
	}
	return nil
}

// UpdateStatus sets the status of one record. Issue statuses may move in any
// direction; progress status is a percentage.
func (s *AdminUsecase) UpdateStatus(ctx context.Context, session auth.Session, kind entity.Kind, id int64, status string) error {
	if err := s.authorize(session); err != nil {
		return err
	}

	var value interface{} = status
	if kind == entity.KindProgress {
		n, err := strconv.Atoi(strings.TrimSpace(status))
		if err != nil {
			return entity.NewValidationError("status", "must be a whole percentage")
		}
		value = n
	}
	return s.apply(ctx, session, kind, id, map[string]interface{}{"status": value})
}

// BulkUpdate applies every edit independently. A failing row is reported in
// its RowResult and never undoes the rows before it. The returned error is
// only set when the whole batch was refused.
func (s *AdminUsecase) BulkUpdate(ctx context.Context, session auth.Session, kind entity.Kind, edits []RowEdit) ([]RowResult, error) {
	if err := s.authorize(session); err != nil {
		return nil, err
	}
	if _, ok := editableFields[kind]; !ok {
		return nil, entity.NewValidationError("kind", "unknown ledger "+string(kind))
	}

	results := make([]RowResult, 0, len(edits))
	for _, edit := range edits {
		result := RowResult{ID: edit.ID, OK: true}
		if err := s.apply(ctx, session, kind, edit.ID, edit.Fields); err != nil {
			result.OK = false
			result.Err = err
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *AdminUsecase) DeleteRecord(ctx context.Context, session auth.Session, kind entity.Kind, id int64) error {
	if err := s.authorize(session); err != nil {
		return err
	}

	var err error
	switch kind {
	case entity.KindIssue:
		err = s.Issues.Delete(ctx, id)
	case entity.KindProgress:
		err = s.Progress.Delete(ctx, id)
	default:
		return entity.NewValidationError("kind", "unknown ledger "+string(kind))
	}
	if err != nil {
		return err
	}
	s.Logger.Info("record deleted", zap.String("kind", string(kind)), zap.Int64("id", id), zap.String("by", session.Subject))
	return nil
}

func (s *AdminUsecase) apply(ctx context.Context, session auth.Session, kind entity.Kind, id int64, fields map[string]interface{}) error {
	allowed, ok := editableFields[kind]
	if !ok {
		return entity.NewValidationError("kind", "unknown ledger "+string(kind))
	}
	if len(fields) == 0 {
		return entity.NewValidationError("fields", "nothing to update")
	}

	update := make(map[string]interface{}, len(fields)+1)
	for name, v := range fields {
		if !allowed[name] {
			return entity.NewValidationError(name, "field cannot be edited")
		}
		update[name] = v
	}

	var err error
	switch kind {
	case entity.KindIssue:
		update["updated_at"] = s.now().UTC()
		err = s.Issues.UpdateFields(ctx, id, update)
	case entity.KindProgress:
		err = s.Progress.UpdateFields(ctx, id, update)
	}
	if err != nil {
		return err
	}

	s.Logger.Info("record updated",
		zap.String("kind", string(kind)), zap.Int64("id", id), zap.Any("fields", fields), zap.String("by", session.Subject))
	return nil
}
