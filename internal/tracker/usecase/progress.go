package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/blankon/sitetrack/internal/tracker/entity"
	"github.com/blankon/sitetrack/internal/tracker/query"
)

var progressTextFields = []string{"task_name", "update_by"}

// SubmitProgress records a percent-complete update for a task. update_by must
// be on the roster when one is configured.
func (s *TrackerUsecase) SubmitProgress(ctx context.Context, sub ProgressSubmission, photo *Photo) (entity.Progress, error) {
	sub.TaskName = strings.TrimSpace(sub.TaskName)
	sub.UpdateBy = strings.TrimSpace(sub.UpdateBy)
	if err := s.validateStruct(sub); err != nil {
		return entity.Progress{}, err
	}
	if !s.onRoster(sub.UpdateBy) {
		return entity.Progress{}, entity.NewValidationError("update_by", "is not on the site roster")
	}

	imageURL, err := s.uploadPhoto(ctx, "", photo)
	if err != nil {
		return entity.Progress{}, err
	}

	p := entity.Progress{
		TaskName: sub.TaskName,
		UpdateBy: sub.UpdateBy,
		Status:   sub.Status,
		ImageURL: imageURL,
	}
	id, err := s.Progress.Append(ctx, p)
	if err != nil {
		s.logOrphan(imageURL, err)
		return entity.Progress{}, err
	}

	stored, err := s.Progress.Get(ctx, id)
	if err != nil {
		s.Logger.Warn("failed to reload progress", zap.Int64("id", id), zap.Error(err))
		stored = p
		stored.ID = id
		stored.CreatedAt = s.now().UTC()
	}

	s.Logger.Info("progress submitted", zap.Int64("id", id), zap.String("task", stored.TaskName), zap.Int("status", stored.Status))
	s.Notifier.ProgressSubmitted(ctx, stored)
	return stored, nil
}

func (s *TrackerUsecase) filteredProgress(ctx context.Context, f ListFilter) ([]entity.Progress, error) {
	p, err := s.predicate(f, progressTextFields, "task_name")
	if err != nil {
		return nil, err
	}

	all, err := s.Progress.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return query.Filter(all, p), nil
}

// ListProgress returns the matching history, newest first.
func (s *TrackerUsecase) ListProgress(ctx context.Context, f ListFilter) ([]entity.Progress, error) {
	return s.filteredProgress(ctx, f)
}

// CurrentProgress returns the latest recorded state of task.
func (s *TrackerUsecase) CurrentProgress(ctx context.Context, task string) (Prefill, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return Prefill{}, entity.NewValidationError("task", "is required")
	}

	all, err := s.Progress.ListAll(ctx)
	if err != nil {
		return Prefill{}, err
	}
	return prefillFor(all, task), nil
}

func prefillFor(records []entity.Progress, task string) Prefill {
	latest, ok := query.LatestForKey(records, "task_name", task)
	if !ok {
		return Prefill{TaskName: task}
	}
	at := latest.CreatedAt
	return Prefill{
		TaskName:  task,
		Found:     true,
		Status:    latest.Status,
		UpdateBy:  latest.UpdateBy,
		UpdatedAt: &at,
	}
}

// ProgressDashboard assembles the dashboard for view. The upload view only
// carries what the submission form needs.
func (s *TrackerUsecase) ProgressDashboard(ctx context.Context, f ListFilter, view string) (Dashboard, error) {
	f.Task = strings.TrimSpace(f.Task)
	if view == "" {
		view = ViewFull
	}
	if view != ViewFull && view != ViewUpload {
		return Dashboard{}, entity.NewValidationError("view", "must be upload or full")
	}

	all, err := s.Progress.ListAll(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	roster := s.Options.Roster
	if roster == nil {
		roster = []string{}
	}
	dash := Dashboard{
		View:   view,
		Roster: roster,
		Tasks:  query.Keys(all, "task_name"),
	}
	if f.Task != "" {
		current := prefillFor(all, f.Task)
		dash.Current = &current
	}
	if view == ViewUpload {
		return dash, nil
	}

	p, err := s.predicate(f, progressTextFields, "task_name")
	if err != nil {
		return Dashboard{}, err
	}
	history := query.Filter(all, p)

	dash.History = history
	dash.Latest = query.LatestPerKey(history, "task_name")
	dash.Gallery = query.Gallery(history, "task_name", f.Task)
	return dash, nil
}
