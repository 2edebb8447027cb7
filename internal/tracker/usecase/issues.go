package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/blankon/sitetrack/internal/tracker/entity"
	"github.com/blankon/sitetrack/internal/tracker/query"
)

var issueTextFields = []string{"staff_name", "issue_detail", "related_to"}

// SubmitIssue validates and records a new escalation. The photo is uploaded
// before the row is written.
func (s *TrackerUsecase) SubmitIssue(ctx context.Context, sub IssueSubmission, photo *Photo) (entity.Issue, error) {
	sub.StaffName = strings.TrimSpace(sub.StaffName)
	sub.IssueDetail = strings.TrimSpace(sub.IssueDetail)
	sub.RelatedTo = strings.TrimSpace(sub.RelatedTo)
	if err := s.validateStruct(sub); err != nil {
		return entity.Issue{}, err
	}

	imageURL, err := s.uploadPhoto(ctx, "issue_", photo)
	if err != nil {
		return entity.Issue{}, err
	}

	issue := entity.Issue{
		StaffName:   sub.StaffName,
		IssueDetail: sub.IssueDetail,
		RelatedTo:   sub.RelatedTo,
		ImageURL:    imageURL,
		Status:      entity.IssueStatusPending,
	}
	id, err := s.Issues.Append(ctx, issue)
	if err != nil {
		s.logOrphan(imageURL, err)
		return entity.Issue{}, err
	}

	stored, err := s.Issues.Get(ctx, id)
	if err != nil {
		s.Logger.Warn("failed to reload issue", zap.Int64("id", id), zap.Error(err))
		stored = issue
		stored.ID = id
		stored.CreatedAt = s.now().UTC()
	}

	s.Logger.Info("issue submitted", zap.Int64("id", id), zap.String("related_to", stored.RelatedTo))
	s.Notifier.IssueSubmitted(ctx, stored)
	return stored, nil
}

func (s *TrackerUsecase) filteredIssues(ctx context.Context, f ListFilter) ([]entity.Issue, error) {
	p, err := s.predicate(f, issueTextFields, "")
	if err != nil {
		return nil, err
	}
	p.KeyValue = ""
	p.SameStatus = entity.SameIssueStatus

	all, err := s.Issues.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return query.Filter(all, p), nil
}

// ListIssues returns matching issues, newest first, with their pending age.
func (s *TrackerUsecase) ListIssues(ctx context.Context, f ListFilter) ([]IssueView, error) {
	issues, err := s.filteredIssues(ctx, f)
	if err != nil {
		return nil, err
	}

	now := s.now()
	views := make([]IssueView, 0, len(issues))
	for _, issue := range issues {
		views = append(views, IssueView{Issue: issue, DaysPending: issue.DaysPending(now)})
	}
	return views, nil
}

// IssueSummary counts matching issues per status. Open counts every
// unresolved issue.
func (s *TrackerUsecase) IssueSummary(ctx context.Context, f ListFilter) (IssueSummary, error) {
	issues, err := s.filteredIssues(ctx, f)
	if err != nil {
		return IssueSummary{}, err
	}

	summary := IssueSummary{Total: len(issues), Counts: query.StatusCounts(issues)}
	for _, issue := range issues {
		if !issue.IsResolved() {
			summary.Open++
		}
	}
	return summary, nil
}
