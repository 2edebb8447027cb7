package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/blankon/sitetrack/internal/tracker/entity"
)

// IssueStore persists the issue_escalation ledger in SQLite
type IssueStore struct {
	db  *DB
	now func() time.Time
}

// NewIssueStore creates a new issue store
func NewIssueStore(db *DB) *IssueStore {
	return &IssueStore{db: db, now: time.Now}
}

var issueUpdatable = map[string]func(interface{}) (interface{}, error){
	"status": func(v interface{}) (interface{}, error) {
		s, ok := v.(string)
		if !ok || !entity.ValidIssueStatus(s) {
			return nil, entity.NewValidationError("status", fmt.Sprintf("invalid issue status %v", v))
		}
		return s, nil
	},
	"related_to": func(v interface{}) (interface{}, error) {
		s, ok := v.(string)
		if !ok || !entity.ValidRelatedTo(s) {
			return nil, entity.NewValidationError("related_to", fmt.Sprintf("invalid tag %v", v))
		}
		return s, nil
	},
	"image_url": func(v interface{}) (interface{}, error) {
		s, ok := v.(string)
		if !ok {
			return nil, entity.NewValidationError("image_url", "must be text")
		}
		return s, nil
	},
	"updated_at": func(v interface{}) (interface{}, error) {
		t, ok := v.(time.Time)
		if !ok {
			return nil, entity.NewValidationError("updated_at", "must be a timestamp")
		}
		return formatTime(t), nil
	},
}

// Append inserts a new issue and returns its id. id and created_at are
// assigned here; an empty status defaults to Pending.
func (s *IssueStore) Append(ctx context.Context, issue entity.Issue) (int64, error) {
	if strings.TrimSpace(issue.StaffName) == "" {
		return 0, entity.NewValidationError("staff_name", "is required")
	}
	if strings.TrimSpace(issue.IssueDetail) == "" {
		return 0, entity.NewValidationError("issue_detail", "is required")
	}
	if issue.Status == "" {
		issue.Status = entity.IssueStatusPending
	}

	query := `
		INSERT INTO issue_escalation (staff_name, issue_detail, related_to, image_url, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		issue.StaffName, issue.IssueDetail, issue.RelatedTo, issue.ImageURL, issue.Status, formatTime(s.now()),
	)
	if err != nil {
		return 0, unavailable("record issue", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, unavailable("read issue id", err)
	}
	return id, nil
}

const issueColumns = `id, staff_name, issue_detail, related_to, image_url, status, created_at, updated_at`

// ListAll returns every issue, newest first.
func (s *IssueStore) ListAll(ctx context.Context) ([]entity.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issue_escalation ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, unavailable("list issues", err)
	}
	defer rows.Close()

	issues := []entity.Issue{}
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate issues", err)
	}

	return issues, nil
}

// Get retrieves one issue by id
func (s *IssueStore) Get(ctx context.Context, id int64) (entity.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issue_escalation WHERE id = ?`

	issue, err := scanIssue(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return entity.Issue{}, notFound("issue_escalation", id)
	}
	return issue, err
}

// UpdateFields overwrites the named columns of one issue.
func (s *IssueStore) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	set, args, err := buildUpdate(fields, issueUpdatable)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `UPDATE issue_escalation SET `+set+` WHERE id = ?`, append(args, id)...)
	if err != nil {
		return unavailable("update issue", err)
	}
	return checkAffected(result, "issue_escalation", id)
}

// Delete removes one issue
func (s *IssueStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM issue_escalation WHERE id = ?`, id)
	if err != nil {
		return unavailable("delete issue", err)
	}
	return checkAffected(result, "issue_escalation", id)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanIssue(row scanner) (entity.Issue, error) {
	var (
		issue     entity.Issue
		createdAt string
		updatedAt sql.NullString
	)
	err := row.Scan(
		&issue.ID, &issue.StaffName, &issue.IssueDetail, &issue.RelatedTo,
		&issue.ImageURL, &issue.Status, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return issue, err
	}
	if err != nil {
		return issue, unavailable("scan issue", err)
	}

	if issue.CreatedAt, err = parseTime(createdAt); err != nil {
		return issue, fmt.Errorf("failed to parse created_at of issue %d: %w", issue.ID, err)
	}
	if updatedAt.Valid && updatedAt.String != "" {
		t, err := parseTime(updatedAt.String)
		if err != nil {
			return issue, fmt.Errorf("failed to parse updated_at of issue %d: %w", issue.ID, err)
		}
		issue.UpdatedAt = &t
	}
	return issue, nil
}

func checkAffected(result sql.Result, table string, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return unavailable("get rows affected", err)
	}
	if rowsAffected == 0 {
		return notFound(table, id)
	}
	return nil
}
