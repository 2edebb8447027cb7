package entity

import (
	"strconv"
	"time"
)

// Kind names a ledger table.
type Kind string

const (
	KindIssue    Kind = "issues"
	KindProgress Kind = "progress"
)

// ParseKind maps the URL segment used by the API to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindIssue, KindProgress:
		return Kind(s), nil
	}
	return "", NewValidationError("kind", "unknown ledger "+strconv.Quote(s))
}

// Issue is one row of the issue_escalation ledger.
type Issue struct {
	ID          int64      `json:"id"`
	StaffName   string     `json:"staff_name"`
	IssueDetail string     `json:"issue_detail"`
	RelatedTo   string     `json:"related_to"`
	ImageURL    string     `json:"image_url"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// IssueKeySeparator joins staff name and detail into the issue business key.
const IssueKeySeparator = "\x1f"

func (i Issue) RecordID() int64 { return i.ID }

func (i Issue) Created() time.Time { return i.CreatedAt }

// Field returns the textual value of a named column. "key" is the
// (staff_name, issue_detail) business key.
func (i Issue) Field(name string) string {
	switch name {
	case "key":
		return i.StaffName + IssueKeySeparator + i.IssueDetail
	case "staff_name":
		return i.StaffName
	case "issue_detail":
		return i.IssueDetail
	case "related_to":
		return i.RelatedTo
	case "image_url":
		return i.ImageURL
	case "status":
		return i.Status
	}
	return ""
}

// IsResolved reports whether the issue left the open states.
func (i Issue) IsResolved() bool {
	return i.Status == IssueStatusClosed || i.Status == IssueStatusCancel
}

// DaysPending counts whole 24h periods the issue has been open. Resolved
// issues stop counting at updated_at. All arithmetic is done in UTC.
func (i Issue) DaysPending(now time.Time) int {
	end := now.UTC()
	if i.IsResolved() && i.UpdatedAt != nil {
		end = i.UpdatedAt.UTC()
	}
	d := end.Sub(i.CreatedAt.UTC())
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}
