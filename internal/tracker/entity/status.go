package entity

// Issue statuses. Open and Pending name the same state; older dashboards
// used one or the other, so both are accepted.
const (
	IssueStatusOpen       = "Open"
	IssueStatusPending    = "Pending"
	IssueStatusInProgress = "In Progress"
	IssueStatusClosed     = "Closed"
	IssueStatusCancel     = "Cancel"
)

// IssueStatuses lists every accepted issue status in display order.
var IssueStatuses = []string{
	IssueStatusPending,
	IssueStatusOpen,
	IssueStatusInProgress,
	IssueStatusClosed,
	IssueStatusCancel,
}

// RelatedTo tags for issues.
var RelatedToTags = []string{"IFS", "CSC", "HW", "Other"}

// ValidIssueStatus reports whether s is an accepted issue status.
// Any status can move to any other; there is no workflow.
func ValidIssueStatus(s string) bool {
	for _, v := range IssueStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// SameIssueStatus reports whether two issue statuses name the same state.
func SameIssueStatus(a, b string) bool {
	return canonicalIssueStatus(a) == canonicalIssueStatus(b)
}

func canonicalIssueStatus(s string) string {
	if s == IssueStatusOpen {
		return IssueStatusPending
	}
	return s
}

// ValidRelatedTo reports whether s is empty or a known tag.
func ValidRelatedTo(s string) bool {
	if s == "" {
		return true
	}
	for _, v := range RelatedToTags {
		if v == s {
			return true
		}
	}
	return false
}
