package usecase

import (
	"io"
	"time"

	"github.com/blankon/sitetrack/internal/tracker/entity"
)

type IssueSubmission struct {
	StaffName   string `json:"staff_name" validate:"required,max=50"`
	IssueDetail string `json:"issue_detail" validate:"required,max=500"`
	RelatedTo   string `json:"related_to" validate:"omitempty,oneof=IFS CSC HW Other"`
}

type ProgressSubmission struct {
	TaskName string `json:"task_name" validate:"required,max=100"`
	UpdateBy string `json:"update_by" validate:"required,max=50"`
	Status   int    `json:"status" validate:"min=0,max=100"`
}

// Photo is an optional image attached to a submission.
type Photo struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// ListFilter carries the list query parameters. Dates are YYYY-MM-DD in the
// site timezone.
type ListFilter struct {
	Status string
	Text   string
	From   string
	To     string
	Task   string
}

type IssueView struct {
	entity.Issue
	DaysPending int `json:"days_pending"`
}

type IssueSummary struct {
	Total  int            `json:"total"`
	Open   int            `json:"open"`
	Counts map[string]int `json:"counts"`
}

// Prefill is the last known progress of a task, offered when a new update is entered.
type Prefill struct {
	TaskName  string     `json:"task_name"`
	Found     bool       `json:"found"`
	Status    int        `json:"status"`
	UpdateBy  string     `json:"update_by,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

const (
	ViewUpload = "upload"
	ViewFull   = "full"
)

type Dashboard struct {
	View    string            `json:"view"`
	Roster  []string          `json:"roster"`
	Tasks   []string          `json:"tasks"`
	Current *Prefill          `json:"current,omitempty"`
	Latest  []entity.Progress `json:"latest,omitempty"`
	History []entity.Progress `json:"history,omitempty"`
	Gallery []entity.Progress `json:"gallery,omitempty"`
}

// RowEdit is one row of a bulk admin edit.
type RowEdit struct {
	ID     int64                  `json:"id"`
	Fields map[string]interface{} `json:"fields"`
}

type RowResult struct {
	ID    int64  `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Err   error  `json:"-"`
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
