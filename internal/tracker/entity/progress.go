package entity

import (
	"strconv"
	"time"
)

// Progress is one percent-complete update in the construction_progress ledger.
type Progress struct {
	ID        int64     `json:"id"`
	TaskName  string    `json:"task_name"`
	UpdateBy  string    `json:"update_by"`
	Status    int       `json:"status"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

func (p Progress) RecordID() int64 { return p.ID }

func (p Progress) Created() time.Time { return p.CreatedAt }

// Field returns the textual value of a named column. "key" is task_name.
func (p Progress) Field(name string) string {
	switch name {
	case "key", "task_name":
		return p.TaskName
	case "update_by":
		return p.UpdateBy
	case "status":
		return strconv.Itoa(p.Status)
	case "image_url":
		return p.ImageURL
	}
	return ""
}

// ValidPercent reports whether v is a percent-complete value.
func ValidPercent(v int) bool {
	return v >= 0 && v <= 100
}
