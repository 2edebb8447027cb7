package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/blankon/sitetrack/internal/tracker/entity"
)

// ProgressStore persists the construction_progress ledger in SQLite
type ProgressStore struct {
	db  *DB
	now func() time.Time
}

// NewProgressStore creates a new progress store
func NewProgressStore(db *DB) *ProgressStore {
	return &ProgressStore{db: db, now: time.Now}
}

var progressUpdatable = map[string]func(interface{}) (interface{}, error){
	"status": func(v interface{}) (interface{}, error) {
		n, ok := toInt(v)
		if !ok || !entity.ValidPercent(n) {
			return nil, entity.NewValidationError("status", fmt.Sprintf("progress must be 0-100, got %v", v))
		}
		return n, nil
	},
	"update_by": func(v interface{}) (interface{}, error) {
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, entity.NewValidationError("update_by", "is required")
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
}

// Append inserts a progress update and returns its id.
func (s *ProgressStore) Append(ctx context.Context, p entity.Progress) (int64, error) {
	if strings.TrimSpace(p.TaskName) == "" {
		return 0, entity.NewValidationError("task_name", "is required")
	}
	if strings.TrimSpace(p.UpdateBy) == "" {
		return 0, entity.NewValidationError("update_by", "is required")
	}
	if !entity.ValidPercent(p.Status) {
		return 0, entity.NewValidationError("status", "progress must be 0-100")
	}

	query := `
		INSERT INTO construction_progress (task_name, update_by, status, image_url, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, p.TaskName, p.UpdateBy, p.Status, p.ImageURL, formatTime(s.now()))
	if err != nil {
		return 0, unavailable("record progress", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, unavailable("read progress id", err)
	}
	return id, nil
}

const progressColumns = `id, task_name, update_by, status, image_url, created_at`

// ListAll returns every progress update, newest first.
func (s *ProgressStore) ListAll(ctx context.Context) ([]entity.Progress, error) {
	query := `SELECT ` + progressColumns + ` FROM construction_progress ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, unavailable("list progress", err)
	}
	defer rows.Close()

	records := []entity.Progress{}
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, p)
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate progress", err)
	}

	return records, nil
}

// Get retrieves one progress update by id
func (s *ProgressStore) Get(ctx context.Context, id int64) (entity.Progress, error) {
	query := `SELECT ` + progressColumns + ` FROM construction_progress WHERE id = ?`

	p, err := scanProgress(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return entity.Progress{}, notFound("construction_progress", id)
	}
	return p, err
}

// UpdateFields overwrites the named columns of one progress update.
func (s *ProgressStore) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	set, args, err := buildUpdate(fields, progressUpdatable)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `UPDATE construction_progress SET `+set+` WHERE id = ?`, append(args, id)...)
	if err != nil {
		return unavailable("update progress", err)
	}
	return checkAffected(result, "construction_progress", id)
}

// Delete removes one progress update
func (s *ProgressStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM construction_progress WHERE id = ?`, id)
	if err != nil {
		return unavailable("delete progress", err)
	}
	return checkAffected(result, "construction_progress", id)
}

func scanProgress(row scanner) (entity.Progress, error) {
	var (
		p         entity.Progress
		createdAt string
	)
	err := row.Scan(&p.ID, &p.TaskName, &p.UpdateBy, &p.Status, &p.ImageURL, &createdAt)
	if err == sql.ErrNoRows {
		return p, err
	}
	if err != nil {
		return p, unavailable("scan progress", err)
	}

	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return p, fmt.Errorf("failed to parse created_at of progress %d: %w", p.ID, err)
	}
	return p, nil
}

// toInt accepts the numeric shapes a JSON decoder or form parser produces.
func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}
