package storage

const schema = `
CREATE TABLE IF NOT EXISTS issue_escalation (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    staff_name TEXT NOT NULL,
    issue_detail TEXT NOT NULL,
    related_to TEXT NOT NULL DEFAULT '',
    image_url TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'Pending',
    created_at TEXT NOT NULL,
    updated_at TEXT
);

CREATE TABLE IF NOT EXISTS construction_progress (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    task_name TEXT NOT NULL,
    update_by TEXT NOT NULL,
    status INTEGER NOT NULL DEFAULT 0 CHECK (status BETWEEN 0 AND 100),
    image_url TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_issue_escalation_created_at ON issue_escalation(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_construction_progress_created_at ON construction_progress(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_construction_progress_task_name ON construction_progress(task_name);
`
