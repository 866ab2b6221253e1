package history

const schema = `
CREATE TABLE IF NOT EXISTS batch_runs (
    id TEXT PRIMARY KEY,
    start_date TEXT NOT NULL,
    end_date TEXT NOT NULL,
    batch_trigger TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'not_completed',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_batch_runs_status ON batch_runs(status);
CREATE INDEX IF NOT EXISTS idx_batch_runs_end_date ON batch_runs(end_date);

CREATE TABLE IF NOT EXISTS archive_attempts (
    id TEXT PRIMARY KEY,
    document_id TEXT NOT NULL,
    case_id TEXT NOT NULL,
    document_name TEXT,
    document_type TEXT,
    batch_run_id TEXT NOT NULL REFERENCES batch_runs(id),
    status TEXT NOT NULL DEFAULT 'not_completed',
    archive_id TEXT,
    archive_url TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(document_id, case_id)
);

CREATE INDEX IF NOT EXISTS idx_archive_attempts_batch_run_id ON archive_attempts(batch_run_id);
CREATE INDEX IF NOT EXISTS idx_archive_attempts_case_id ON archive_attempts(case_id);
CREATE INDEX IF NOT EXISTS idx_archive_attempts_status ON archive_attempts(status);
`
