package store

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    started_at TIMESTAMP NOT NULL,
    ended_at TIMESTAMP,
    pid INTEGER NOT NULL DEFAULT 0,
    log_path TEXT NOT NULL,
    interval_ms INTEGER NOT NULL,
    idle_threshold INTEGER NOT NULL,
    live_report BOOLEAN NOT NULL DEFAULT 0,
    ticks INTEGER NOT NULL DEFAULT 0,
    idle_ticks INTEGER NOT NULL DEFAULT 0,
    records INTEGER NOT NULL DEFAULT 0,
    snapshot_errors INTEGER NOT NULL DEFAULT 0,
    write_errors INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);
`
