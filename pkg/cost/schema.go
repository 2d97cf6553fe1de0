package cost

const schema = `
CREATE TABLE IF NOT EXISTS cost_entries (
	ts                  TEXT    NOT NULL,
	provider            TEXT    NOT NULL,
	model               TEXT    NOT NULL,
	input_tokens        INTEGER NOT NULL DEFAULT 0,
	output_tokens       INTEGER NOT NULL DEFAULT 0,
	cache_read_tokens   INTEGER NOT NULL DEFAULT 0,
	cache_create_tokens INTEGER NOT NULL DEFAULT 0,
	cost_usd            REAL    NOT NULL DEFAULT 0,
	request_ms          INTEGER NOT NULL DEFAULT 0,
	worker_id           TEXT,
	task_id             TEXT
);
CREATE INDEX IF NOT EXISTS idx_cost_entries_ts ON cost_entries(ts);
`
