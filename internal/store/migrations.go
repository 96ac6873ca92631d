package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS dispatches (
	id         TEXT PRIMARY KEY,
	file_id    TEXT NOT NULL,
	file_name  TEXT NOT NULL DEFAULT '',
	to_address TEXT NOT NULL,
	outcome    TEXT NOT NULL CHECK(outcome IN ('success', 'failure')),
	message    TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_dispatches_created ON dispatches(created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_dispatches_file_id
	ON dispatches(file_id, created_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
