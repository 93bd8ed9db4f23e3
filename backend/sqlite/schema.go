package sqlite

// SchemaVersion is bumped whenever a statement below changes
const SchemaVersion = 1

// TableRevisionsSQL tracks the remote revision and last sync of each table
const TableRevisionsSQL = `
CREATE TABLE IF NOT EXISTS table_revisions (
    table_id TEXT PRIMARY KEY,
    revision TEXT NOT NULL DEFAULT '',
    last_pull_at INTEGER,
    last_push_at INTEGER,
    last_error TEXT NOT NULL DEFAULT '',
    updated_at INTEGER NOT NULL
);
`

// SchemaVersionSQL records applied schema versions
const SchemaVersionSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`

// AllTableSchemas returns every CREATE TABLE statement in creation order
func AllTableSchemas() []string {
	return []string{
		SchemaVersionSQL,
		TableRevisionsSQL,
	}
}

// PragmaStatements returns the connection settings applied after open
func PragmaStatements() []string {
	return []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
}
