package sqlite

// SQL queries for SQLite catalog introspection.
const (
	querySchemaVersion = `PRAGMA schema_version`

	queryListTables = `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite\_%' ESCAPE '\'
		ORDER BY name`

	queryListViews = `
		SELECT name
		FROM sqlite_master
		WHERE type = 'view'
		  AND name NOT LIKE 'sqlite\_%' ESCAPE '\'
		ORDER BY name`

	queryGetColumns = `
		SELECT cid, name, type, "notnull", dflt_value, pk
		FROM pragma_table_info(?)
		ORDER BY cid`

	queryTableKind = `
		SELECT type
		FROM sqlite_master
		WHERE name = ? COLLATE NOCASE
		  AND type IN ('table', 'view')`

	queryListIndexes = `
		SELECT name
		FROM pragma_index_list(?)
		WHERE origin = 'c'
		ORDER BY name`

	queryTotalChanges = `SELECT total_changes()`

	queryChanges = `SELECT total_changes(), changes()`

	// queryRowCountPrefix is completed with a quoted identifier; table names
	// cannot be bound as parameters.
	queryRowCountPrefix = `SELECT COUNT(*) FROM `
)
