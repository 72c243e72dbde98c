package sqlite

// Schema DDL. Every entity table shares one SQLite table; the primary key
// orders rows by partition and then by row key with byte-wise collation,
// which is the order the key encodings preserve.
const (
	createEntities = `CREATE TABLE IF NOT EXISTS entities (
    table_name TEXT NOT NULL,
    partition_key TEXT NOT NULL,
    row_key TEXT NOT NULL,
    version INTEGER NOT NULL,
    etag TEXT NOT NULL,
    properties TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (table_name, partition_key, row_key)
) WITHOUT ROWID;`

	idxEntitiesUpdated = `CREATE INDEX IF NOT EXISTS idx_entities_updated ON entities(table_name, updated_at);`
)

// schemaDDL lists all statements run on Attach, in order.
var schemaDDL = []string{
	createEntities,
	idxEntitiesUpdated,
}

// Statements used by the table accessors.
const (
	upsertEntity = `INSERT INTO entities (table_name, partition_key, row_key, version, etag, properties, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (table_name, partition_key, row_key) DO UPDATE SET
    version = excluded.version,
    etag = excluded.etag,
    properties = excluded.properties,
    updated_at = excluded.updated_at`

	selectEntity = `SELECT row_key, version, etag, properties, updated_at FROM entities
WHERE table_name = ? AND partition_key = ? AND row_key = ?`

	selectPartition = `SELECT row_key, version, etag, properties, updated_at FROM entities
WHERE table_name = ? AND partition_key = ?
ORDER BY row_key`

	deleteEntity = `DELETE FROM entities WHERE table_name = ? AND partition_key = ? AND row_key = ?`
)
