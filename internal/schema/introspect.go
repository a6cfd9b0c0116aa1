package schema

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tamaraiselva/text2sql/internal/dbconn"
)

type Options struct {
	// MaxTables caps the description so large catalogs cannot grow the
	// prompt without bound. Zero means no cap.
	MaxTables int
}

// columnQueries return (table, column, type) rows with a total ordering so
// that repeated introspection of an unchanged schema is byte-identical.
const (
	sqliteColumnsQuery = `
SELECT m.name, p.name, p.type
FROM sqlite_master AS m
LEFT JOIN pragma_table_info(m.name) AS p
WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%'
ORDER BY m.name, p.cid`

	duckdbColumnsQuery = `
SELECT table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema = 'main'
ORDER BY table_name, ordinal_position`

	mysqlColumnsQuery = `
SELECT table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema = DATABASE()
ORDER BY table_name, ordinal_position`

	postgresColumnsQuery = `
SELECT table_schema || '.' || table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
ORDER BY table_schema, table_name, ordinal_position`

	sqlserverColumnsQuery = `
SELECT table_schema + '.' + table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema NOT IN ('sys', 'INFORMATION_SCHEMA')
ORDER BY table_schema, table_name, ordinal_position`
)

func columnsQuery(kind dbconn.Kind) (string, error) {
	switch kind {
	case dbconn.KindSQLite:
		return sqliteColumnsQuery, nil
	case dbconn.KindDuckDB:
		return duckdbColumnsQuery, nil
	case dbconn.KindMySQL:
		return mysqlColumnsQuery, nil
	case dbconn.KindPostgres:
		return postgresColumnsQuery, nil
	case dbconn.KindSQLServer:
		return sqlserverColumnsQuery, nil
	default:
		return "", &IntrospectionError{Kind: ErrUnsupported, Backend: string(kind)}
	}
}

// Introspect enumerates tables and columns of the connected database. The
// result is deterministic for an unchanged schema; tables beyond
// opts.MaxTables are dropped with the truncation recorded in the
// description.
func Introspect(ctx context.Context, h *dbconn.Handle, opts Options) (*Description, error) {
	query, err := columnsQuery(h.Kind())
	if err != nil {
		return nil, err
	}

	rows, err := h.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, &IntrospectionError{Kind: ErrDriverFailure, Backend: string(h.Kind()), Err: err}
	}
	defer func() { _ = rows.Close() }()

	desc := &Description{}
	var current *Table
	for rows.Next() {
		var tableName string
		var columnName, columnType sql.NullString
		if err := rows.Scan(&tableName, &columnName, &columnType); err != nil {
			return nil, &IntrospectionError{Kind: ErrDriverFailure, Backend: string(h.Kind()), Err: err}
		}

		if current == nil || current.Name != tableName {
			desc.Tables = append(desc.Tables, Table{Name: tableName})
			current = &desc.Tables[len(desc.Tables)-1]
		}
		// A table with no columns still yields one row through the
		// left join; keep the table, skip the null column.
		if columnName.Valid {
			current.Columns = append(current.Columns, Column{
				Name: columnName.String,
				Type: columnType.String,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &IntrospectionError{Kind: ErrDriverFailure, Backend: string(h.Kind()), Err: err}
	}

	desc.TotalTables = len(desc.Tables)
	if opts.MaxTables > 0 && len(desc.Tables) > opts.MaxTables {
		desc.Tables = desc.Tables[:opts.MaxTables]
		desc.Truncated = true
	}
	return desc, nil
}

type ErrorKind string

const (
	ErrUnsupported   ErrorKind = "unsupported"
	ErrDriverFailure ErrorKind = "driver_failure"
)

type IntrospectionError struct {
	Kind    ErrorKind
	Backend string
	Err     error
}

func (e *IntrospectionError) Error() string {
	if e.Kind == ErrUnsupported {
		return fmt.Sprintf("schema introspection is not supported for backend %q", e.Backend)
	}
	return fmt.Sprintf("schema introspection failed: %v", e.Err)
}

func (e *IntrospectionError) Unwrap() error { return e.Err }
