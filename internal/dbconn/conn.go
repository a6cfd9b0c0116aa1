// Package dbconn builds and validates connections to the supported
// relational backends from a uniform descriptor. A Handle is session-scoped:
// one user session holds at most one, and release is unconditional.
package dbconn

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb/v2"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"
)

func driverName(kind Kind) string {
	switch kind {
	case KindSQLite:
		return "sqlite"
	case KindDuckDB:
		return "duckdb"
	case KindMySQL:
		return "mysql"
	case KindPostgres:
		return "pgx"
	case KindSQLServer:
		return "sqlserver"
	default:
		return ""
	}
}

// Handle is an open connection to one backend. Close is idempotent and must
// run on every exit path; callers defer it immediately after Connect.
type Handle struct {
	kind Kind
	db   *sql.DB
	once sync.Once
}

func (h *Handle) Kind() Kind  { return h.kind }
func (h *Handle) DB() *sql.DB { return h.db }

func (h *Handle) Close() error {
	var err error
	h.once.Do(func() {
		err = h.db.Close()
	})
	return err
}

// NewHandle wraps an already-open *sql.DB. Intended for callers that manage
// the pool themselves, such as tools seeding a local database and tests.
func NewHandle(kind Kind, db *sql.DB) *Handle {
	return &Handle{kind: kind, db: db}
}

// Connect validates the descriptor, opens the backend and verifies it with
// a ping bounded by connectTimeout. A failed connection is surfaced
// immediately; there are no automatic retries.
func Connect(ctx context.Context, desc *Descriptor, connectTimeout time.Duration) (*Handle, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName(desc.Kind), desc.DSN())
	if err != nil {
		return nil, &ConnectionError{Kind: ErrDriverFailure, Err: err}
	}

	// One session, one logical connection. File-based backends in
	// particular do not tolerate concurrent writers well.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, &ConnectionError{Kind: ErrDriverFailure, Err: err}
	}

	return &Handle{kind: desc.Kind, db: db}, nil
}
