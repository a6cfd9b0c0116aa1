package dbconn

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Kind is the closed set of supported database backends. Adding a backend
// means adding a constant here plus its arms in requiredFields, DSN and
// driverName; call sites stay untouched.
type Kind string

const (
	KindSQLite    Kind = "sqlite"
	KindDuckDB    Kind = "duckdb"
	KindMySQL     Kind = "mysql"
	KindPostgres  Kind = "postgres"
	KindSQLServer Kind = "sqlserver"
)

var kindAliases = map[string]Kind{
	"sqlite":     KindSQLite,
	"sqlite3":    KindSQLite,
	"duckdb":     KindDuckDB,
	"mysql":      KindMySQL,
	"postgres":   KindPostgres,
	"postgresql": KindPostgres,
	"pg":         KindPostgres,
	"sqlserver":  KindSQLServer,
	"mssql":      KindSQLServer,
}

func ParseKind(raw string) (Kind, error) {
	kind, ok := kindAliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", fmt.Errorf("unsupported backend kind: %q", raw)
	}
	return kind, nil
}

// IsFileBased reports whether the backend connects to a local file instead
// of a network endpoint.
func (k Kind) IsFileBased() bool {
	return k == KindSQLite || k == KindDuckDB
}

func (k Kind) defaultPort() int {
	switch k {
	case KindMySQL:
		return 3306
	case KindPostgres:
		return 5432
	case KindSQLServer:
		return 1433
	default:
		return 0
	}
}

// Descriptor carries the user-supplied connection parameters. Only the
// fields the chosen Kind requires are consulted; the rest are ignored.
// A descriptor lives for the duration of one session and is never
// persisted.
type Descriptor struct {
	Kind     Kind
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Path     string
}

// Validate checks that every field the backend kind requires is present.
// It runs before any dial so a missing field never turns into an opaque
// driver error.
func (d *Descriptor) Validate() error {
	switch d.Kind {
	case KindSQLite, KindDuckDB:
		if strings.TrimSpace(d.Path) == "" {
			return &ConnectionError{Kind: ErrMissingField, Field: "path"}
		}
	case KindMySQL, KindPostgres, KindSQLServer:
		if strings.TrimSpace(d.Host) == "" {
			return &ConnectionError{Kind: ErrMissingField, Field: "host"}
		}
		if strings.TrimSpace(d.User) == "" {
			return &ConnectionError{Kind: ErrMissingField, Field: "user"}
		}
		if strings.TrimSpace(d.Database) == "" {
			return &ConnectionError{Kind: ErrMissingField, Field: "database"}
		}
	default:
		return &ConnectionError{Kind: ErrMissingField, Field: "kind"}
	}
	return nil
}

// DSN assembles the backend-specific connection string. Credentials are
// URL-escaped where the format requires it.
func (d *Descriptor) DSN() string {
	port := d.Port
	if port == 0 {
		port = d.Kind.defaultPort()
	}

	switch d.Kind {
	case KindSQLite, KindDuckDB:
		return d.Path
	case KindMySQL:
		// The driver's own builder keeps credentials with DSN
		// metacharacters parseable.
		cfg := mysql.NewConfig()
		cfg.User = d.User
		cfg.Passwd = d.Password
		cfg.Net = "tcp"
		cfg.Addr = fmt.Sprintf("%s:%d", d.Host, port)
		cfg.DBName = d.Database
		cfg.ParseTime = true
		return cfg.FormatDSN()
	case KindPostgres:
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(d.User, d.Password),
			Host:   fmt.Sprintf("%s:%d", d.Host, port),
			Path:   "/" + d.Database,
		}
		q := url.Values{}
		q.Set("sslmode", "prefer")
		u.RawQuery = q.Encode()
		return u.String()
	case KindSQLServer:
		u := url.URL{
			Scheme: "sqlserver",
			User:   url.UserPassword(d.User, d.Password),
			Host:   fmt.Sprintf("%s:%d", d.Host, port),
		}
		q := url.Values{}
		q.Set("database", d.Database)
		u.RawQuery = q.Encode()
		return u.String()
	default:
		return ""
	}
}

// Redacted renders the descriptor for logs with the secret removed.
func (d *Descriptor) Redacted() string {
	if d.Kind.IsFileBased() {
		return fmt.Sprintf("%s:%s", d.Kind, d.Path)
	}
	port := d.Port
	if port == 0 {
		port = d.Kind.defaultPort()
	}
	return fmt.Sprintf("%s://%s@%s:%d/%s", d.Kind, d.User, d.Host, port, d.Database)
}
