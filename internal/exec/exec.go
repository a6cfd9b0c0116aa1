// Package exec runs generated SQL against a connected database under an
// explicit execution policy.
package exec

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/tamaraiselva/text2sql/internal/dbconn"
)

// writeKeywords classifies statements the read-only policy rejects. The
// gate works on the leading keyword only; it guards against accidental
// writes from a confused model, not against a hostile caller. Callers
// needing real isolation connect with a read-only database account.
var writeKeywords = map[string]struct{}{
	"INSERT": {}, "UPDATE": {}, "DELETE": {}, "DROP": {}, "ALTER": {},
	"TRUNCATE": {}, "CREATE": {}, "REPLACE": {}, "MERGE": {},
	"GRANT": {}, "REVOKE": {},
}

// Policy bounds what Execute may run and return.
type Policy struct {
	ReadOnly bool
	RowLimit int
	Timeout  time.Duration
}

// Result is a fully materialized query result. Truncated is set when the
// row limit stopped the scan before the driver was exhausted.
type Result struct {
	Columns   []string      `json:"columns"`
	Rows      [][]any       `json:"rows"`
	RowLimit  int           `json:"row_limit,omitempty"`
	Truncated bool          `json:"truncated"`
	Duration  time.Duration `json:"-"`
}

type Executor struct {
	policy Policy
}

func New(policy Policy) *Executor {
	return &Executor{policy: policy}
}

func (e *Executor) Policy() Policy { return e.policy }

// Execute runs one statement and materializes the result. Write
// statements are rejected under the read-only policy before touching the
// database. On any failure no partial result is returned.
func (e *Executor) Execute(ctx context.Context, h *dbconn.Handle, sqlText string) (*Result, error) {
	sqlText = strings.TrimSpace(sqlText)
	if sqlText == "" {
		return nil, &ExecutionError{Kind: KindSyntaxError, Err: errors.New("empty statement")}
	}

	keyword := leadingKeyword(sqlText)
	if e.policy.ReadOnly {
		if _, isWrite := writeKeywords[keyword]; isWrite {
			return nil, &ExecutionError{Kind: KindWriteNotAllowed, Keyword: keyword}
		}
	}

	if e.policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.policy.Timeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := h.DB().QueryContext(ctx, sqlText)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, classify(ctx, err)
	}

	result := &Result{
		Columns:  columns,
		Rows:     make([][]any, 0),
		RowLimit: e.policy.RowLimit,
	}
	for rows.Next() {
		if e.policy.RowLimit > 0 && len(result.Rows) >= e.policy.RowLimit {
			result.Truncated = true
			break
		}
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, classify(ctx, err)
		}
		result.Rows = append(result.Rows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, err)
	}

	result.Duration = time.Since(start)
	return result, nil
}

func leadingKeyword(sqlText string) string {
	fields := strings.FieldsFunc(sqlText, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '(' || r == ';'
	})
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

// Drivers disagree on how they phrase a rejected statement; this matches
// the common sqlite, mysql, postgres and sqlserver diagnostics.
var syntaxMarkers = []string{
	"syntax error",
	"syntax to use",
	"parse error",
	"no such table",
	"no such column",
	"unknown column",
	"unknown table",
	"does not exist",
	"doesn't exist",
	"invalid object name",
	"invalid column name",
	"incorrect syntax",
}

func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &ExecutionError{Kind: KindTimeout, Err: err}
	}
	lower := strings.ToLower(err.Error())
	for _, marker := range syntaxMarkers {
		if strings.Contains(lower, marker) {
			return &ExecutionError{Kind: KindSyntaxError, Err: err}
		}
	}
	return &ExecutionError{Kind: KindRuntimeFailure, Err: err}
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		case sql.RawBytes:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}
