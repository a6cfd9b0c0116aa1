package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tamaraiselva/text2sql/internal/auth"
	"github.com/tamaraiselva/text2sql/internal/exec"
	"github.com/tamaraiselva/text2sql/internal/observability"
	"github.com/tamaraiselva/text2sql/internal/session"
)

type queryRequest struct {
	SQL string `json:"sql"`
}

type queryResponse struct {
	Columns    []string `json:"columns"`
	Rows       [][]any  `json:"rows"`
	RowCount   int      `json:"row_count"`
	Truncated  bool     `json:"truncated"`
	Note       string   `json:"note,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}

// handleQuery executes caller-supplied SQL under the execution policy.
// This is the power-user path; the generated-SQL paths go through
// /v1/generate and /v1/ask.
func handleQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(deps, w, r)
	if !ok {
		return
	}
	var request queryRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	if strings.TrimSpace(request.SQL) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_REQUIRED", "sql is required", false, nil)
		return
	}

	result, err := executeForRequest(deps, r, s, request.SQL)
	if err != nil {
		renderError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQueryResponse(result))
}

// executeForRequest runs the statement with the policy, lifting the
// read-only restriction for callers holding the sql_writer role.
func executeForRequest(deps Dependencies, r *http.Request, s *session.Session, sqlText string) (*exec.Result, error) {
	handle, err := s.Handle()
	if err != nil {
		return nil, err
	}

	executor := deps.Executor
	if identity, ok := auth.IdentityFromContext(r.Context()); ok && identity.HasRole(auth.RoleSQLWriter) {
		policy := executor.Policy()
		policy.ReadOnly = false
		executor = exec.New(policy)
	}

	start := time.Now()
	result, err := executor.Execute(r.Context(), handle, sqlText)
	if err != nil {
		observability.ObserveExecution(string(handle.Kind()), "error", time.Since(start))
		return nil, err
	}
	observability.ObserveExecution(string(handle.Kind()), "ok", time.Since(start))
	return result, nil
}

func toQueryResponse(result *exec.Result) queryResponse {
	response := queryResponse{
		Columns:    result.Columns,
		Rows:       result.Rows,
		RowCount:   len(result.Rows),
		Truncated:  result.Truncated,
		DurationMS: result.Duration.Milliseconds(),
	}
	if result.Truncated {
		response.Note = truncationNote(len(result.Rows))
	}
	return response
}

func truncationNote(n int) string {
	return fmt.Sprintf("showing first %d rows", n)
}
