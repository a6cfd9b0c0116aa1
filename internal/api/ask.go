package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tamaraiselva/text2sql/internal/exec"
	"github.com/tamaraiselva/text2sql/internal/nlsql"
	"github.com/tamaraiselva/text2sql/internal/observability"
)

type askRequest struct {
	Question string `json:"question"`
	Model    string `json:"model"`
}

type askResponse struct {
	SQL      string `json:"sql"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Repaired bool   `json:"repaired,omitempty"`
	queryResponse
}

// handleAsk runs the full turn: introspect (memoized), generate, execute.
// With the repair pass enabled a statement the database rejects gets one
// corrective re-prompt; the repaired statement is executed once and the
// result or its error is final.
func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(deps, w, r)
	if !ok {
		return
	}
	var request askRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	if strings.TrimSpace(request.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	desc, err := s.Schema(r.Context(), deps.SchemaOptions)
	if err != nil {
		renderError(r.Context(), w, err)
		return
	}

	genReq := nlsql.Request{
		Question: request.Question,
		Schema:   desc,
		Dialect:  string(s.Kind()),
		Model:    request.Model,
	}

	start := time.Now()
	generated, err := deps.Generator.Generate(r.Context(), genReq)
	if err != nil {
		observability.ObserveGeneration(providerOf(err, generated), "error", time.Since(start))
		renderError(r.Context(), w, err)
		return
	}
	observability.ObserveGeneration(generated.Provider, "ok", time.Since(start))

	repaired := false
	result, err := executeForRequest(deps, r, s, generated.SQL)
	if err != nil && deps.Repair && repairable(err) {
		regenerated, repairErr := deps.Generator.Repair(r.Context(), genReq, generated.SQL, err)
		if repairErr == nil {
			if retried, retryErr := executeForRequest(deps, r, s, regenerated.SQL); retryErr == nil {
				generated = regenerated
				result, err = retried, nil
				repaired = true
			}
		}
	}
	if err != nil {
		renderError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		SQL:           generated.SQL,
		Provider:      generated.Provider,
		Model:         generated.Model,
		Repaired:      repaired,
		queryResponse: toQueryResponse(result),
	})
}

// repairable: only statement-level driver rejections are worth a
// re-prompt. Policy violations and timeouts are not.
func repairable(err error) bool {
	var execErr *exec.ExecutionError
	if !errors.As(err, &execErr) {
		return false
	}
	return execErr.Kind == exec.KindSyntaxError || execErr.Kind == exec.KindRuntimeFailure
}
