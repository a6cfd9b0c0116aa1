package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/tamaraiselva/text2sql/internal/nlsql"
	"github.com/tamaraiselva/text2sql/internal/observability"
)

type generateRequest struct {
	Question string `json:"question"`
	Model    string `json:"model"`
}

type generateResponse struct {
	SQL      string `json:"sql"`
	Raw      string `json:"raw"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// handleGenerate turns a question into SQL without executing it, for the
// show-SQL-first flow.
func handleGenerate(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(deps, w, r)
	if !ok {
		return
	}
	var request generateRequest
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

	start := time.Now()
	generated, err := deps.Generator.Generate(r.Context(), nlsql.Request{
		Question: request.Question,
		Schema:   desc,
		Dialect:  string(s.Kind()),
		Model:    request.Model,
	})
	if err != nil {
		observability.ObserveGeneration(providerOf(err, generated), "error", time.Since(start))
		renderError(r.Context(), w, err)
		return
	}
	observability.ObserveGeneration(generated.Provider, "ok", time.Since(start))

	writeJSON(w, http.StatusOK, generateResponse{
		SQL:      generated.SQL,
		Raw:      generated.Raw,
		Provider: generated.Provider,
		Model:    generated.Model,
	})
}

func providerOf(err error, generated *nlsql.Generated) string {
	if generated != nil {
		return generated.Provider
	}
	if genErr, ok := err.(*nlsql.GenerationError); ok && genErr.Provider != "" {
		return genErr.Provider
	}
	return "unknown"
}
