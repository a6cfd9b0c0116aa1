package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tamaraiselva/text2sql/internal/export"
)

type exportRequest struct {
	SQL    string `json:"sql"`
	Format string `json:"format"`
}

// handleExport re-executes the statement under the usual policy and
// streams the result as a download.
func handleExport(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(deps, w, r)
	if !ok {
		return
	}
	var request exportRequest
	if !decodeJSON(w, r, &request) {
		return
	}
	if strings.TrimSpace(request.SQL) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_REQUIRED", "sql is required", false, nil)
		return
	}
	format, err := export.ParseFormat(request.Format)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "FORMAT_INVALID", err.Error(), false, nil)
		return
	}

	result, err := executeForRequest(deps, r, s, request.SQL)
	if err != nil {
		renderError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename()))
	if err := export.Write(w, format, result); err != nil && deps.Logger != nil {
		// Headers are gone; all we can do is log the broken stream.
		deps.Logger.ErrorContext(r.Context(), "export stream failed", "error", err)
	}
}
