package api

import (
	"net/http"

	"github.com/tamaraiselva/text2sql/internal/schema"
)

type schemaResponse struct {
	Backend  string         `json:"backend"`
	Tables   []schema.Table `json:"tables"`
	Rendered string         `json:"rendered"`
	Total    int            `json:"total_tables"`
	Partial  bool           `json:"truncated"`
}

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	s, ok := requireSession(deps, w, r)
	if !ok {
		return
	}
	desc, err := s.Schema(r.Context(), deps.SchemaOptions)
	if err != nil {
		renderError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, schemaResponse{
		Backend:  string(s.Kind()),
		Tables:   desc.Tables,
		Rendered: desc.Render(),
		Total:    desc.TotalTables,
		Partial:  desc.Truncated,
	})
}
