package api

import (
	"net/http"

	"github.com/tamaraiselva/text2sql/internal/dbconn"
	"github.com/tamaraiselva/text2sql/internal/observability"
)

type connectRequest struct {
	Kind     string `json:"kind"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	Path     string `json:"path"`
}

type connectResponse struct {
	SessionID string `json:"session_id"`
	Backend   string `json:"backend"`
	Target    string `json:"target"`
}

// handleCreateSession connects to the described database and binds the
// handle to a session. With an X-Session-ID header the existing session
// reconnects in place; otherwise a new session is created. The connection
// is ping-validated before the session ID is returned, so a success
// response means the database is reachable. The request body, password
// included, is parsed and dropped; only the redacted target ever leaves
// this handler.
func handleCreateSession(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	var request connectRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	kind, err := dbconn.ParseKind(request.Kind)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "CONNECTION_INVALID", err.Error(), false, map[string]any{"field": "kind"})
		return
	}
	desc := &dbconn.Descriptor{
		Kind:     kind,
		Host:     request.Host,
		Port:     request.Port,
		User:     request.User,
		Password: request.Password,
		Database: request.Database,
		Path:     request.Path,
	}

	handle, err := dbconn.Connect(r.Context(), desc, deps.ConnectTimeout)
	if err != nil {
		renderError(r.Context(), w, err)
		return
	}

	s, ok := deps.Sessions.Get(r.Header.Get(sessionHeader))
	if !ok {
		s = deps.Sessions.Create()
	}
	s.Attach(handle)
	observability.SetActiveSessions(deps.Sessions.Len())

	if deps.Logger != nil {
		deps.Logger.InfoContext(r.Context(), "session connected",
			"session_id", s.ID,
			"target", desc.Redacted(),
		)
	}

	writeJSON(w, http.StatusOK, connectResponse{
		SessionID: s.ID,
		Backend:   string(kind),
		Target:    desc.Redacted(),
	})
}

func handleDeleteSession(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(sessionHeader)
	if id == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "SESSION_REQUIRED", "X-Session-ID header is required", false, nil)
		return
	}
	if !deps.Sessions.Remove(id) {
		writeError(r.Context(), w, http.StatusNotFound, "SESSION_NOT_FOUND", "unknown or expired session", false, nil)
		return
	}
	observability.SetActiveSessions(deps.Sessions.Len())
	writeJSON(w, http.StatusOK, map[string]any{"status": "disconnected"})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := jsonDecode(r, target); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "request body is not valid JSON", false, nil)
		return false
	}
	return true
}
