package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tamaraiselva/text2sql/internal/dbconn"
	"github.com/tamaraiselva/text2sql/internal/exec"
	"github.com/tamaraiselva/text2sql/internal/nlsql"
	"github.com/tamaraiselva/text2sql/internal/schema"
	"github.com/tamaraiselva/text2sql/internal/session"
)

// renderError is the single translation point from the pipeline's typed
// errors to the wire envelope. Everything unrecognized becomes a 500.
func renderError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrNotConnected) {
		writeError(ctx, w, http.StatusConflict, "NOT_CONNECTED", "session has no database connection; connect first", false, nil)
		return
	}

	var connErr *dbconn.ConnectionError
	if errors.As(err, &connErr) {
		switch connErr.Kind {
		case dbconn.ErrMissingField:
			writeError(ctx, w, http.StatusBadRequest, "CONNECTION_INVALID", connErr.Error(), false, map[string]any{"field": connErr.Field})
		default:
			writeError(ctx, w, http.StatusBadGateway, "CONNECTION_FAILED", connErr.Error(), true, nil)
		}
		return
	}

	var introErr *schema.IntrospectionError
	if errors.As(err, &introErr) {
		switch introErr.Kind {
		case schema.ErrUnsupported:
			writeError(ctx, w, http.StatusBadRequest, "BACKEND_UNSUPPORTED", introErr.Error(), false, map[string]any{"backend": introErr.Backend})
		default:
			writeError(ctx, w, http.StatusBadGateway, "INTROSPECTION_FAILED", introErr.Error(), true, map[string]any{"backend": introErr.Backend})
		}
		return
	}

	var genErr *nlsql.GenerationError
	if errors.As(err, &genErr) {
		switch genErr.Kind {
		case nlsql.KindMultiStatement:
			writeError(ctx, w, http.StatusUnprocessableEntity, "GENERATION_MULTI_STATEMENT", genErr.Error(), false, nil)
		case nlsql.KindEmptyResponse:
			writeError(ctx, w, http.StatusBadGateway, "GENERATION_EMPTY", genErr.Error(), true, nil)
		case nlsql.KindTimeout:
			writeError(ctx, w, http.StatusGatewayTimeout, "GENERATION_TIMEOUT", genErr.Error(), true, nil)
		default:
			writeError(ctx, w, http.StatusBadGateway, "GENERATION_FAILED", genErr.Error(), true, nil)
		}
		return
	}

	var execErr *exec.ExecutionError
	if errors.As(err, &execErr) {
		switch execErr.Kind {
		case exec.KindWriteNotAllowed:
			writeError(ctx, w, http.StatusForbidden, "SQL_NOT_ALLOWED", execErr.Error(), false, map[string]any{"keyword": execErr.Keyword})
		case exec.KindSyntaxError:
			writeError(ctx, w, http.StatusBadRequest, "SQL_SYNTAX_ERROR", execErr.Error(), false, nil)
		case exec.KindTimeout:
			writeError(ctx, w, http.StatusGatewayTimeout, "QUERY_TIMEOUT", execErr.Error(), true, nil)
		default:
			writeError(ctx, w, http.StatusBadGateway, "QUERY_FAILED", execErr.Error(), true, nil)
		}
		return
	}

	writeError(ctx, w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error(), true, nil)
}
