// Package text2sqlctl implements the command line client for the HTTP
// API. It holds no database or model logic; every command is one API
// call.
package text2sqlctl

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

type Options struct {
	BaseURL    string
	APIKey     string
	SessionID  string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
	// LookupEnv supplies the database password for connect. Passwords
	// never travel through argv where other processes can read them.
	LookupEnv func(string) (string, bool)
}

const passwordEnv = "TEXT2SQL_DB_PASSWORD"

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}
	lookupEnv := defaults.LookupEnv
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}

	fs := flag.NewFlagSet("text2sqlctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	baseURL := fs.String("base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8080"), "API base URL")
	apiKey := fs.String("api-key", defaults.APIKey, "API key for authenticated requests")
	sessionID := fs.String("session", defaults.SessionID, "Session ID (from a previous connect)")
	timeout := fs.Duration("timeout", durationOr(defaults.Timeout, 30*time.Second), "HTTP timeout (e.g. 30s)")
	format := fs.String("format", "csv", "Export format: csv, json or parquet")
	model := fs.String("model", "", "Override the configured model for generate/ask")

	kind := fs.String("kind", "sqlite", "Database backend: sqlite, duckdb, mysql, postgres or sqlserver")
	host := fs.String("host", "", "Database host (server backends)")
	port := fs.Int("port", 0, "Database port (0 uses the backend default)")
	user := fs.String("user", "", "Database user (server backends)")
	database := fs.String("database", "", "Database name (server backends)")
	path := fs.String("path", "", "Database file path (sqlite/duckdb)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(stderr)
		return 2
	}

	client := defaults.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: *timeout}
	}
	runner := &runner{
		client:    client,
		baseURL:   strings.TrimRight(*baseURL, "/"),
		apiKey:    strings.TrimSpace(*apiKey),
		sessionID: strings.TrimSpace(*sessionID),
		stdout:    stdout,
		stderr:    stderr,
	}

	command := strings.TrimSpace(fs.Arg(0))
	rest := fs.Args()[1:]

	switch command {
	case "health":
		return runner.getJSON(ctx, "/v1/health")
	case "ready":
		return runner.getJSON(ctx, "/v1/ready")
	case "connect":
		password, _ := lookupEnv(passwordEnv)
		return runner.connect(ctx, map[string]any{
			"kind":     *kind,
			"host":     *host,
			"port":     *port,
			"user":     *user,
			"password": password,
			"database": *database,
			"path":     *path,
		})
	case "disconnect":
		return runner.request(ctx, http.MethodDelete, "/v1/sessions", nil, printPretty)
	case "schema":
		return runner.request(ctx, http.MethodGet, "/v1/schema", nil, printSchema)
	case "generate":
		question := strings.TrimSpace(strings.Join(rest, " "))
		if question == "" {
			_, _ = fmt.Fprintln(stderr, "generate requires a question")
			return 2
		}
		return runner.request(ctx, http.MethodPost, "/v1/generate", map[string]any{"question": question, "model": *model}, printGenerated)
	case "ask":
		question := strings.TrimSpace(strings.Join(rest, " "))
		if question == "" {
			_, _ = fmt.Fprintln(stderr, "ask requires a question")
			return 2
		}
		return runner.request(ctx, http.MethodPost, "/v1/ask", map[string]any{"question": question, "model": *model}, printAskResult)
	case "query":
		if len(rest) != 1 {
			_, _ = fmt.Fprintln(stderr, "query requires exactly one SQL argument")
			return 2
		}
		return runner.request(ctx, http.MethodPost, "/v1/query", map[string]any{"sql": rest[0]}, printResultTable)
	case "export":
		if len(rest) != 1 {
			_, _ = fmt.Fprintln(stderr, "export requires exactly one SQL argument")
			return 2
		}
		return runner.export(ctx, rest[0], *format)
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		writeUsage(stderr)
		return 2
	}
}

type runner struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	sessionID string
	stdout    io.Writer
	stderr    io.Writer
}

type renderFunc func(w io.Writer, body []byte)

func (r *runner) getJSON(ctx context.Context, path string) int {
	return r.request(ctx, http.MethodGet, path, nil, printPretty)
}

func (r *runner) request(ctx context.Context, method, path string, payload any, render renderFunc) int {
	code, body, err := r.do(ctx, method, path, payload)
	if err != nil {
		_, _ = fmt.Fprintf(r.stderr, "request failed: %v\n", err)
		return 1
	}
	if code >= 400 {
		_, _ = fmt.Fprintf(r.stderr, "http %d: %s\n", code, errorMessage(body))
		return 1
	}
	render(r.stdout, body)
	return 0
}

func (r *runner) connect(ctx context.Context, payload map[string]any) int {
	code, body, err := r.do(ctx, http.MethodPost, "/v1/sessions", payload)
	if err != nil {
		_, _ = fmt.Fprintf(r.stderr, "request failed: %v\n", err)
		return 1
	}
	if code >= 400 {
		_, _ = fmt.Fprintf(r.stderr, "http %d: %s\n", code, errorMessage(body))
		return 1
	}
	var connected struct {
		SessionID string `json:"session_id"`
		Target    string `json:"target"`
	}
	if err := json.Unmarshal(body, &connected); err != nil {
		_, _ = fmt.Fprintf(r.stderr, "unexpected response: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(r.stdout, "connected to %s\n", connected.Target)
	_, _ = fmt.Fprintf(r.stdout, "session: %s\n", connected.SessionID)
	_, _ = fmt.Fprintf(r.stdout, "pass it to later commands with -session or TEXT2SQL_SESSION\n")
	return 0
}

func (r *runner) export(ctx context.Context, sqlText, format string) int {
	code, body, err := r.do(ctx, http.MethodPost, "/v1/export", map[string]any{"sql": sqlText, "format": format})
	if err != nil {
		_, _ = fmt.Fprintf(r.stderr, "request failed: %v\n", err)
		return 1
	}
	if code >= 400 {
		_, _ = fmt.Fprintf(r.stderr, "http %d: %s\n", code, errorMessage(body))
		return 1
	}
	_, _ = r.stdout.Write(body)
	return 0
}

func (r *runner) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.apiKey != "" {
		req.Header.Set("X-API-Key", r.apiKey)
	}
	if r.sessionID != "" {
		req.Header.Set("X-Session-ID", r.sessionID)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func errorMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}
	return strings.TrimSpace(string(body))
}

func printPretty(w io.Writer, body []byte) {
	if len(bytes.TrimSpace(body)) == 0 {
		return
	}
	var anyValue any
	if err := json.Unmarshal(body, &anyValue); err != nil {
		_, _ = fmt.Fprintln(w, strings.TrimSpace(string(body)))
		return
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return
	}
	_, _ = fmt.Fprintln(w, string(formatted))
}

func printSchema(w io.Writer, body []byte) {
	var response struct {
		Rendered string `json:"rendered"`
	}
	if err := json.Unmarshal(body, &response); err != nil || response.Rendered == "" {
		printPretty(w, body)
		return
	}
	_, _ = fmt.Fprint(w, response.Rendered)
}

func printGenerated(w io.Writer, body []byte) {
	var response struct {
		SQL string `json:"sql"`
	}
	if err := json.Unmarshal(body, &response); err != nil || response.SQL == "" {
		printPretty(w, body)
		return
	}
	_, _ = fmt.Fprintln(w, response.SQL)
}

type tableResponse struct {
	SQL     string   `json:"sql"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	Note    string   `json:"note"`
}

func printAskResult(w io.Writer, body []byte) {
	var response tableResponse
	if err := json.Unmarshal(body, &response); err != nil {
		printPretty(w, body)
		return
	}
	if response.SQL != "" {
		_, _ = fmt.Fprintf(w, "-- %s\n", response.SQL)
	}
	writeTable(w, response)
}

func printResultTable(w io.Writer, body []byte) {
	var response tableResponse
	if err := json.Unmarshal(body, &response); err != nil {
		printPretty(w, body)
		return
	}
	writeTable(w, response)
}

// writeTable renders an aligned text table, the CLI counterpart of the
// web UI's result grid.
func writeTable(w io.Writer, response tableResponse) {
	if len(response.Columns) == 0 {
		_, _ = fmt.Fprintln(w, "no rows returned")
		return
	}

	widths := make([]int, len(response.Columns))
	for i, col := range response.Columns {
		widths[i] = len(col)
	}
	cells := make([][]string, len(response.Rows))
	for rowIdx, row := range response.Rows {
		cells[rowIdx] = make([]string, len(response.Columns))
		for i := range response.Columns {
			if i < len(row) {
				cells[rowIdx][i] = cellString(row[i])
			}
			if len(cells[rowIdx][i]) > widths[i] {
				widths[i] = len(cells[rowIdx][i])
			}
		}
	}

	writeRow := func(values []string) {
		parts := make([]string, len(values))
		for i, value := range values {
			parts[i] = fmt.Sprintf("%-*s", widths[i], value)
		}
		_, _ = fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	writeRow(response.Columns)
	separators := make([]string, len(response.Columns))
	for i, width := range widths {
		separators[i] = strings.Repeat("-", width)
	}
	writeRow(separators)
	for _, row := range cells {
		writeRow(row)
	}
	if response.Note != "" {
		_, _ = fmt.Fprintln(w, response.Note)
	}
}

func cellString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		// JSON numbers decode as float64; render integers without the
		// trailing ".0" noise.
		if typed == float64(int64(typed)) {
			return fmt.Sprintf("%d", int64(typed))
		}
		return fmt.Sprintf("%g", typed)
	default:
		return fmt.Sprint(typed)
	}
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: text2sqlctl [flags] <command> [args]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  health                 GET /v1/health")
	_, _ = fmt.Fprintln(w, "  ready                  GET /v1/ready")
	_, _ = fmt.Fprintln(w, "  connect                POST /v1/sessions (flags: -kind -host -port -user -database -path;")
	_, _ = fmt.Fprintln(w, "                         password from "+passwordEnv+")")
	_, _ = fmt.Fprintln(w, "  disconnect             DELETE /v1/sessions")
	_, _ = fmt.Fprintln(w, "  schema                 GET /v1/schema")
	_, _ = fmt.Fprintln(w, "  generate <question>    POST /v1/generate")
	_, _ = fmt.Fprintln(w, "  ask <question>         POST /v1/ask")
	_, _ = fmt.Fprintln(w, "  query <sql>            POST /v1/query")
	_, _ = fmt.Fprintln(w, "  export <sql>           POST /v1/export (flag: -format csv|json|parquet)")
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
