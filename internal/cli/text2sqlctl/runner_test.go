package text2sqlctl

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRunConnectCommand(t *testing.T) {
	var gotMethod, gotPath, gotAPIKey string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("X-API-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"session_id":"s-1","backend":"mysql","target":"mysql://alice@db:3306/health"}`))
	}))
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{
		"-base-url", srv.URL,
		"-api-key", "k1",
		"-kind", "mysql",
		"-host", "db",
		"-user", "alice",
		"-database", "health",
		"connect",
	}, Options{
		Stdout:  &stdout,
		Stderr:  &stderr,
		Timeout: 2 * time.Second,
		LookupEnv: func(key string) (string, bool) {
			if key == passwordEnv {
				return "hunter2", true
			}
			return "", false
		},
	})
	if code != 0 {
		t.Fatalf("exit code = %d, stderr=%s", code, stderr.String())
	}
	if gotMethod != http.MethodPost || gotPath != "/v1/sessions" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}
	if gotAPIKey != "k1" {
		t.Fatalf("api key header = %q", gotAPIKey)
	}
	if gotBody["password"] != "hunter2" || gotBody["kind"] != "mysql" {
		t.Fatalf("body = %v", gotBody)
	}
	if !strings.Contains(stdout.String(), "session: s-1") {
		t.Fatalf("stdout = %q", stdout.String())
	}
	if strings.Contains(stdout.String(), "hunter2") {
		t.Fatal("password echoed to stdout")
	}
}

func TestRunAskRendersTable(t *testing.T) {
	var gotSession string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = r.Header.Get("X-Session-ID")
		_, _ = w.Write([]byte(`{"sql":"SELECT first_name FROM PATIENTS;","columns":["first_name"],"rows":[["Alice"]],"row_count":1,"truncated":false}`))
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	code := Run(context.Background(), []string{
		"-base-url", srv.URL,
		"-session", "s-1",
		"ask", "list", "patient", "names",
	}, Options{Stdout: &stdout})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if gotSession != "s-1" {
		t.Fatalf("session header = %q", gotSession)
	}
	out := stdout.String()
	for _, want := range []string{"-- SELECT first_name FROM PATIENTS;", "first_name", "Alice"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunQueryRendersTruncationNote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"columns":["n"],"rows":[[1]],"truncated":true,"note":"showing first 1 rows"}`))
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	code := Run(context.Background(), []string{"-base-url", srv.URL, "-session", "s-1", "query", "SELECT n FROM seq"}, Options{Stdout: &stdout})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stdout.String(), "showing first 1 rows") {
		t.Fatalf("output = %q", stdout.String())
	}
}

func TestRunSchemaPrintsRenderedBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"backend":"sqlite","rendered":"PATIENTS(patient_id INTEGER)\n","tables":[]}`))
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	code := Run(context.Background(), []string{"-base-url", srv.URL, "-session", "s-1", "schema"}, Options{Stdout: &stdout})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if stdout.String() != "PATIENTS(patient_id INTEGER)\n" {
		t.Fatalf("output = %q", stdout.String())
	}
}

func TestRunSurfacesAPIErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error_code":"SQL_NOT_ALLOWED","message":"statement \"DELETE\" is not allowed under the read-only policy"}`))
	}))
	defer srv.Close()

	var stderr bytes.Buffer
	code := Run(context.Background(), []string{"-base-url", srv.URL, "-session", "s-1", "query", "DELETE FROM PATIENTS"}, Options{Stderr: &stderr})
	if code != 1 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stderr.String(), "read-only policy") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestRunExportWritesRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["format"] != "json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"columns":["n"],"rows":[[1]]}`))
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	code := Run(context.Background(), []string{"-base-url", srv.URL, "-session", "s-1", "-format", "json", "export", "SELECT n FROM seq"}, Options{Stdout: &stdout})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if stdout.String() != `{"columns":["n"],"rows":[[1]]}` {
		t.Fatalf("output = %q", stdout.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	var stderr bytes.Buffer
	code := Run(context.Background(), []string{"unknown"}, Options{Stderr: &stderr})
	if code != 2 {
		t.Fatalf("exit code = %d", code)
	}
	if stderr.Len() == 0 {
		t.Fatal("expected usage output")
	}
}

func TestRunRequiresQuestion(t *testing.T) {
	var stderr bytes.Buffer
	code := Run(context.Background(), []string{"ask"}, Options{Stderr: &stderr})
	if code != 2 {
		t.Fatalf("exit code = %d", code)
	}
}
