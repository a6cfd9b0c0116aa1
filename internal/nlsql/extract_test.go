package nlsql

import (
	"errors"
	"testing"
)

func TestExtractStatementPassthrough(t *testing.T) {
	got, err := ExtractStatement("SELECT * FROM PATIENTS;")
	if err != nil {
		t.Fatalf("ExtractStatement() error = %v", err)
	}
	if got != "SELECT * FROM PATIENTS;" {
		t.Fatalf("ExtractStatement() = %q", got)
	}
}

func TestExtractStatementStripsFences(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "sql fence",
			raw:  "```sql\nSELECT p.first_name FROM PATIENTS p;\n```",
			want: "SELECT p.first_name FROM PATIENTS p;",
		},
		{
			name: "bare fence",
			raw:  "```\nSELECT 1;\n```",
			want: "SELECT 1;",
		},
		{
			name: "prose around fence",
			raw:  "Here is the query you asked for:\n```sql\nSELECT 1;\n```\nLet me know if you need more.",
			want: "SELECT 1;",
		},
		{
			name: "no terminator",
			raw:  "SELECT d.name FROM DEPARTMENTS d",
			want: "SELECT d.name FROM DEPARTMENTS d",
		},
		{
			name: "prose preamble without fence",
			raw:  "Sure!\nSELECT 1;",
			want: "SELECT 1;",
		},
		{
			name: "prose postamble without fence",
			raw:  "SELECT 1;\nThis counts the rows.",
			want: "SELECT 1;",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractStatement(tc.raw)
			if err != nil {
				t.Fatalf("ExtractStatement(%q) error = %v", tc.raw, err)
			}
			if got != tc.want {
				t.Fatalf("ExtractStatement(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestExtractStatementRejectsMultipleStatements(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{name: "two selects", raw: "SELECT 1; SELECT 2;"},
		{name: "trailing vacuum", raw: "SELECT 1; VACUUM;"},
		{name: "trailing set", raw: "SELECT 1; SET search_path TO public;"},
		{name: "trailing merge", raw: "SELECT 1; MERGE INTO PATIENTS USING dual ON (1=1);"},
		{name: "trailing grant", raw: "SELECT 1;\nGRANT ALL ON PATIENTS TO intern;"},
		{name: "trailing begin", raw: "SELECT 1; BEGIN;"},
		{name: "trailing call", raw: "SELECT 1; CALL refresh_stats();"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ExtractStatement(tc.raw)
			var genErr *GenerationError
			if !errors.As(err, &genErr) || genErr.Kind != KindMultiStatement {
				t.Fatalf("ExtractStatement(%q) error = %v, want multi statement", tc.raw, err)
			}
		})
	}
}

func TestExtractStatementIgnoresSemicolonInLiteral(t *testing.T) {
	raw := "SELECT * FROM MEDICAL_RECORDS m WHERE m.diagnosis = 'flu; severe';"
	got, err := ExtractStatement(raw)
	if err != nil {
		t.Fatalf("ExtractStatement() error = %v", err)
	}
	if got != raw {
		t.Fatalf("ExtractStatement() = %q", got)
	}
}

func TestExtractStatementHandlesEscapedQuote(t *testing.T) {
	raw := "SELECT * FROM PATIENTS p WHERE p.last_name = 'O''Brien';"
	got, err := ExtractStatement(raw)
	if err != nil {
		t.Fatalf("ExtractStatement() error = %v", err)
	}
	if got != raw {
		t.Fatalf("ExtractStatement() = %q", got)
	}
}

func TestExtractStatementEmptyResponses(t *testing.T) {
	for _, raw := range []string{"", "   \n\t", "I cannot answer that question.", "```\n```"} {
		_, err := ExtractStatement(raw)
		var genErr *GenerationError
		if !errors.As(err, &genErr) || genErr.Kind != KindEmptyResponse {
			t.Fatalf("ExtractStatement(%q) error = %v, want empty response", raw, err)
		}
	}
}

func TestExtractStatementAcceptsCTE(t *testing.T) {
	raw := "WITH recent AS (SELECT * FROM APPOINTMENTS) SELECT * FROM recent;"
	got, err := ExtractStatement(raw)
	if err != nil {
		t.Fatalf("ExtractStatement() error = %v", err)
	}
	if got != raw {
		t.Fatalf("ExtractStatement() = %q", got)
	}
}
