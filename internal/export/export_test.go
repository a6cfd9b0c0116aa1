package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/tamaraiselva/text2sql/internal/exec"
)

func sampleResult() *exec.Result {
	return &exec.Result{
		Columns: []string{"patient_id", "first_name", "cholesterol"},
		Rows: [][]any{
			{int64(1), "Alice", 210.5},
			{int64(2), "Bob", nil},
		},
	}
}

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"csv", FormatCSV, false},
		{"json", FormatJSON, false},
		{"parquet", FormatParquet, false},
		{"", FormatCSV, false},
		{"xlsx", "", true},
	}
	for _, tc := range cases {
		got, err := ParseFormat(tc.in)
		if tc.wantErr != (err != nil) {
			t.Fatalf("ParseFormat(%q) error = %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseFormat(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCSVRendersHeaderAndNulls(t *testing.T) {
	var buf bytes.Buffer
	if err := CSV(&buf, sampleResult()); err != nil {
		t.Fatalf("CSV() error = %v", err)
	}
	want := "patient_id,first_name,cholesterol\n1,Alice,210.5\n2,Bob,\n"
	if buf.String() != want {
		t.Fatalf("CSV() = %q, want %q", buf.String(), want)
	}
}

func TestJSONRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleResult()); err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	var decoded struct {
		Columns []string `json:"columns"`
		Rows    [][]any  `json:"rows"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded.Columns) != 3 || len(decoded.Rows) != 2 {
		t.Fatalf("decoded = %+v", decoded)
	}
	if decoded.Rows[1][2] != nil {
		t.Fatalf("NULL cell = %v", decoded.Rows[1][2])
	}
}

func TestParquetWritesValidFile(t *testing.T) {
	var buf bytes.Buffer
	if err := Parquet(&buf, sampleResult()); err != nil {
		t.Fatalf("Parquet() error = %v", err)
	}
	data := buf.Bytes()
	if len(data) < 8 {
		t.Fatalf("parquet payload too small: %d bytes", len(data))
	}
	if !bytes.HasPrefix(data, []byte("PAR1")) || !bytes.HasSuffix(data, []byte("PAR1")) {
		t.Fatal("payload missing PAR1 framing")
	}
}

func TestParquetEmptyResult(t *testing.T) {
	var buf bytes.Buffer
	result := &exec.Result{Columns: []string{"n"}, Rows: [][]any{}}
	if err := Parquet(&buf, result); err != nil {
		t.Fatalf("Parquet() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("PAR1")) {
		t.Fatal("empty result did not produce a parquet file")
	}
}

func TestFormatValue(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{[]byte("y"), "y"},
		{int64(7), "7"},
		{3.5, "3.5"},
		{true, "true"},
	}
	for _, tc := range cases {
		if got := FormatValue(tc.in); got != tc.want {
			t.Fatalf("FormatValue(%#v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestContentTypes(t *testing.T) {
	if got := FormatCSV.ContentType(); !strings.HasPrefix(got, "text/csv") {
		t.Fatalf("csv content type = %q", got)
	}
	if got := FormatJSON.ContentType(); got != "application/json" {
		t.Fatalf("json content type = %q", got)
	}
	if FormatParquet.Filename() != "query_result.parquet" {
		t.Fatalf("filename = %q", FormatParquet.Filename())
	}
}
