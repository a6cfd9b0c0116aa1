// Package export renders a query result into downloadable formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/tamaraiselva/text2sql/internal/exec"
)

type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
)

func ParseFormat(value string) (Format, error) {
	switch Format(value) {
	case FormatCSV, FormatJSON, FormatParquet:
		return Format(value), nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown export format %q", value)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	default:
		return "text/csv"
	}
}

func (f Format) Filename() string {
	return "query_result." + string(f)
}

// Write renders the result in the requested format.
func Write(w io.Writer, f Format, result *exec.Result) error {
	switch f {
	case FormatJSON:
		return JSON(w, result)
	case FormatParquet:
		return Parquet(w, result)
	default:
		return CSV(w, result)
	}
}

// CSV writes a header row of column names followed by one record per row.
// NULLs become empty cells.
func CSV(w io.Writer, result *exec.Result) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(result.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(result.Columns))
	for _, row := range result.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) && row[i] != nil {
				record[i] = FormatValue(row[i])
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// JSON writes the result envelope as indented JSON.
func JSON(w io.Writer, result *exec.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("encode json result: %w", err)
	}
	return nil
}

// FormatValue renders one cell for display. The same rendering is used by
// the CSV export, the parquet export and the CLI table.
func FormatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case []byte:
		return string(typed)
	case time.Time:
		return typed.UTC().Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(typed, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'g', -1, 32)
	case bool:
		return strconv.FormatBool(typed)
	default:
		return fmt.Sprint(typed)
	}
}
