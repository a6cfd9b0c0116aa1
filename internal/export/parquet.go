package export

import (
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/tamaraiselva/text2sql/internal/exec"
)

// Parquet writes the result with a schema derived from the column list:
// every column is an optional string, NULLs stay NULL. Query results have
// no static row type, so rows travel as maps.
func Parquet(w io.Writer, result *exec.Result) error {
	group := parquet.Group{}
	for _, col := range result.Columns {
		group[col] = parquet.Optional(parquet.String())
	}
	schema := parquet.NewSchema("query_result", group)

	writer := parquet.NewGenericWriter[map[string]any](w, schema)
	rows := make([]map[string]any, 0, len(result.Rows))
	for _, row := range result.Rows {
		record := make(map[string]any, len(result.Columns))
		for i, col := range result.Columns {
			if i < len(row) && row[i] != nil {
				record[col] = FormatValue(row[i])
			}
		}
		rows = append(rows, record)
	}
	if len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			return fmt.Errorf("write parquet rows: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
