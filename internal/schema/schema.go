// Package schema discovers tables and columns of a connected database and
// renders them as the deterministic text block embedded into generation
// prompts.
package schema

import (
	"fmt"
	"strings"
)

type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Description is an ordered view of the database structure. It is immutable
// once built; the session layer rebuilds it after every successful
// reconnect.
type Description struct {
	Tables []Table `json:"tables"`
	// TotalTables is the number of tables found before the cap was
	// applied. Truncated is set when Tables holds fewer than that.
	TotalTables int  `json:"total_tables"`
	Truncated   bool `json:"truncated"`
}

// Render produces the prompt block. Tables and columns appear in the
// deterministic order introspection produced, one table per line:
//
//	PATIENTS(patient_id INTEGER, first_name TEXT)
//
// When the table cap truncated the description, an explicit note is
// appended so the model (and the user) see that the schema is partial.
func (d *Description) Render() string {
	var b strings.Builder
	for _, table := range d.Tables {
		b.WriteString(table.Name)
		b.WriteByte('(')
		for i, col := range table.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(col.Name)
			if col.Type != "" {
				b.WriteByte(' ')
				b.WriteString(col.Type)
			}
		}
		b.WriteString(")\n")
	}
	if d.Truncated {
		fmt.Fprintf(&b, "-- schema truncated: showing first %d of %d tables\n", len(d.Tables), d.TotalTables)
	}
	return b.String()
}
