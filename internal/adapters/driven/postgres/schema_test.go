package postgres

import (
	"regexp"
	"strings"
	"testing"
)

// tableDDL extracts the CREATE TABLE block for a table from the embedded
// schema so column checks don't match columns of other tables.
func tableDDL(t *testing.T, table string) string {
	t.Helper()

	marker := "CREATE TABLE IF NOT EXISTS " + table + " ("
	start := strings.Index(schema, marker)
	if start == -1 {
		t.Fatalf("schema.sql has no CREATE TABLE for %q", table)
	}
	rest := schema[start:]
	end := strings.Index(rest, ");")
	if end == -1 {
		t.Fatalf("unterminated CREATE TABLE for %q", table)
	}
	return rest[:end]
}

func declaresColumn(ddl, column string) bool {
	// Column declarations start a line inside the block
	re := regexp.MustCompile(`(?m)^\s+` + regexp.QuoteMeta(column) + `\s`)
	return re.MatchString(ddl)
}

// TestSchema_TaskColumns keeps schema.sql in step with the columns the
// Postgres task queue adapter names in its INSERT, SELECT and UPDATE
// statements. InitSchema applies schema.sql verbatim, so a column missing
// here breaks every queue operation at runtime.
func TestSchema_TaskColumns(t *testing.T) {
	ddl := tableDDL(t, "tasks")

	columns := []string{
		"id",
		"type",
		"payload",
		"status",
		"priority",
		"attempts",
		"max_attempts",
		"error",
		"created_at",
		"updated_at",
		"started_at",
		"completed_at",
		"scheduled_for",
	}
	for _, column := range columns {
		if !declaresColumn(ddl, column) {
			t.Errorf("tasks table missing column %q used by the task queue", column)
		}
	}
}

// TestSchema_StoreColumns does the same for the document, chunk and
// settings stores.
func TestSchema_StoreColumns(t *testing.T) {
	tables := map[string][]string{
		"documents": {"id", "title", "source", "mime_type", "length", "metadata", "created_at", "indexed_at"},
		"chunks":    {"id", "document_id", "content", "embedding", "position", "start_char", "end_char", "created_at"},
		"settings":  {"key", "value", "secrets", "updated_at"},
	}

	for table, columns := range tables {
		ddl := tableDDL(t, table)
		for _, column := range columns {
			if !declaresColumn(ddl, column) {
				t.Errorf("%s table missing column %q", table, column)
			}
		}
	}
}
