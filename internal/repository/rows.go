package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Sport tables differ in column names, so game and prediction rows are read as
// JSON objects and mapped by the sport adapter.

// jsonField renders a text lookup of one key of the row's JSON form
func jsonField(alias, key string) string {
	return fmt.Sprintf("(to_jsonb(%s)->>'%s')", alias, strings.ReplaceAll(key, "'", "''"))
}

// jsonCoalesce renders the first non-null key among names
func jsonCoalesce(alias string, names []string) string {
	if len(names) == 1 {
		return jsonField(alias, names[0])
	}
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = jsonField(alias, name)
	}
	return "COALESCE(" + strings.Join(parts, ", ") + ")"
}

func quoteTable(table string) string {
	return pgx.Identifier(strings.Split(table, ".")).Sanitize()
}

// decodeRow decodes one JSON row keeping numbers exact
func decodeRow(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	row := make(map[string]any)
	if err := dec.Decode(&row); err != nil {
		return nil, fmt.Errorf("failed to decode row: %w", err)
	}
	return row, nil
}

// collectJSONRows reads single-column JSON rows
func collectJSONRows(rows pgx.Rows) ([]map[string]any, error) {
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row, err := decodeRow(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}
