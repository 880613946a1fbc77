// Package data provides the read-only game data source: spaces, space
// effects, dice tables, and the card catalog. Rows are loaded from CSV files
// or Postgres tables into an in-memory Database and never written back.
package data

import (
	"strconv"
	"strings"
)

// Row is a single attribute bag keyed by lower-case column name.
// Rows are shared between readers and must not be mutated after loading.
type Row map[string]string

// Get returns the trimmed value of a column, or "" when absent.
func (r Row) Get(field string) string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(r[field])
}

// Has reports whether the column is present and non-empty.
func (r Row) Has(field string) bool {
	return r.Get(field) != ""
}

// Int parses the column as an amount (see ParseAmount). Missing or
// unparseable values yield 0.
func (r Row) Int(field string) int {
	v, err := ParseAmount(r.Get(field))
	if err != nil {
		return 0
	}
	return v
}

// Bool parses the column as a boolean. Accepts true/false, yes/no, y/n and 1/0.
func (r Row) Bool(field string) bool {
	switch strings.ToLower(r.Get(field)) {
	case "true", "yes", "y", "1":
		return true
	}
	if b, err := strconv.ParseBool(r.Get(field)); err == nil {
		return b
	}
	return false
}

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
