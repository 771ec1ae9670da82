// Package importer implements the bulk catalog import pipeline: an uploaded
// CSV or JSON document is parsed into records, each record is validated,
// checked against the store by its business key and committed, strictly in
// input order.
package importer

import (
	"fmt"
	"strings"
)

// Format is the declared encoding of an uploaded import file.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat maps a user supplied format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported import format %q", s)
}

// Label is the upper-case name used in user facing messages.
func (f Format) Label() string {
	return strings.ToUpper(string(f))
}

// Record is one input row keyed by field name.
type Record map[string]string

// Get returns the value of field with surrounding whitespace removed.
func (r Record) Get(field string) string {
	return strings.TrimSpace(r[field])
}

// Row is a parsed record together with its position in the input: the
// physical line for CSV, the 1-based array index for JSON.
type Row struct {
	Line   int
	Record Record
}
