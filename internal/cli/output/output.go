// Package output renders command results as tables, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// Format selects how results are printed.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat accepts table, json, yaml or yml, case-insensitively. An empty
// string selects the table format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "table", "":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("invalid output format: %q (valid: table, json, yaml)", s)
	}
}

// Table is implemented by results that have a tabular form.
type Table interface {
	Headers() []string
	Rows() [][]string
}

// Print writes data in format f. In table format, data must implement
// Table; anything else is printed as JSON.
func Print(w io.Writer, f Format, data any) error {
	switch f {
	case FormatJSON:
		return PrintJSON(w, data)
	case FormatYAML:
		return PrintYAML(w, data)
	case FormatTable:
		if t, ok := data.(Table); ok {
			PrintTable(w, t)
			return nil
		}
		return PrintJSON(w, data)
	default:
		return fmt.Errorf("unknown format: %s", f)
	}
}

// PrintJSON writes indented JSON.
func PrintJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// PrintYAML writes YAML with two-space indentation.
func PrintYAML(w io.Writer, data any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

// PrintTable writes t as a borderless, left-aligned table.
func PrintTable(w io.Writer, t Table) {
	table := newTable(w)
	table.SetHeader(t.Headers())
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk(t.Rows())
	table.Render()
}

// PrintPairs writes "key: value" lines with the values aligned.
func PrintPairs(w io.Writer, pairs [][2]string) {
	table := newTable(w)
	table.SetColumnSeparator(":")
	for _, p := range pairs {
		table.Append([]string{p[0], p[1]})
	}
	table.Render()
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}

// Rows is an ad-hoc Table.
type Rows struct {
	headers []string
	rows    [][]string
}

// NewRows starts a table with the given headers.
func NewRows(headers ...string) *Rows {
	return &Rows{headers: headers, rows: [][]string{}}
}

// Add appends a row.
func (r *Rows) Add(cells ...string) {
	r.rows = append(r.rows, cells)
}

func (r *Rows) Headers() []string { return r.headers }
func (r *Rows) Rows() [][]string  { return r.rows }
