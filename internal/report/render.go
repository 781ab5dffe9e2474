package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"grocerybi/pkg/errors"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// Output formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatCSV   = "csv"
)

// Formats lists the supported output formats
func Formats() []string {
	return []string{FormatTable, FormatJSON, FormatYAML, FormatCSV}
}

// RenderOptions controls output
type RenderOptions struct {
	Format string
	Color  bool
}

// RenderReport writes every view of r. JSON output is the full typed report.
func RenderReport(w io.Writer, r *Report, opts RenderOptions) error {
	if opts.Format == FormatJSON {
		return writeJSON(w, r)
	}
	return renderTables(w, r.Tables(), opts)
}

// RenderTable writes a single view
func RenderTable(w io.Writer, t Table, opts RenderOptions) error {
	if opts.Format == FormatJSON {
		return writeJSON(w, t.Data)
	}
	return renderTables(w, []Table{t}, opts)
}

// RenderViews writes the view catalogue
func RenderViews(w io.Writer, views []ViewInfo, opts RenderOptions) error {
	switch opts.Format {
	case FormatJSON:
		return writeJSON(w, views)
	case FormatYAML:
		return writeYAML(w, views)
	}

	t := Table{
		ViewInfo: ViewInfo{Name: "views", Title: "Available Views"},
		Columns:  []string{"Name", "Title", "Description"},
	}
	for _, v := range views {
		t.Rows = append(t.Rows, []string{v.Name, v.Title, v.Description})
	}
	return renderTables(w, []Table{t}, opts)
}

func renderTables(w io.Writer, tables []Table, opts RenderOptions) error {
	switch opts.Format {
	case "", FormatTable:
		return writeTerminal(w, tables, opts.Color)
	case FormatYAML:
		return writeYAMLTables(w, tables)
	case FormatCSV:
		return writeCSV(w, tables)
	default:
		return errors.New(errors.ErrCodeUnknownFormat, fmt.Sprintf("Unknown output format %q", opts.Format)).
			WithContext("format", opts.Format).
			WithSuggestions(fmt.Sprintf("Use one of: %s", strings.Join(Formats(), ", ")))
	}
}

func writeTerminal(w io.Writer, tables []Table, useColor bool) error {
	title := color.New(color.FgCyan, color.Bold)
	if useColor {
		title.EnableColor()
	} else {
		title.DisableColor()
	}

	for i, t := range tables {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, title.Sprint(t.Title))

		table := tablewriter.NewWriter(w)
		table.SetHeader(t.Columns)
		table.SetAutoFormatHeaders(false)
		table.SetBorder(false)
		table.SetAutoWrapText(false)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.AppendBulk(t.Rows)
		table.Render()
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, errors.ErrCodeRenderFailed, "Failed to write JSON")
	}
	return nil
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, errors.ErrCodeRenderFailed, "Failed to write YAML")
	}
	return enc.Close()
}

// writeYAMLTables emits rows as mappings with keys in column order
func writeYAMLTables(w io.Writer, tables []Table) error {
	doc := &yaml.Node{Kind: yaml.SequenceNode}
	for _, t := range tables {
		rows := &yaml.Node{Kind: yaml.SequenceNode}
		for _, row := range t.Rows {
			m := &yaml.Node{Kind: yaml.MappingNode}
			for i, col := range t.Columns {
				cell := ""
				if i < len(row) {
					cell = row[i]
				}
				m.Content = append(m.Content, scalar(col), scalar(cell))
			}
			rows.Content = append(rows.Content, m)
		}

		doc.Content = append(doc.Content, &yaml.Node{
			Kind: yaml.MappingNode,
			Content: []*yaml.Node{
				scalar("view"), scalar(t.Name),
				scalar("title"), scalar(t.Title),
				scalar("rows"), rows,
			},
		})
	}
	return writeYAML(w, doc)
}

// scalar tags every cell as a string so "1200.00" keeps its fixed places
func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func writeCSV(w io.Writer, tables []Table) error {
	for i, t := range tables {
		if i > 0 {
			fmt.Fprintln(w)
		}
		cw := csv.NewWriter(w)
		if err := cw.Write(t.Columns); err != nil {
			return errors.Wrap(err, errors.ErrCodeRenderFailed, "Failed to write CSV")
		}
		if err := cw.WriteAll(t.Rows); err != nil {
			return errors.Wrap(err, errors.ErrCodeRenderFailed, "Failed to write CSV").
				WithContext("view", t.Name)
		}
	}
	return nil
}
