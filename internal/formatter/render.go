package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mcncl/editrack/internal/config"
	"github.com/mcncl/editrack/internal/errors"
	"github.com/mcncl/editrack/internal/models"
)

// Section titles
const (
	TitleSummary = "Summary"
	TitleBoomi   = "Boomi (SQL data)"
	TitleMFT     = "MFT (SQL data)"
	TitleRaw     = "Raw response (n8n)"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Table renders a DisplayTable as a bordered terminal table, or "NA" when it has no rows.
func (f *Formatter) Table(t models.DisplayTable) string {
	if t.IsEmpty() {
		return Missing
	}

	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]string, len(t.Columns))
		for j, column := range t.Columns {
			cells[j] = row[column]
		}
		rows[i] = cells
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(f.Headers(t.Columns)...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return tbl.String()
}

// Render renders a report in the requested format ("table" or "json").
func (f *Formatter) Render(report models.Report, format string) (string, error) {
	switch format {
	case config.FormatJSON:
		out, err := PrettyJSON(report)
		if err != nil {
			return "", errors.NewRenderError("failed to encode report as JSON", err)
		}
		return out, nil
	case config.FormatTable, "":
		return f.renderText(report)
	default:
		return "", errors.NewRenderError("unknown output format \""+format+"\"", nil)
	}
}

func (f *Formatter) renderText(report models.Report) (string, error) {
	var b strings.Builder

	if report.DocumentID != "" {
		b.WriteString("Document ID: " + report.DocumentID + "\n\n")
	}

	summary, err := f.Summary(report.Summary)
	if err != nil {
		return "", errors.NewRenderError("failed to render summary", err)
	}
	writeSection(&b, TitleSummary, summary)
	writeSection(&b, TitleBoomi, f.Table(report.Boomi))
	writeSection(&b, TitleMFT, f.Table(report.MFT))

	if report.Raw != nil {
		raw, err := PrettyJSON(report.Raw)
		if err != nil {
			return "", errors.NewRenderError("failed to render raw response", err)
		}
		writeSection(&b, TitleRaw, raw)
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

func writeSection(b *strings.Builder, title, body string) {
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n\n")
}

// DrillDown renders a row's incoming data: indented JSON for objects and
// arrays, the plain text for everything else.
func (f *Formatter) DrillDown(title string, v models.Value) (string, error) {
	var body string
	switch t := v.(type) {
	case *models.Object, models.Array:
		out, err := PrettyJSON(t)
		if err != nil {
			return "", errors.NewRenderError("failed to render incoming data", err)
		}
		body = out
	case models.String:
		body = string(t)
	default:
		body = models.Compact(v)
	}
	return titleStyle.Render(title) + "\n" + body, nil
}
