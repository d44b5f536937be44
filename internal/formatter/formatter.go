package formatter

import (
	"strings"
	"unicode/utf8"

	"github.com/iancoleman/strcase"
	"github.com/mcncl/editrack/internal/config"
	"github.com/mcncl/editrack/internal/models"
)

const (
	// DefaultCellWidth is the longest cell text, in characters, before truncation.
	DefaultCellWidth = 200
	// Ellipsis marks truncated text. Structured values always carry it.
	Ellipsis = "..."
	// Missing is shown for absent values and empty tables.
	Missing = "NA"
)

// Formatter turns values into display strings and reports into text
type Formatter struct {
	cellWidth  int
	headerCase string
}

// NewFormatter creates a new Formatter instance
func NewFormatter() *Formatter {
	return NewFormatterWithConfig(config.NewConfig())
}

// NewFormatterWithConfig creates a Formatter using the normalize and display sections of cfg.
func NewFormatterWithConfig(cfg *config.Config) *Formatter {
	f := &Formatter{
		cellWidth:  DefaultCellWidth,
		headerCase: cfg.Display.HeaderCase,
	}
	if cfg.Normalize.CellWidth > 0 {
		f.cellWidth = cfg.Normalize.CellWidth
	}
	return f
}

// Cell renders v as bounded display text. Absent and null values are "NA";
// objects and arrays become ASCII JSON cut to the cell width and always end
// in "..."; other scalars are cut only when longer than the cell width.
func (f *Formatter) Cell(v models.Value) string {
	switch t := v.(type) {
	case nil, models.Null:
		return Missing
	case *models.Object, models.Array:
		return truncate(EncodeASCII(t), f.cellWidth) + Ellipsis
	case models.String:
		return f.bounded(string(t))
	case models.Number:
		return f.bounded(string(t))
	case models.Bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return f.bounded(models.Compact(v))
	}
}

func (f *Formatter) bounded(text string) string {
	if utf8.RuneCountInString(text) > f.cellWidth {
		return truncate(text, f.cellWidth) + Ellipsis
	}
	return text
}

// truncate keeps the first n characters of text.
func truncate(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}

// Header renders a column name according to the configured header case.
func (f *Formatter) Header(column string) string {
	switch f.headerCase {
	case config.HeaderCaseSnake:
		return strcase.ToSnake(column)
	case config.HeaderCaseCamel:
		return strcase.ToCamel(column)
	case config.HeaderCaseKebab:
		return strcase.ToKebab(column)
	case config.HeaderCaseScream:
		return strcase.ToScreamingSnake(column)
	default:
		return column
	}
}

// Headers applies Header to every column.
func (f *Formatter) Headers(columns []string) []string {
	out := make([]string, len(columns))
	for i, column := range columns {
		out[i] = f.Header(column)
	}
	return out
}

// Summary renders the summary value: trimmed text for strings, indented
// JSON for anything structured, "NA" when absent.
func (f *Formatter) Summary(v models.Value) (string, error) {
	switch t := v.(type) {
	case nil, models.Null:
		return Missing, nil
	case models.String:
		if text := strings.TrimSpace(string(t)); text != "" {
			return text, nil
		}
	}
	return PrettyJSON(v)
}
