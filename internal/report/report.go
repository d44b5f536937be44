// Package report assembles the summary and the two SQL datasets of a
// workflow-execution result into display-ready tables.
package report

import (
	"strings"

	"github.com/mcncl/editrack/internal/config"
	"github.com/mcncl/editrack/internal/formatter"
	"github.com/mcncl/editrack/internal/models"
	"github.com/mcncl/editrack/internal/payload"
	"github.com/mcncl/editrack/internal/table"
	"go.uber.org/zap"
)

// Builder turns raw webhook responses into Reports
type Builder struct {
	resolver  *payload.Resolver
	formatter *formatter.Formatter
	showRaw   bool
	logger    *zap.Logger
}

// NewBuilder creates a Builder from cfg. A nil logger disables logging.
func NewBuilder(cfg *config.Config, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		resolver:  payload.NewResolverWithConfig(cfg),
		formatter: formatter.NewFormatterWithConfig(cfg),
		showRaw:   cfg.Display.ShowRaw,
		logger:    logger,
	}
}

// Resolver returns the resolver the builder normalises payloads with.
func (b *Builder) Resolver() *payload.Resolver {
	return b.resolver
}

// Build resolves output, boomi and mft from raw and formats them. It never
// fails: missing fields become an absent summary or an empty table.
func (b *Builder) Build(raw models.Value) models.Report {
	fields := b.resolver.Resolve(raw)

	report := models.Report{
		Summary: b.summary(fields.Output),
		Boomi:   b.Table(fields.Boomi),
		MFT:     b.Table(fields.MFT),
	}
	if b.showRaw {
		report.Raw = b.resolver.Parse(raw)
	}

	b.logger.Debug("report built",
		zap.Bool("has_summary", report.Summary != nil),
		zap.Int("boomi_rows", len(report.Boomi.Rows)),
		zap.Int("mft_rows", len(report.MFT.Rows)),
	)
	return report
}

// summary decodes a serialized output string; structured values are shown
// as they are.
func (b *Builder) summary(v models.Value) models.Value {
	v = b.parseString(v)
	if s, ok := v.(models.String); ok {
		text := strings.TrimSpace(string(s))
		if text == "" {
			return nil
		}
		return models.String(text)
	}
	if models.IsNone(v) {
		return nil
	}
	return v
}

// Table normalises a dataset value into a DisplayTable: rows are filtered,
// columns projected in first-seen order without the drill-down column, and
// every cell formatted. Keys a row lacks render as empty cells.
func (b *Builder) Table(v models.Value) models.DisplayTable {
	rows := table.FilterEmptyRows(table.Normalize(b.expand(v)))

	columns := table.VisibleColumns(rows)
	if len(columns) == 0 {
		columns = []string{table.DefaultColumn}
	}

	out := models.DisplayTable{
		Columns: columns,
		Rows:    make([]models.Row, 0, len(rows)),
	}
	for i, row := range rows {
		cells := make(models.Row, len(columns))
		for _, column := range columns {
			if value, ok := row.Get(column); ok {
				cells[column] = b.formatter.Cell(value)
			} else {
				cells[column] = ""
			}
		}
		out.Rows = append(out.Rows, cells)

		if incoming, ok := table.IncomingData(row); ok {
			if out.DrillDown == nil {
				out.DrillDown = make(map[int]models.Value)
			}
			out.DrillDown[i] = incoming
		}
	}
	return out
}

// expand decodes a dataset that arrived as serialized JSON, along with any
// of its items that are themselves serialized rows. A single row object is
// kept whole.
func (b *Builder) expand(v models.Value) models.Value {
	switch t := b.parseString(v).(type) {
	case models.Array:
		out := make(models.Array, len(t))
		for i, item := range t {
			out[i] = b.parseString(item)
		}
		return out
	case *models.Object:
		if !table.IsArrayLike(t) {
			return t
		}
		out := models.NewObject()
		t.Range(func(key string, item models.Value) bool {
			out.Set(key, b.parseString(item))
			return true
		})
		return out
	default:
		return t
	}
}

// parseString only decodes strings. Objects are rows or structured output
// already and must not be replaced by their "text" field.
func (b *Builder) parseString(v models.Value) models.Value {
	if _, ok := v.(models.String); ok {
		return b.resolver.Parse(v)
	}
	return v
}
