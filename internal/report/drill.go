package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mcncl/editrack/internal/errors"
	"github.com/mcncl/editrack/internal/models"
	"github.com/mcncl/editrack/internal/payload"
)

// Datasets that support drill-down
const (
	DatasetBoomi = payload.KeyBoomi
	DatasetMFT   = payload.KeyMFT
)

// ParseDrill splits a "dataset:row" selector such as "boomi:0".
func ParseDrill(selector string) (string, int, error) {
	dataset, index, ok := strings.Cut(strings.TrimSpace(selector), ":")
	if !ok {
		return "", 0, errors.NewInputError(fmt.Sprintf("invalid drill-down selector %q, expected dataset:row", selector), nil)
	}
	row, err := strconv.Atoi(strings.TrimSpace(index))
	if err != nil {
		return "", 0, errors.NewInputError(fmt.Sprintf("invalid row %q in drill-down selector", index), err)
	}
	return strings.ToLower(strings.TrimSpace(dataset)), row, nil
}

// DrillDown returns the incoming data of one row of a report dataset.
func DrillDown(report models.Report, dataset string, row int) (models.Value, error) {
	var t models.DisplayTable
	switch strings.ToLower(dataset) {
	case DatasetBoomi:
		t = report.Boomi
	case DatasetMFT:
		t = report.MFT
	default:
		return nil, errors.NewInputError(fmt.Sprintf("unknown dataset %q, use %s or %s", dataset, DatasetBoomi, DatasetMFT), errors.ErrUnknownDataset)
	}

	if row < 0 || row >= len(t.Rows) {
		return nil, errors.NewInputError(fmt.Sprintf("%s has %d rows, row %d requested", dataset, len(t.Rows), row), errors.ErrRowOutOfRange)
	}
	value, ok := t.DrillDown[row]
	if !ok {
		return nil, errors.NewInputError(fmt.Sprintf("%s row %d has no incoming data", dataset, row), errors.ErrNoDrillDown)
	}
	return value, nil
}
