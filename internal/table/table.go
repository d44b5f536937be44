// Package table turns a resolved dataset value into rows and columns.
package table

import (
	"sort"
	"strings"

	"github.com/mcncl/editrack/internal/models"
)

// DefaultColumn is used when no row contributes a key.
const DefaultColumn = "value"

// DrillDownKey names the per-row raw payload. It is matched case-insensitively,
// kept out of the rendered columns and surfaced only on drill-down.
const DrillDownKey = "incomingdata"

// Normalize converts v into a row sequence. It accepts every shape:
// nil and null give no rows, arrays keep their object items, array-like
// objects are reordered by index, other objects become one row and any
// other scalar becomes a single {"value": v} row.
func Normalize(v models.Value) []*models.Object {
	switch t := v.(type) {
	case nil, models.Null:
		return []*models.Object{}
	case models.Array:
		return objectsOf(t)
	case *models.Object:
		if IsArrayLike(t) {
			return objectsOf(IndexOrdered(t))
		}
		return []*models.Object{t}
	default:
		return []*models.Object{models.ObjectOf(DefaultColumn, v)}
	}
}

func objectsOf(items models.Array) []*models.Object {
	rows := make([]*models.Object, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(*models.Object); ok {
			rows = append(rows, obj)
		}
	}
	return rows
}

// IsArrayLike reports whether obj is a sequence serialised as an object:
// non-empty, with every key a non-negative integer written in decimal digits.
func IsArrayLike(obj *models.Object) bool {
	if obj.Len() == 0 {
		return false
	}
	for _, key := range obj.Keys() {
		if !isIndex(key) {
			return false
		}
	}
	return true
}

// IndexOrdered returns the values of an array-like object sorted by numeric
// key. Gaps in the numbering are skipped, not padded.
func IndexOrdered(obj *models.Object) models.Array {
	keys := obj.Keys()
	sort.SliceStable(keys, func(i, j int) bool {
		return lessIndex(keys[i], keys[j])
	})
	out := make(models.Array, 0, len(keys))
	for _, key := range keys {
		v, _ := obj.Get(key)
		out = append(out, v)
	}
	return out
}

func isIndex(key string) bool {
	if key == "" {
		return false
	}
	for i := 0; i < len(key); i++ {
		if key[i] < '0' || key[i] > '9' {
			return false
		}
	}
	return true
}

// lessIndex compares digit strings numerically without overflowing.
func lessIndex(a, b string) bool {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// OrderedColumns returns every key seen across rows in first-seen order,
// or ["value"] when there are none.
func OrderedColumns(rows []*models.Object) []string {
	seen := make(map[string]struct{})
	columns := []string{}
	for _, row := range rows {
		for _, key := range row.Keys() {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			columns = append(columns, key)
		}
	}
	if len(columns) == 0 {
		return []string{DefaultColumn}
	}
	return columns
}

// VisibleColumns is OrderedColumns without the drill-down column.
func VisibleColumns(rows []*models.Object) []string {
	all := OrderedColumns(rows)
	visible := make([]string, 0, len(all))
	for _, column := range all {
		if isDrillDownKey(column) {
			continue
		}
		visible = append(visible, column)
	}
	return visible
}

// FilterEmptyRows drops rows whose every value is empty.
func FilterEmptyRows(rows []*models.Object) []*models.Object {
	cleaned := make([]*models.Object, 0, len(rows))
	for _, row := range rows {
		if row == nil || allEmpty(row) {
			continue
		}
		cleaned = append(cleaned, row)
	}
	return cleaned
}

func allEmpty(row *models.Object) bool {
	empty := true
	row.Range(func(_ string, value models.Value) bool {
		empty = IsEmptyValue(value)
		return empty
	})
	return empty
}

// emptyMarkers are placeholder strings upstream uses for "no value".
var emptyMarkers = map[string]struct{}{
	"na":   {},
	"n/a":  {},
	"null": {},
}

// IsEmptyValue classifies a cell as empty: null, blank text, a placeholder
// such as "N/A", or an empty array or object.
func IsEmptyValue(v models.Value) bool {
	switch t := v.(type) {
	case nil, models.Null:
		return true
	case models.String:
		text := strings.ToLower(strings.TrimSpace(string(t)))
		if text == "" {
			return true
		}
		_, marker := emptyMarkers[text]
		return marker
	case models.Array:
		return len(t) == 0
	case *models.Object:
		return t.Len() == 0
	default:
		return false
	}
}

// IncomingData returns the drill-down value of row: the first key equal to
// "incomingdata" ignoring case. ok is false when there is no such key, or
// its value is null, an empty string or an empty array.
func IncomingData(row *models.Object) (models.Value, bool) {
	var value models.Value
	found := false
	row.Range(func(key string, v models.Value) bool {
		if isDrillDownKey(key) {
			value, found = v, true
			return false
		}
		return true
	})
	if !found {
		return nil, false
	}
	switch t := value.(type) {
	case nil, models.Null:
		return nil, false
	case models.String:
		if t == "" {
			return nil, false
		}
	case models.Array:
		if len(t) == 0 {
			return nil, false
		}
	}
	return value, true
}

func isDrillDownKey(key string) bool {
	return strings.EqualFold(key, DrillDownKey)
}
