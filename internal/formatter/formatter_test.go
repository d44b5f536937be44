package formatter

import (
	"strings"
	"testing"

	"github.com/mcncl/editrack/internal/config"
	"github.com/mcncl/editrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCell(t *testing.T) {
	f := NewFormatter()

	tests := []struct {
		name     string
		input    models.Value
		expected string
	}{
		{name: "absent", input: nil, expected: "NA"},
		{name: "null", input: models.Null{}, expected: "NA"},
		{name: "short string", input: models.String("ok"), expected: "ok"},
		{name: "empty string", input: models.String(""), expected: ""},
		{name: "number keeps literal", input: models.Number("1.50"), expected: "1.50"},
		{name: "true", input: models.Bool(true), expected: "true"},
		{name: "false", input: models.Bool(false), expected: "false"},
		{name: "empty array", input: models.Array{}, expected: "[]..."},
		{
			name:     "object",
			input:    models.ObjectOf("a", models.Number("1"), "b", models.String("x")),
			expected: `{"a": 1, "b": "x"}...`,
		},
		{
			name:     "array of mixed values",
			input:    models.Array{models.Null{}, models.Bool(true), models.String("y")},
			expected: `[null, true, "y"]...`,
		},
		{
			name:     "non-ascii is escaped",
			input:    models.ObjectOf("name", models.String("café")),
			expected: `{"name": "caf\u00e9"}...`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, f.Cell(tt.input))
		})
	}
}

func TestCell_Bounds(t *testing.T) {
	f := NewFormatter()

	long := strings.Repeat("a", 250)
	out := f.Cell(models.String(long))
	assert.Len(t, out, 203)
	assert.Equal(t, strings.Repeat("a", 200)+"...", out)

	exact := strings.Repeat("b", 200)
	assert.Equal(t, exact, f.Cell(models.String(exact)))

	// Width is counted in characters, not bytes.
	wide := strings.Repeat("é", 201)
	assert.Equal(t, strings.Repeat("é", 200)+"...", f.Cell(models.String(wide)))

	items := make(models.Array, 100)
	for i := range items {
		items[i] = models.String("item")
	}
	structured := f.Cell(items)
	assert.Len(t, structured, 203)
	assert.True(t, strings.HasPrefix(structured, `["item", "item"`))
	assert.True(t, strings.HasSuffix(structured, "..."))
}

func TestCell_ConfiguredWidth(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Normalize.CellWidth = 5
	f := NewFormatterWithConfig(cfg)

	assert.Equal(t, "abcde...", f.Cell(models.String("abcdefgh")))
	assert.Equal(t, "abcde", f.Cell(models.String("abcde")))
	assert.Equal(t, `{"a":...`, f.Cell(models.ObjectOf("a", models.Number("12345"))))
}

func TestEncodeASCII(t *testing.T) {
	tests := []struct {
		name     string
		input    models.Value
		expected string
	}{
		{name: "null", input: models.Null{}, expected: "null"},
		{name: "absent", input: nil, expected: "null"},
		{name: "escapes", input: models.String("a\"b\\c\nd\te"), expected: `"a\"b\\c\nd\te"`},
		{name: "control character", input: models.String("\x01"), expected: `"\u0001"`},
		{name: "latin", input: models.String("ü"), expected: `"\u00fc"`},
		{name: "astral plane", input: models.String("😀"), expected: `"\ud83d\ude00"`},
		{name: "html is not escaped", input: models.String("<a&b>"), expected: `"<a&b>"`},
		{
			name: "nested keeps key order",
			input: models.ObjectOf(
				"z", models.Array{models.Number("1"), models.Number("2")},
				"a", models.ObjectOf("k", models.Bool(false)),
			),
			expected: `{"z": [1, 2], "a": {"k": false}}`,
		},
		{name: "empty object", input: models.NewObject(), expected: "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EncodeASCII(tt.input))
		})
	}
}

func TestEncodeASCII_Stable(t *testing.T) {
	v := models.ObjectOf("b", models.Number("2"), "a", models.Number("1"))
	first := EncodeASCII(v)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, EncodeASCII(v))
	}
}

func TestHeader(t *testing.T) {
	tests := []struct {
		headerCase string
		column     string
		expected   string
	}{
		{headerCase: config.HeaderCaseRaw, column: "DocumentId", expected: "DocumentId"},
		{headerCase: config.HeaderCaseSnake, column: "DocumentId", expected: "document_id"},
		{headerCase: config.HeaderCaseCamel, column: "document_id", expected: "DocumentId"},
		{headerCase: config.HeaderCaseKebab, column: "DocumentId", expected: "document-id"},
		{headerCase: config.HeaderCaseScream, column: "documentId", expected: "DOCUMENT_ID"},
	}

	for _, tt := range tests {
		t.Run(tt.headerCase, func(t *testing.T) {
			cfg := config.NewConfig()
			cfg.Display.HeaderCase = tt.headerCase
			f := NewFormatterWithConfig(cfg)
			assert.Equal(t, tt.expected, f.Header(tt.column))
		})
	}
}

func TestSummary(t *testing.T) {
	f := NewFormatter()

	out, err := f.Summary(nil)
	require.NoError(t, err)
	assert.Equal(t, "NA", out)

	out, err = f.Summary(models.String("  Delivered to partner  \n"))
	require.NoError(t, err)
	assert.Equal(t, "Delivered to partner", out)

	out, err = f.Summary(models.ObjectOf("status", models.String("ok")))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"status\": \"ok\"\n}", out)
}

func TestPrettyJSON(t *testing.T) {
	out, err := PrettyJSON(models.ObjectOf("b", models.String("<x>"), "a", models.Array{}))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"b\": \"<x>\",\n  \"a\": []\n}", out)
}
