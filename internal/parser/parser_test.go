package parser

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mcncl/editrack/internal/errors"
	"github.com/mcncl/editrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SimpleObject(t *testing.T) {
	jsonStr := `{"name": "DOC-000185", "count": 30, "ok": false, "note": null}`
	ir, err := Parse(strings.NewReader(jsonStr), Options{})
	require.NoError(t, err)

	assert.False(t, ir.RootIsArray)
	obj, ok := ir.Root.(*models.Object)
	require.True(t, ok, "root should be an object, got %T", ir.Root)

	assert.Equal(t, []string{"name", "count", "ok", "note"}, obj.Keys())
	name, _ := obj.Get("name")
	assert.Equal(t, models.String("DOC-000185"), name)
	count, _ := obj.Get("count")
	assert.Equal(t, models.Number("30"), count)
	okVal, _ := obj.Get("ok")
	assert.Equal(t, models.Bool(false), okVal)
	note, _ := obj.Get("note")
	assert.Equal(t, models.Null{}, note)
}

func TestParse_SimpleArray(t *testing.T) {
	ir, err := Parse(strings.NewReader(`[1, "test", true, null, 3.14]`), Options{})
	require.NoError(t, err)

	assert.True(t, ir.RootIsArray)
	assert.Equal(t, models.Array{
		models.Number("1"),
		models.String("test"),
		models.Bool(true),
		models.Null{},
		models.Number("3.14"),
	}, ir.Root)
}

func TestParse_PreservesKeyOrder(t *testing.T) {
	ir, err := Parse(strings.NewReader(`{"z": 1, "a": {"y": 2, "b": 3}, "m": [ {"q": 1, "c": 2} ]}`), Options{})
	require.NoError(t, err)

	assert.Equal(t, `{"z":1,"a":{"y":2,"b":3},"m":[{"q":1,"c":2}]}`, models.Compact(ir.Root))
}

func TestParse_DuplicateKeyKeepsFirstPositionAndLastValue(t *testing.T) {
	ir, err := Parse(strings.NewReader(`{"a": 1, "b": 2, "a": 3}`), Options{})
	require.NoError(t, err)

	assert.Equal(t, `{"a":3,"b":2}`, models.Compact(ir.Root))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "empty", input: "", wantErr: errors.ErrEmptyInput},
		{name: "whitespace", input: "   \n\t", wantErr: errors.ErrEmptyInput},
		{name: "syntax error", input: `{"invalid": json}`, wantErr: errors.ErrInvalidJSON},
		{name: "truncated object", input: `{"a": 1`, wantErr: errors.ErrInvalidJSON},
		{name: "truncated array", input: `[1, 2`, wantErr: errors.ErrInvalidJSON},
		{name: "multiple values", input: `{"a": 1} {"b": 2}`, wantErr: errors.ErrMultipleJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input), Options{})
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, tt.wantErr), "got %v", err)

			var appErr *errors.AppError
			require.True(t, stderrors.As(err, &appErr))
			assert.Equal(t, errors.ErrorTypeParsing, appErr.Type)
		})
	}
}

func TestParse_TrailingWhitespaceAllowed(t *testing.T) {
	ir, err := Parse(strings.NewReader("{\"a\": 1}\n\n  "), Options{})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, models.Compact(ir.Root))
}

func TestParse_MaxDepth(t *testing.T) {
	deep := strings.Repeat("[", 5) + strings.Repeat("]", 5)

	_, err := Parse(strings.NewReader(deep), Options{MaxDepth: 5})
	require.NoError(t, err)

	_, err = Parse(strings.NewReader(deep), Options{MaxDepth: 4})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrTooDeep))
}

func TestParse_DefaultMaxDepthRejectsAdversarialNesting(t *testing.T) {
	deep := strings.Repeat(`{"data":`, DefaultMaxDepth+1) + "1" + strings.Repeat("}", DefaultMaxDepth+1)

	_, err := Parse(strings.NewReader(deep), Options{})
	assert.True(t, stderrors.Is(err, errors.ErrTooDeep))
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(strings.NewReader("  \n "), Options{})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrEmptyInput))
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "response.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"data": [{"output": "ok"}]}`), 0o644))

		ir, err := ParseFile(path, Options{})
		require.NoError(t, err)
		assert.False(t, ir.RootIsArray)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ParseFile(filepath.Join(dir, "missing.json"), Options{})
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, errors.ErrFileNotFound))
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(dir, "empty.json")
		require.NoError(t, os.WriteFile(path, nil, 0o644))

		_, err := ParseFile(path, Options{})
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, errors.ErrFileEmpty))
	})

	t.Run("blank path", func(t *testing.T) {
		_, err := ParseFile(" ", Options{})
		assert.True(t, stderrors.Is(err, errors.ErrInvalidFilePath))
	})
}

func TestDecode(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		v, err := Decode(`[{"id": 1}]`, Options{})
		require.NoError(t, err)
		assert.Equal(t, `[{"id":1}]`, models.Compact(v))
	})

	t.Run("malformed without repair", func(t *testing.T) {
		_, err := Decode(`{id: 1,}`, Options{})
		assert.Error(t, err)
	})

	t.Run("malformed with repair", func(t *testing.T) {
		v, err := Decode(`{id: 1, 'name': 'x',}`, Options{Repair: true})
		require.NoError(t, err)
		assert.Equal(t, `{"id":1,"name":"x"}`, models.Compact(v))
	})

	t.Run("too deep is never repaired", func(t *testing.T) {
		_, err := Decode(`[[[1]]]`, Options{MaxDepth: 2, Repair: true})
		assert.True(t, stderrors.Is(err, errors.ErrTooDeep))
	})
}

func TestDecodeBytes_Empty(t *testing.T) {
	_, err := DecodeBytes([]byte("  "), Options{})
	assert.True(t, stderrors.Is(err, errors.ErrEmptyInput))
}
