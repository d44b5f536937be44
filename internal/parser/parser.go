package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	stderrors "errors" // Standard errors package

	"github.com/kaptinlin/jsonrepair"
	"github.com/mcncl/editrack/internal/errors" // Custom errors package
	"github.com/mcncl/editrack/internal/models"
)

// DefaultMaxDepth bounds container nesting accepted by the decoder.
const DefaultMaxDepth = 64

// Options controls decoding.
type Options struct {
	// MaxDepth is the deepest container nesting accepted; <= 0 means DefaultMaxDepth.
	MaxDepth int
	// Repair retries a failed decode once after running the text through jsonrepair.
	Repair bool
}

func (o Options) maxDepth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

// Parse converts JSON data from an io.Reader into an IntermediateRepresentation.
// Repair is not applied here: a top-level payload either decodes or is
// reported as invalid.
func Parse(reader io.Reader, opts Options) (models.IntermediateRepresentation, error) {
	rootValue, err := decodeStream(reader, opts.maxDepth())
	if err != nil {
		return models.IntermediateRepresentation{}, wrapDecodeError(err)
	}

	_, isArray := rootValue.(models.Array)
	return models.IntermediateRepresentation{
		Root:        rootValue,
		RootIsArray: isArray,
	}, nil
}

// ParseFile parses the JSON document stored at filePath.
func ParseFile(filePath string, opts Options) (models.IntermediateRepresentation, error) {
	if strings.TrimSpace(filePath) == "" {
		return models.IntermediateRepresentation{}, errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return models.IntermediateRepresentation{}, errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return models.IntermediateRepresentation{}, errors.NewInputError(
			fmt.Sprintf("failed to open file '%s'", filePath),
			err,
		)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing file: %v\n", err)
		}
	}()

	stat, err := file.Stat()
	if err != nil {
		return models.IntermediateRepresentation{}, errors.NewInputError(
			fmt.Sprintf("failed to get file stats for '%s'", filePath),
			err,
		)
	}
	if stat.Size() == 0 {
		return models.IntermediateRepresentation{}, errors.NewInputError(
			fmt.Sprintf("input file '%s' is empty", filePath),
			errors.ErrFileEmpty,
		)
	}

	return Parse(file, opts)
}

// Decode decodes a single JSON document held in text. It is used for JSON
// embedded in string fields, so it returns plain errors and callers decide
// whether a failure matters.
func Decode(text string, opts Options) (models.Value, error) {
	value, err := decodeStream(strings.NewReader(text), opts.maxDepth())
	if err == nil || !opts.Repair || stderrors.Is(err, errors.ErrTooDeep) {
		return value, err
	}

	repaired, repairErr := jsonrepair.JSONRepair(text)
	if repairErr != nil {
		return nil, fmt.Errorf("%w (repair failed: %v)", err, repairErr)
	}
	return decodeStream(strings.NewReader(repaired), opts.maxDepth())
}

// DecodeBytes is Decode for a byte slice.
func DecodeBytes(data []byte, opts Options) (models.Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.ErrEmptyInput
	}
	return Decode(string(data), opts)
}

// decodeStream reads exactly one JSON value from reader.
func decodeStream(reader io.Reader, maxDepth int) (models.Value, error) {
	decoder := json.NewDecoder(reader)
	decoder.UseNumber() // Keep number literals intact

	rootValue, err := decodeValue(decoder, 0, maxDepth)
	if err != nil {
		return nil, err
	}

	// Only whitespace may follow the first value.
	if _, err := decoder.Token(); err != io.EOF {
		if err == nil {
			return nil, errors.ErrMultipleJSON
		}
		return nil, fmt.Errorf("invalid trailing data after first JSON value: %w", err)
	}
	return rootValue, nil
}

func decodeValue(decoder *json.Decoder, depth, maxDepth int) (models.Value, error) {
	tok, err := decoder.Token()
	if err != nil {
		if depth > 0 {
			return nil, unexpectedEOF(err)
		}
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		if depth >= maxDepth {
			return nil, errors.ErrTooDeep
		}
		switch t {
		case '{':
			return decodeObject(decoder, depth, maxDepth)
		case '[':
			return decodeArray(decoder, depth, maxDepth)
		}
		return nil, fmt.Errorf("unexpected delimiter %q", t)
	case nil:
		return models.Null{}, nil
	case bool:
		return models.Bool(t), nil
	case json.Number:
		return models.Number(t), nil
	case string:
		return models.String(t), nil
	default:
		return nil, fmt.Errorf("unexpected JSON token %T", t)
	}
}

func decodeObject(decoder *json.Decoder, depth, maxDepth int) (models.Value, error) {
	obj := models.NewObject()
	for decoder.More() {
		keyTok, err := decoder.Token()
		if err != nil {
			return nil, unexpectedEOF(err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is %T, not a string", keyTok)
		}
		value, err := decodeValue(decoder, depth+1, maxDepth)
		if err != nil {
			return nil, err
		}
		obj.Set(key, value)
	}
	// Closing '}'
	if _, err := decoder.Token(); err != nil {
		return nil, unexpectedEOF(err)
	}
	return obj, nil
}

func decodeArray(decoder *json.Decoder, depth, maxDepth int) (models.Value, error) {
	arr := models.Array{}
	for decoder.More() {
		value, err := decodeValue(decoder, depth+1, maxDepth)
		if err != nil {
			return nil, err
		}
		arr = append(arr, value)
	}
	// Closing ']'
	if _, err := decoder.Token(); err != nil {
		return nil, unexpectedEOF(err)
	}
	return arr, nil
}

// unexpectedEOF reports running out of input inside a container.
func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// wrapDecodeError maps raw decoder failures onto the application's parsing errors.
func wrapDecodeError(err error) error {
	if stderrors.Is(err, io.EOF) {
		return errors.NewParsingError("input is empty or contains only whitespace", errors.ErrEmptyInput)
	}
	if stderrors.Is(err, errors.ErrTooDeep) {
		return errors.NewParsingError("JSON nesting is too deep", errors.ErrTooDeep)
	}
	if stderrors.Is(err, errors.ErrMultipleJSON) {
		return errors.NewParsingError("multiple JSON values found at the root", errors.ErrMultipleJSON)
	}
	var syntaxError *json.SyntaxError
	if stderrors.As(err, &syntaxError) {
		return errors.NewParsingError(
			fmt.Sprintf("JSON syntax error at offset %d", syntaxError.Offset),
			errors.ErrInvalidJSON,
		)
	}
	if stderrors.Is(err, io.ErrUnexpectedEOF) {
		return errors.NewParsingError("unexpected end of JSON input", errors.ErrInvalidJSON)
	}
	return errors.NewParsingError("failed to decode JSON", err)
}
