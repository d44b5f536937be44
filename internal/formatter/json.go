package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/mcncl/editrack/internal/models"
)

const hexDigits = "0123456789abcdef"

// EncodeASCII serialises v as single-line JSON restricted to printable ASCII:
// ", " and ": " separators, keys in their original order, and every
// character outside 0x20-0x7e escaped as \uXXXX (surrogate pairs above the BMP).
// The output for a given value never changes between runs.
func EncodeASCII(v models.Value) string {
	var b strings.Builder
	encodeASCII(&b, v)
	return b.String()
}

func encodeASCII(b *strings.Builder, v models.Value) {
	switch t := v.(type) {
	case nil, models.Null:
		b.WriteString("null")
	case models.Bool:
		if t {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case models.Number:
		b.WriteString(string(t))
	case models.String:
		quoteASCII(b, string(t))
	case models.Array:
		b.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				b.WriteString(", ")
			}
			encodeASCII(b, item)
		}
		b.WriteByte(']')
	case *models.Object:
		b.WriteByte('{')
		first := true
		t.Range(func(key string, value models.Value) bool {
			if !first {
				b.WriteString(", ")
			}
			first = false
			quoteASCII(b, key)
			b.WriteString(": ")
			encodeASCII(b, value)
			return true
		})
		b.WriteByte('}')
	default:
		// Unknown variants are stringified.
		quoteASCII(b, fmt.Sprintf("%v", t))
	}
}

func quoteASCII(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			switch {
			case r >= 0x20 && r <= 0x7e:
				b.WriteRune(r)
			case r > 0xffff:
				hi, lo := utf16.EncodeRune(r)
				writeUnicodeEscape(b, hi)
				writeUnicodeEscape(b, lo)
			default:
				writeUnicodeEscape(b, r)
			}
		}
	}
	b.WriteByte('"')
}

func writeUnicodeEscape(b *strings.Builder, r rune) {
	b.WriteString(`\u`)
	b.WriteByte(hexDigits[(r>>12)&0xf])
	b.WriteByte(hexDigits[(r>>8)&0xf])
	b.WriteByte(hexDigits[(r>>4)&0xf])
	b.WriteByte(hexDigits[r&0xf])
}

// PrettyJSON renders v as two-space indented JSON without HTML escaping.
func PrettyJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
