package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strconv"
)

// MarshalJSON encodes null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// MarshalJSON emits the number literal unchanged.
func (n Number) MarshalJSON() ([]byte, error) {
	if n == "" {
		return []byte("0"), nil
	}
	return []byte(n), nil
}

// MarshalJSON encodes the object keeping key order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	var err error
	o.Range(func(key string, value Value) bool {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		var kb, vb []byte
		if kb, err = marshalNoEscape(key); err != nil {
			return false
		}
		if vb, err = marshalValue(value); err != nil {
			return false
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		return true
	})
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalValue(v Value) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return marshalNoEscape(v)
}

// marshalNoEscape is json.Marshal without HTML escaping and without the
// trailing newline an Encoder adds.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Compact returns the compact JSON text of v. Absent values encode as null.
func Compact(v Value) string {
	b, err := marshalValue(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// ToAny converts v into plain Go values (map[string]any, []any, int, *big.Int, float64,
// string, bool, nil) for libraries that work on generic JSON.
func ToAny(v Value) any {
	switch t := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(t)
	case Number:
		if i, err := strconv.ParseInt(string(t), 10, 64); err == nil {
			return int(i)
		}
		if bi, ok := new(big.Int).SetString(string(t), 10); ok {
			return bi
		}
		if f, err := strconv.ParseFloat(string(t), 64); err == nil {
			return f
		}
		return string(t)
	case String:
		return string(t)
	case Array:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = ToAny(item)
		}
		return out
	case *Object:
		out := make(map[string]any, t.Len())
		t.Range(func(key string, value Value) bool {
			out[key] = ToAny(value)
			return true
		})
		return out
	default:
		return nil
	}
}

// FromAny converts plain Go values back into a Value. Map keys are sorted
// because Go maps carry no order.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null{}
	case Value:
		return t
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case json.Number:
		return Number(t)
	case int:
		return Number(strconv.Itoa(t))
	case int64:
		return Number(strconv.FormatInt(t, 10))
	case float64:
		return Number(strconv.FormatFloat(t, 'f', -1, 64))
	case *big.Int:
		return Number(t.String())
	case []any:
		out := make(Array, len(t))
		for i, item := range t {
			out[i] = FromAny(item)
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(t))
		for key := range t {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, key := range keys {
			obj.Set(key, FromAny(t[key]))
		}
		return obj
	default:
		return String(fmt.Sprintf("%v", t))
	}
}
