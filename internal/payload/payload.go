// Package payload reconciles shape-drifting webhook responses into the
// handful of fields the report needs.
//
// Every function here is total: malformed embedded JSON, unexpected shapes
// and missing keys all degrade to "none" rather than an error.
package payload

import (
	"strings"

	"github.com/mcncl/editrack/internal/config"
	"github.com/mcncl/editrack/internal/models"
	"github.com/mcncl/editrack/internal/parser"
)

// Recognized keys
const (
	KeyOutput = "output"
	KeyActual = "actual"
	KeyBoomi  = "boomi"
	KeyMFT    = "mft"

	keyData = "data"
	keyJSON = "json"
	keyText = "text"
)

// RecognizedKeys mark an object as the one carrying the workflow result.
var RecognizedKeys = []string{KeyOutput, KeyActual, KeyBoomi, KeyMFT}

// Resolver locates the output/boomi/mft fields inside a raw payload.
type Resolver struct {
	maxDepth int
	repair   bool
}

// NewResolver creates a Resolver with default settings.
func NewResolver() *Resolver {
	return NewResolverWithConfig(config.NewConfig())
}

// NewResolverWithConfig creates a Resolver from the normalize section of cfg.
func NewResolverWithConfig(cfg *config.Config) *Resolver {
	r := &Resolver{
		maxDepth: parser.DefaultMaxDepth,
		repair:   cfg.Normalize.RepairJSON,
	}
	if cfg.Normalize.MaxDepth > 0 {
		r.maxDepth = cfg.Normalize.MaxDepth
	}
	return r
}

// Parse decodes v when it is a string holding a JSON object or array, or an
// object whose "text" field is a string. Anything else, including strings
// that fail to decode, comes back unchanged. The result of a successful
// decode is parsed again, so Parse(Parse(v)) == Parse(v).
func (r *Resolver) Parse(v models.Value) models.Value {
	return r.parse(v, 0)
}

func (r *Resolver) parse(v models.Value, depth int) models.Value {
	if depth > r.maxDepth {
		return v
	}
	switch t := v.(type) {
	case models.String:
		text := strings.TrimSpace(string(t))
		if !strings.HasPrefix(text, "{") && !strings.HasPrefix(text, "[") {
			return v
		}
		decoded, err := parser.Decode(text, parser.Options{MaxDepth: r.maxDepth, Repair: r.repair})
		if err != nil {
			return v
		}
		return r.parse(decoded, depth+1)
	case *models.Object:
		if text, ok := t.Get(keyText); ok {
			if s, ok := text.(models.String); ok {
				return r.parse(s, depth+1)
			}
		}
	}
	return v
}

// Extract searches depth-first for key, descending through "data" envelopes
// and array items. It returns nil when the key is nowhere to be found.
func (r *Resolver) Extract(v models.Value, key string) models.Value {
	return r.extract(v, key, 0)
}

func (r *Resolver) extract(v models.Value, key string, depth int) models.Value {
	if depth > r.maxDepth {
		return nil
	}
	switch t := r.Parse(v).(type) {
	case *models.Object:
		if found, ok := t.Get(key); ok {
			return found
		}
		if data, ok := t.Get(keyData); ok {
			return r.extract(data, key, depth+1)
		}
	case models.Array:
		for _, item := range t {
			if found := r.extract(item, key, depth+1); !models.IsNone(found) {
				return found
			}
		}
	}
	return nil
}

// Merge folds a chunked response into one object. The fragments are v itself
// when it is an array, or v.data when that is an array; later fragments win
// on key collisions. Anything else yields an empty object.
func (r *Resolver) Merge(v models.Value) *models.Object {
	merged := models.NewObject()

	var items models.Array
	switch t := r.Parse(v).(type) {
	case models.Array:
		items = t
	case *models.Object:
		if data, ok := t.Get(keyData); ok {
			items, _ = data.(models.Array)
		}
	}

	for _, item := range items {
		if obj, ok := r.Parse(item).(*models.Object); ok {
			merged.Update(obj)
		}
	}
	return merged
}

// Unwrap finds the object that carries one of RecognizedKeys, looking through
// "data" and "json" envelopes. For arrays, every item that unwraps to such an
// object is merged (later wins). It returns nil when nothing usable is found.
func (r *Resolver) Unwrap(v models.Value) *models.Object {
	return r.unwrap(v, 0)
}

func (r *Resolver) unwrap(v models.Value, depth int) *models.Object {
	if depth > r.maxDepth {
		return nil
	}
	switch t := r.Parse(v).(type) {
	case *models.Object:
		if t.HasAny(RecognizedKeys...) {
			return t
		}
		if data, ok := t.Get(keyData); ok {
			return r.unwrap(data, depth+1)
		}
		if inner, ok := t.Get(keyJSON); ok {
			if obj, ok := inner.(*models.Object); ok {
				return obj
			}
		}
		// No envelope we know of; hand the object back uninterpreted.
		return t
	case models.Array:
		merged := models.NewObject()
		found := false
		for _, item := range t {
			unwrapped := r.unwrap(item, depth+1)
			if unwrapped.Len() == 0 || !unwrapped.HasAny(RecognizedKeys...) {
				continue
			}
			merged.Update(unwrapped)
			found = true
		}
		if found {
			return merged
		}
	}
	return nil
}
