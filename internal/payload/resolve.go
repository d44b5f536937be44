package payload

import (
	"strings"

	"github.com/mcncl/editrack/internal/models"
)

// Fields are the three values a report is built from. Any of them may be nil.
type Fields struct {
	Output models.Value
	Boomi  models.Value
	MFT    models.Value
}

// Candidates holds the three places a field can be found, highest priority first.
type Candidates struct {
	Merged    *models.Object
	Unwrapped *models.Object
	Raw       models.Value
}

// Resolve parses raw once and resolves output, boomi and mft from it.
func (r *Resolver) Resolve(raw models.Value) Fields {
	c := r.Candidates(raw)
	return Fields{
		Output: r.ResolveField(c, KeyOutput),
		Boomi:  r.ResolveField(c, KeyBoomi),
		MFT:    r.ResolveField(c, KeyMFT),
	}
}

// Candidates computes the merged and unwrapped views of raw.
func (r *Resolver) Candidates(raw models.Value) Candidates {
	data := r.Parse(raw)
	unwrapped := r.Unwrap(data)
	if unwrapped == nil {
		unwrapped = models.NewObject()
	}
	return Candidates{
		Merged:    r.Merge(data),
		Unwrapped: unwrapped,
		Raw:       data,
	}
}

// ResolveField returns the first non-empty value for key from the merged
// view, then the unwrapped view, then a deep search of the raw payload.
// The deep search only runs when both views come up empty.
func (r *Resolver) ResolveField(c Candidates, key string) models.Value {
	if v, ok := c.Merged.Get(key); ok && !IsEmpty(v) {
		return v
	}
	if v, ok := c.Unwrapped.Get(key); ok && !IsEmpty(v) {
		return v
	}
	if v := r.Extract(c.Raw, key); !IsEmpty(v) {
		return v
	}
	return nil
}

// IsEmpty reports whether v is unusable as a resolved field: absent, null,
// a blank string or an empty container. Zero and false are values.
func IsEmpty(v models.Value) bool {
	switch t := v.(type) {
	case nil, models.Null:
		return true
	case models.String:
		return strings.TrimSpace(string(t)) == ""
	case models.Array:
		return len(t) == 0
	case *models.Object:
		return t.Len() == 0
	default:
		return false
	}
}
