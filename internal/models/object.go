package models

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is a JSON object that remembers key insertion order.
// Setting an existing key replaces its value but keeps its position.
type Object struct {
	m *orderedmap.OrderedMap[string, Value]
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{m: orderedmap.New[string, Value]()}
}

// ObjectOf builds an Object from alternating key/value pairs, mostly for tests.
func ObjectOf(pairs ...any) *Object {
	obj := NewObject()
	for i := 0; i+1 < len(pairs); i += 2 {
		key, _ := pairs[i].(string)
		val, _ := pairs[i+1].(Value)
		obj.Set(key, val)
	}
	return obj
}

func (o *Object) lazy() *orderedmap.OrderedMap[string, Value] {
	if o.m == nil {
		o.m = orderedmap.New[string, Value]()
	}
	return o.m
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil || o.m == nil {
		return 0
	}
	return o.m.Len()
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil || o.m == nil {
		return nil, false
	}
	return o.m.Get(key)
}

// Has reports whether key is present, regardless of its value.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Set stores value under key.
func (o *Object) Set(key string, value Value) {
	o.lazy().Set(key, value)
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, o.Len())
	o.Range(func(key string, _ Value) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Range calls fn for every entry in insertion order until fn returns false.
func (o *Object) Range(fn func(key string, value Value) bool) {
	if o == nil || o.m == nil {
		return
	}
	for pair := o.m.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Update copies every entry of other into o; entries of other win on collision.
func (o *Object) Update(other *Object) {
	other.Range(func(key string, value Value) bool {
		o.Set(key, value)
		return true
	})
}

// Clone returns a shallow copy of o.
func (o *Object) Clone() *Object {
	out := NewObject()
	out.Update(o)
	return out
}

// HasAny reports whether any of keys is present.
func (o *Object) HasAny(keys ...string) bool {
	for _, key := range keys {
		if o.Has(key) {
			return true
		}
	}
	return false
}
