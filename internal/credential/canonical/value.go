// Package canonical reproduces the serialization and digest used when a credential
// payload is anchored on the ledger.
//
// Payloads are hashed as keccak256(JSON.stringify(payload)). Reproducing that
// digest bit-for-bit requires parsing content into an order-preserving tree and
// writing it back exactly as JSON.stringify would.
//
// Values are one of: nil, bool, float64, string, []Value or *Object.
package canonical

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// Value is a parsed JSON value.
type Value = any

// Object is a JSON object that keeps ECMAScript own-property order:
// array-index keys first in ascending numeric order, then the remaining keys
// in insertion order.
type Object struct {
	keys   []string
	values map[string]Value
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

// Set adds or replaces a member. Replacing keeps the member's original position.
func (o *Object) Set(key string, v Value) *Object {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
	return o
}

// Get returns the member value and whether it is present.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Has reports whether the member is present.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Len returns the number of members.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns member names in ECMAScript property order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	var indices []string
	named := make([]string, 0, len(o.keys))
	for _, k := range o.keys {
		if isArrayIndex(k) {
			indices = append(indices, k)
			continue
		}
		named = append(named, k)
	}
	if len(indices) == 0 {
		return named
	}
	slices.SortFunc(indices, func(a, b string) int {
		if c := cmp.Compare(len(a), len(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return append(indices, named...)
}

// Without returns a copy of the object minus the named members, order kept.
func (o *Object) Without(drop ...string) *Object {
	out := NewObject()
	for _, k := range o.Keys() {
		if slices.Contains(drop, k) {
			continue
		}
		out.Set(k, o.values[k])
	}
	return out
}

// isArrayIndex reports whether k is a canonical numeric string in [0, 2^32-2].
func isArrayIndex(k string) bool {
	if k == "" || len(k) > 10 {
		return false
	}
	if len(k) > 1 && k[0] == '0' {
		return false
	}
	for i := 0; i < len(k); i++ {
		if k[i] < '0' || k[i] > '9' {
			return false
		}
	}
	n, err := strconv.ParseUint(k, 10, 64)
	return err == nil && n < 1<<32-1
}
