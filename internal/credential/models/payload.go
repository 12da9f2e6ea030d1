package models

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"credo/internal/credential/canonical"
)

// Shape tags the layout a stored payload was written in.
type Shape int

const (
	// ShapeFlat is a bare payload object.
	ShapeFlat Shape = iota
	// ShapeEnveloped wraps the payload as {"credential": {...}}.
	ShapeEnveloped
)

func (s Shape) String() string {
	switch s {
	case ShapeFlat:
		return "flat"
	case ShapeEnveloped:
		return "enveloped"
	}
	return fmt.Sprintf("shape(%d)", int(s))
}

// Fields that are internal to issuance and never disclosed.
const (
	FieldIssuedTo  = "issuedTo"
	FieldTimestamp = "timestamp"
	FieldEnvelope  = "credential"
)

// InternalFields lists members removed by selective disclosure.
var InternalFields = []string{FieldIssuedTo, FieldTimestamp}

// Payload is a credential payload with its shape resolved.
type Payload struct {
	Shape  Shape
	Fields *canonical.Object
}

// shapeDetectors are tried in order; the first match wins and ShapeFlat is the fallback.
var shapeDetectors = []struct {
	shape  Shape
	unwrap func(root *canonical.Object) (*canonical.Object, bool)
}{
	{
		shape: ShapeEnveloped,
		unwrap: func(root *canonical.Object) (*canonical.Object, bool) {
			v, ok := root.Get(FieldEnvelope)
			if !ok {
				return nil, false
			}
			inner, ok := v.(*canonical.Object)
			return inner, ok
		},
	},
}

// DetectShape resolves which layout root was stored in and returns the payload fields.
// A root that is not an object is rejected.
func DetectShape(root canonical.Value) (Payload, error) {
	obj, ok := root.(*canonical.Object)
	if !ok || obj == nil {
		return Payload{}, fmt.Errorf("credential payload is not a JSON object")
	}
	for _, d := range shapeDetectors {
		if inner, ok := d.unwrap(obj); ok {
			return Payload{Shape: d.shape, Fields: inner}, nil
		}
	}
	return Payload{Shape: ShapeFlat, Fields: obj}, nil
}

// DisclosedView is a payload minus its internal fields, in payload order.
// Values are kept as parsed; DisplayEntries applies browser-style coercion.
type DisclosedView struct {
	fields *canonical.Object
}

// NewDisclosedView wraps an already filtered object.
func NewDisclosedView(fields *canonical.Object) DisclosedView {
	if fields == nil {
		fields = canonical.NewObject()
	}
	return DisclosedView{fields: fields}
}

// Entry is one disclosed member.
type Entry struct {
	Key     string          `json:"key"`
	Value   canonical.Value `json:"-"`
	Display string          `json:"display"`
}

func (v DisclosedView) Keys() []string { return v.fields.Keys() }

func (v DisclosedView) Len() int { return v.fields.Len() }

func (v DisclosedView) Get(key string) (canonical.Value, bool) { return v.fields.Get(key) }

// Entries returns members in order with their display strings.
func (v DisclosedView) Entries() []Entry {
	keys := v.Keys()
	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		val, _ := v.fields.Get(k)
		out = append(out, Entry{Key: k, Value: val, Display: canonical.Display(val)})
	}
	return out
}

// MarshalJSON writes the view as an object with member order preserved.
func (v DisclosedView) MarshalJSON() ([]byte, error) {
	if v.fields == nil {
		return []byte("{}"), nil
	}
	return canonical.Stringify(v.fields)
}

// StandardFields are the disclosable members the dashboard issues.
type StandardFields struct {
	Name string `mapstructure:"name" json:"name,omitempty"`
	Type string `mapstructure:"type" json:"type,omitempty"`
	Year string `mapstructure:"year" json:"year,omitempty"`
}

// Standard decodes the well-known members, coerced to display strings.
// Missing members stay empty; unknown members are ignored.
func (v DisclosedView) Standard() (StandardFields, error) {
	var out StandardFields
	raw := make(map[string]any, v.Len())
	for _, e := range v.Entries() {
		raw[e.Key] = e.Display
	}
	if err := mapstructure.Decode(raw, &out); err != nil {
		return StandardFields{}, fmt.Errorf("decode standard fields: %w", err)
	}
	return out, nil
}

var _ json.Marshaler = DisclosedView{}
