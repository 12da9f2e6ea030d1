package canonical

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrEmptyDocument is returned for empty or whitespace-only input.
var ErrEmptyDocument = errors.New("empty JSON document")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse decodes a single JSON document into an order-preserving Value.
//
// Duplicate member names keep the position of their first occurrence and the
// value of their last, as JSON.parse does. A leading UTF-8 byte order mark is
// ignored. Numbers become float64; literals beyond float64 range become ±Inf.
func Parse(data []byte) (Value, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDocument
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	p := &parser{data: data, dec: dec}

	v, err := p.value()
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after JSON document")
	}
	return v, nil
}

// ParseObject is Parse restricted to documents whose root is an object.
func ParseObject(data []byte) (*Object, error) {
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*Object)
	if !ok {
		return nil, fmt.Errorf("JSON document is %s, not an object", kindOf(v))
	}
	return obj, nil
}

type parser struct {
	data []byte
	dec  *json.Decoder
}

// token reads the next token. String literals escaping a UTF-16 surrogate are
// decoded again from source, because the decoder turns an unpaired surrogate
// into U+FFFD where JSON.parse keeps it.
func (p *parser) token() (json.Token, error) {
	start := p.dec.InputOffset()
	tok, err := p.dec.Token()
	if err != nil {
		return nil, err
	}
	s, ok := tok.(string)
	if !ok {
		return tok, nil
	}
	raw := bytes.TrimLeft(p.data[start:p.dec.InputOffset()], " \t\r\n,:")
	if !hasSurrogateEscape(raw) {
		return s, nil
	}
	if u, ok := unquote(raw); ok {
		return u, nil
	}
	return s, nil
}

func (p *parser) value() (Value, error) {
	tok, err := p.token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return p.object()
		case '[':
			return p.array()
		}
		return nil, fmt.Errorf("unexpected delimiter %q", t)
	case json.Number:
		return parseNumber(t)
	case string, bool, nil:
		return t, nil
	}
	return nil, fmt.Errorf("unexpected token %T", tok)
}

func (p *parser) object() (*Object, error) {
	obj := NewObject()
	for p.dec.More() {
		keyTok, err := p.token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is %T, not a string", keyTok)
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		obj.Set(key, v)
	}
	if _, err := p.dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func (p *parser) array() ([]Value, error) {
	arr := make([]Value, 0)
	for p.dec.More() {
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	if _, err := p.dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}

func parseNumber(n json.Number) (float64, error) {
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return f, nil
		}
		return 0, fmt.Errorf("invalid number %q: %w", n, err)
	}
	return f, nil
}

func kindOf(v Value) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case float64:
		return "a number"
	case string:
		return "a string"
	case []Value:
		return "an array"
	case *Object:
		return "an object"
	}
	return fmt.Sprintf("%T", v)
}
