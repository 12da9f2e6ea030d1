package canonical

import (
	"encoding/hex"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const alicePayload = `{"name":"Alice","type":"Degree","year":"2020","issuedTo":"0xabc","timestamp":"2024-01-01T00:00:00Z"}`

type CanonicalSuite struct {
	suite.Suite
}

func TestCanonicalSuite(t *testing.T) {
	suite.Run(t, new(CanonicalSuite))
}

func (s *CanonicalSuite) TestKeccak256KnownVectors() {
	empty := Keccak256(nil)
	s.Equal("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", hex.EncodeToString(empty[:]))

	abc := Keccak256([]byte("abc"))
	s.Equal("4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45", hex.EncodeToString(abc[:]))
}

func (s *CanonicalSuite) TestDigestMatchesIssuerHash() {
	s.Run("parse then digest equals keccak of the issued string", func() {
		v, err := Parse([]byte(alicePayload))
		s.Require().NoError(err)

		d, err := Digest(ECMAScript, v)
		s.Require().NoError(err)
		s.Equal("6a308fe061ea4af115c49a5d1103cdf2014014fce2d2d5fffcfcaacb5f7020ab", hex.EncodeToString(d[:]))
	})

	s.Run("whitespace in stored content does not change the digest", func() {
		pretty := "{\n  \"name\": \"Alice\",\n  \"type\": \"Degree\",\n  \"year\": \"2020\",\n  \"issuedTo\": \"0xabc\",\n  \"timestamp\": \"2024-01-01T00:00:00Z\"\n}\n"
		v, err := Parse([]byte(pretty))
		s.Require().NoError(err)

		d, err := Digest(ECMAScript, v)
		s.Require().NoError(err)
		s.Equal("6a308fe061ea4af115c49a5d1103cdf2014014fce2d2d5fffcfcaacb5f7020ab", hex.EncodeToString(d[:]))
	})

	s.Run("changed field changes the digest", func() {
		v, err := Parse([]byte(`{"name":"Alice","type":"Degree","year":"2021","issuedTo":"0xabc","timestamp":"2024-01-01T00:00:00Z"}`))
		s.Require().NoError(err)

		d, err := Digest(ECMAScript, v)
		s.Require().NoError(err)
		s.Equal("f647382a5e9f6a0279d8c07bd1b8a95ae8876ed1506f5ef802feb1c9dd49666e", hex.EncodeToString(d[:]))
	})

	s.Run("jcs sorts members before hashing", func() {
		v, err := Parse([]byte(alicePayload))
		s.Require().NoError(err)

		d, err := Digest(JCS, v)
		s.Require().NoError(err)
		s.Equal("4ba86e690e7988940ca443f642829e3cb1fda003d24c68d812ffdc7a204bff9a", hex.EncodeToString(d[:]))
	})

	s.Run("constructed payload hashes like the parsed one", func() {
		obj := NewObject().
			Set("name", "Alice").
			Set("type", "Degree").
			Set("year", "2020").
			Set("issuedTo", "0xabc").
			Set("timestamp", "2024-01-01T00:00:00Z")

		d, err := Digest(ECMAScript, obj)
		s.Require().NoError(err)
		s.Equal("6a308fe061ea4af115c49a5d1103cdf2014014fce2d2d5fffcfcaacb5f7020ab", hex.EncodeToString(d[:]))
	})
}

func (s *CanonicalSuite) TestParse() {
	s.Run("round trips in property order", func() {
		v, err := Parse([]byte(alicePayload))
		s.Require().NoError(err)
		out, err := Stringify(v)
		s.Require().NoError(err)
		s.Equal(alicePayload, string(out))
	})

	s.Run("array index keys come first in numeric order", func() {
		v, err := Parse([]byte(`{"b":1,"2":2,"a":3,"1":4,"01":5,"4294967295":6,"4294967294":7}`))
		s.Require().NoError(err)
		out, err := Stringify(v)
		s.Require().NoError(err)
		s.Equal(`{"1":4,"2":2,"4294967294":7,"b":1,"a":3,"01":5,"4294967295":6}`, string(out))
	})

	s.Run("duplicate keys keep first position and last value", func() {
		v, err := Parse([]byte(`{"a":1,"b":2,"a":3}`))
		s.Require().NoError(err)
		out, err := Stringify(v)
		s.Require().NoError(err)
		s.Equal(`{"a":3,"b":2}`, string(out))
	})

	s.Run("numbers follow float64 semantics", func() {
		v, err := Parse([]byte(`[1e400,-1e400,1e-400, 1.0, 10.50, -0]`))
		s.Require().NoError(err)
		out, err := Stringify(v)
		s.Require().NoError(err)
		s.Equal(`[null,null,0,1,10.5,0]`, string(out))
	})

	s.Run("leading byte order mark is ignored", func() {
		v, err := Parse(append([]byte{0xEF, 0xBB, 0xBF}, []byte(`{"a":"b"}`)...))
		s.Require().NoError(err)
		obj, ok := v.(*Object)
		s.Require().True(ok)
		s.Equal([]string{"a"}, obj.Keys())
	})

	s.Run("non-object roots parse", func() {
		v, err := Parse([]byte(` "hello" `))
		s.Require().NoError(err)
		s.Equal("hello", v)
	})
}

func (s *CanonicalSuite) TestParseRejects() {
	cases := map[string]string{
		"empty":            "",
		"whitespace":       " \n\t ",
		"bom only":         "\xEF\xBB\xBF",
		"html error page":  "<html><body>504 Gateway Time-out</body></html>",
		"truncated object": `{"name":"Alice"`,
		"trailing data":    `{"a":1} {"b":2}`,
		"trailing garbage": `{"a":1}x`,
		"single quotes":    `{'a':1}`,
		"bare word":        `undefined`,
	}
	for name, input := range cases {
		s.Run(name, func() {
			_, err := Parse([]byte(input))
			s.Error(err)
		})
	}

	s.Run("empty input reports ErrEmptyDocument", func() {
		_, err := Parse([]byte("   "))
		s.ErrorIs(err, ErrEmptyDocument)
	})
}

func (s *CanonicalSuite) TestParseObject() {
	_, err := ParseObject([]byte(`[1,2]`))
	s.ErrorContains(err, "an array, not an object")

	obj, err := ParseObject([]byte(`{"x":{"y":[true,null]}}`))
	s.Require().NoError(err)
	inner, ok := obj.Get("x")
	s.Require().True(ok)
	s.IsType(&Object{}, inner)
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{1, "1"},
		{-1, "-1"},
		{0.1, "0.1"},
		{2020, "2020"},
		{3.14159, "3.14159"},
		{1.0 / 3, "0.3333333333333333"},
		{1e20, "100000000000000000000"},
		{123456789012345680000, "123456789012345680000"},
		{1e21, "1e+21"},
		{0.000001, "0.000001"},
		{1e-7, "1e-7"},
		{1.5e-7, "1.5e-7"},
		{-2.5e-10, "-2.5e-10"},
		{5e-324, "5e-324"},
		{math.MaxFloat64, "1.7976931348623157e+308"},
		{4294967295, "4294967295"},
		{math.Inf(1), "Infinity"},
		{math.NaN(), "NaN"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatNumber(tc.in))
		})
	}
}

func TestStringifyEscaping(t *testing.T) {
	obj := NewObject().Set("s", "a b\u0001\u001f\"\\/\b\f\n\r\t<>&é\U0001F600 ")
	out, err := Stringify(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"s\":\"a b\\u0001\\u001f\\\"\\\\/\\b\\f\\n\\r\\t<>&é\U0001F600 \"}", string(out))
}

func TestUnpairedSurrogates(t *testing.T) {
	t.Run("lone surrogates survive a round trip", func(t *testing.T) {
		doc := `{"name":"\ud800","low":"x\uDC00","flipped":"\ude00\ud83d","pair":"\ud83d\ude00","\udbff":1}`
		v, err := Parse([]byte(doc))
		require.NoError(t, err)

		out, err := Stringify(v)
		require.NoError(t, err)
		assert.Equal(t, `{"name":"\ud800","low":"x\udc00","flipped":"\ude00\ud83d","pair":"`+"\U0001F600"+`","\udbff":1}`, string(out))
	})

	t.Run("lone surrogate digest differs from the replacement character", func(t *testing.T) {
		lone, err := Parse([]byte(`{"name":"\ud800"}`))
		require.NoError(t, err)
		replaced, err := Parse([]byte(`{"name":"\ufffd"}`))
		require.NoError(t, err)

		a, err := Digest(ECMAScript, lone)
		require.NoError(t, err)
		b, err := Digest(ECMAScript, replaced)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("escaped backslash before u is not a surrogate", func(t *testing.T) {
		v, err := Parse([]byte(`["\\ud800"]`))
		require.NoError(t, err)
		assert.Equal(t, []Value{`\ud800`}, v)
	})
}

func TestStringifyValues(t *testing.T) {
	t.Run("issuer scalar types", func(t *testing.T) {
		obj := NewObject().
			Set("count", 3).
			Set("big", int64(1)<<53).
			Set("ratio", float32(0.5)).
			Set("fields", []string{"type", "year"}).
			Set("nested", []Value{nil, true, NewObject()})
		out, err := Stringify(obj)
		require.NoError(t, err)
		assert.Equal(t, `{"count":3,"big":9007199254740992,"ratio":0.5,"fields":["type","year"],"nested":[null,true,{}]}`, string(out))
	})

	t.Run("non-finite numbers become null", func(t *testing.T) {
		out, err := Stringify([]Value{math.NaN(), math.Inf(-1)})
		require.NoError(t, err)
		assert.Equal(t, `[null,null]`, string(out))
	})

	t.Run("unsupported types are rejected", func(t *testing.T) {
		_, err := Stringify(NewObject().Set("m", map[string]string{"a": "b"}))
		assert.ErrorContains(t, err, `member "m"`)
	})
}

func TestObjectWithout(t *testing.T) {
	obj, err := ParseObject([]byte(alicePayload))
	require.NoError(t, err)

	view := obj.Without("issuedTo", "timestamp")
	assert.Equal(t, []string{"name", "type", "year"}, view.Keys())
	assert.Equal(t, 5, obj.Len(), "source object is not modified")
}

func TestDisplay(t *testing.T) {
	arr, err := Parse([]byte(`[1,[2,3],null,"x",{"a":1},true]`))
	require.NoError(t, err)

	assert.Equal(t, "1,2,3,,x,[object Object],true", Display(arr))
	assert.Equal(t, "2020", Display(float64(2020)))
	assert.Equal(t, "Alice", Display("Alice"))
	assert.Equal(t, "null", Display(nil))
	assert.Equal(t, "false", Display(false))
	assert.Equal(t, "[object Object]", Display(NewObject()))
}

func TestSerializerFor(t *testing.T) {
	for name, want := range map[string]string{"": SchemeECMAScript, "ecmascript": SchemeECMAScript, " JCS ": SchemeJCS} {
		s, err := SerializerFor(name)
		require.NoError(t, err)
		assert.Equal(t, want, s.Name())
	}

	_, err := SerializerFor("sorted-keys")
	assert.Error(t, err)
}
