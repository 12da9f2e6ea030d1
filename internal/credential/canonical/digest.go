package canonical

import (
	"fmt"
	"strings"

	"github.com/gowebpki/jcs"
	"golang.org/x/crypto/sha3"
)

// Serializer turns a payload into the exact bytes that get hashed.
type Serializer interface {
	Name() string
	Serialize(v Value) ([]byte, error)
}

const (
	SchemeECMAScript = "ecmascript"
	SchemeJCS        = "jcs"
)

// ECMAScript reproduces JSON.stringify over the payload in property order.
// This is what deployed issuers use.
var ECMAScript Serializer = ecmaScript{}

// JCS is RFC 8785 canonical JSON: members sorted by UTF-16 code units,
// independent of how the issuer happened to build the object.
var JCS Serializer = jcsSerializer{}

type ecmaScript struct{}

func (ecmaScript) Name() string { return SchemeECMAScript }

func (ecmaScript) Serialize(v Value) ([]byte, error) { return Stringify(v) }

type jcsSerializer struct{}

func (jcsSerializer) Name() string { return SchemeJCS }

func (jcsSerializer) Serialize(v Value) ([]byte, error) {
	raw, err := Stringify(v)
	if err != nil {
		return nil, err
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("jcs transform: %w", err)
	}
	return out, nil
}

// SerializerFor resolves a configured scheme name. Empty selects ECMAScript.
func SerializerFor(name string) (Serializer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", SchemeECMAScript:
		return ECMAScript, nil
	case SchemeJCS:
		return JCS, nil
	}
	return nil, fmt.Errorf("unknown hash serialization %q", name)
}

// Keccak256 is the legacy Keccak-256 used by the ledger (not NIST SHA3-256).
func Keccak256(data []byte) [32]byte {
	var out [32]byte
	h := sha3.NewLegacyKeccak256()
	h.Write(data) //nolint:errcheck // hash.Hash writes never fail
	h.Sum(out[:0])
	return out
}

// Digest serializes v with s and returns the Keccak-256 of the UTF-8 bytes.
func Digest(s Serializer, v Value) ([32]byte, error) {
	b, err := s.Serialize(v)
	if err != nil {
		return [32]byte{}, err
	}
	return Keccak256(b), nil
}
