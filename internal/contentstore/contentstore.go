// Package contentstore reads and writes credential payloads on IPFS.
//
// Reads go through a gateway over plain HTTP GET <base>/<cid>; nothing the
// gateway returns is trusted; callers recompute digests over the bytes.
// Writes go to a pinning service and return the new content address.
package contentstore

//go:generate mockgen -source=contentstore.go -destination=mocks/mocks.go -package=mocks Fetcher,Pinner

import (
	"context"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Fetcher retrieves the bytes stored at a content address.
type Fetcher interface {
	Fetch(ctx context.Context, contentID string) ([]byte, error)
}

// Pinner stores bytes and returns their content address.
type Pinner interface {
	Pin(ctx context.Context, name string, data []byte) (string, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, contentID string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, contentID string) ([]byte, error) {
	return f(ctx, contentID)
}

// ValidateCID parses a CIDv0 or CIDv1 string and returns its canonical string form.
func ValidateCID(contentID string) (string, error) {
	c, err := cid.Decode(strings.TrimSpace(contentID))
	if err != nil {
		return "", NewFetchError(ErrorInvalidCID, contentID, "invalid content identifier", err)
	}
	return c.String(), nil
}

// ComputeCID returns the CIDv1 (raw codec, sha2-256) of data, the address a
// node assigns to a single-block raw upload.
func ComputeCID(data []byte) (string, error) {
	prefix := cid.Prefix{
		Version:  1,
		Codec:    cid.Raw,
		MhType:   multihash.SHA2_256,
		MhLength: -1,
	}
	c, err := prefix.Sum(data)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}
