package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "credo/pkg/domain-errors"
)

type issueRequest struct {
	Name      string `validate:"required,notblank,max=200"`
	Recipient string `validate:"omitempty,eth_addr"`
	IpfsCID   string `validate:"omitempty,cid"`
	Hash      string `validate:"omitempty,digest"`
}

func TestValidate(t *testing.T) {
	t.Run("accepts a well formed request", func(t *testing.T) {
		err := Validate(issueRequest{
			Name:      "Alice",
			Recipient: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
			IpfsCID:   "bafkreigh2akiscaildcqabsyg3dfr6chu3fgpregiymsck7e7aqa4s52zy",
			Hash:      "0x" + strings.Repeat("ab", 32),
		})
		require.NoError(t, err)
	})

	cases := []struct {
		name string
		req  issueRequest
		msg  string
	}{
		{"missing name", issueRequest{}, "name is required"},
		{"blank name", issueRequest{Name: "   "}, "name must not be blank"},
		{"bad recipient", issueRequest{Name: "a", Recipient: "0x123"}, "recipient must be a 0x-prefixed account address"},
		{"bad cid", issueRequest{Name: "a", IpfsCID: "not-a-cid"}, "ipfs_cid must be a valid content identifier"},
		{"short digest", issueRequest{Name: "a", Hash: "0xabcd"}, "hash must be a 0x-prefixed 32-byte hex digest"},
		{"digest without prefix", issueRequest{Name: "a", Hash: strings.Repeat("ab", 32)}, "hash must be a 0x-prefixed 32-byte hex digest"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.req)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Equal(t, tc.msg, err.Error())
		})
	}
}
