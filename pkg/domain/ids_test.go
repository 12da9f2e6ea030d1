package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "credo/pkg/domain-errors"
)

func TestParseSessionID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseSessionID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseSessionID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		raw := uuid.New()
		id, err := ParseSessionID(raw.String())
		require.NoError(t, err)
		assert.Equal(t, SessionID(raw), id)
		assert.False(t, id.IsNil())
	})

	t.Run("nil UUID parses but reports IsNil", func(t *testing.T) {
		id, err := ParseSessionID(uuid.Nil.String())
		require.NoError(t, err)
		assert.True(t, id.IsNil())
	})
}

func TestParseAccount(t *testing.T) {
	t.Run("normalizes casing to checksum form", func(t *testing.T) {
		lower, err := ParseAccount("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
		require.NoError(t, err)
		upper, err := ParseAccount("0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED")
		require.NoError(t, err)

		assert.Equal(t, lower, upper)
		assert.Equal(t, Account("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"), lower)
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		acct, err := ParseAccount("  0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed ")
		require.NoError(t, err)
		assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", acct.String())
	})

	for name, input := range map[string]string{
		"empty":        "",
		"missing 0x":   "5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"short":        "0xabc",
		"non-hex":      "0xZZAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"ens-looking":  "alice.eth",
		"extra digits": "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed00",
	} {
		t.Run("rejects "+name, func(t *testing.T) {
			_, err := ParseAccount(input)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}

	t.Run("round trips through chain address", func(t *testing.T) {
		acct, err := ParseAccount("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
		require.NoError(t, err)
		assert.Equal(t, acct, AccountFromAddress(acct.Address()))
	})
}

func TestTypeDistinction(t *testing.T) {
	sessionID := SessionID(uuid.New())
	verificationID := VerificationID(uuid.New())

	// var _ SessionID = verificationID // compile error
	assert.NotEqual(t, uuid.UUID(sessionID), uuid.UUID(verificationID))
}
