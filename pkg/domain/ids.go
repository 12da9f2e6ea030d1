// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	dErrors "credo/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a SessionID where a VerificationID is expected.
type (
	SessionID      uuid.UUID
	VerificationID uuid.UUID
)

// Account is a wallet address in EIP-55 checksummed form.
// Construct it with ParseAccount so equal addresses compare equal regardless of input casing.
type Account string

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseSessionID(s string) (SessionID, error) {
	id, err := parseUUID(s, "session ID")
	return SessionID(id), err
}

func ParseVerificationID(s string) (VerificationID, error) {
	id, err := parseUUID(s, "verification ID")
	return VerificationID(id), err
}

// ParseAccount validates a 0x-prefixed 20-byte hex address.
func ParseAccount(s string) (Account, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "account cannot be empty")
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "account must be 0x-prefixed")
	}
	if !common.IsHexAddress(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid account format")
	}
	return Account(common.HexToAddress(s).Hex()), nil
}

// AccountFromAddress converts a chain address into an Account.
func AccountFromAddress(addr common.Address) Account {
	return Account(addr.Hex())
}

// Address returns the chain address for the account.
func (a Account) Address() common.Address { return common.HexToAddress(string(a)) }

// String methods - for logging and debugging.

func (id SessionID) String() string      { return uuid.UUID(id).String() }
func (id VerificationID) String() string { return uuid.UUID(id).String() }
func (a Account) String() string         { return string(a) }

// IsNil checks - used for service-layer validation.

func (id SessionID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id VerificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (a Account) IsNil() bool         { return a == "" }

// Nil UUIDs are allowed here; IsNil at the service layer lets store lookups
// return proper "not found" errors.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	return id, nil
}
