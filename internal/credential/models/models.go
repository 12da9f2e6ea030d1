package models

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"

	id "credo/pkg/domain"
	dErrors "credo/pkg/domain-errors"
)

// Digest is a 32-byte Keccak-256 value as anchored on the ledger.
type Digest [32]byte

// ParseDigest accepts 64 hex characters with or without a 0x prefix, any case.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	raw := strings.TrimSpace(s)
	if after, ok := strings.CutPrefix(raw, "0x"); ok {
		raw = after
	} else if after, ok := strings.CutPrefix(raw, "0X"); ok {
		raw = after
	}
	if len(raw) != 64 {
		return d, dErrors.New(dErrors.CodeInvalidInput, "credential hash must be 32 bytes of hex")
	}
	if _, err := hex.Decode(d[:], []byte(raw)); err != nil {
		return d, dErrors.New(dErrors.CodeInvalidInput, "credential hash must be 32 bytes of hex")
	}
	return d, nil
}

// Hex returns the 0x-prefixed lowercase form used by chain clients.
func (d Digest) Hex() string { return "0x" + hex.EncodeToString(d[:]) }

func (d Digest) String() string { return d.Hex() }

func (d Digest) IsZero() bool { return d == Digest{} }

func (d Digest) MarshalText() ([]byte, error) { return []byte(d.Hex()), nil }

func (d *Digest) UnmarshalText(b []byte) error {
	parsed, err := ParseDigest(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// CredentialRecord is a ledger entry. It is immutable apart from IsValid,
// which moves from true to false once when the issuer revokes it.
type CredentialRecord struct {
	CredentialHash Digest     `json:"credential_hash"`
	IpfsCID        string     `json:"ipfs_cid"`
	Issuer         id.Account `json:"issuer"`
	IsValid        bool       `json:"is_valid"`
	IssuedAt       time.Time  `json:"issued_at"`
}

// Status is the record state shown next to each credential.
func (r CredentialRecord) Status() string {
	if r.IsValid {
		return "Active"
	}
	return "Revoked"
}

// Outcome is the result of checking a record against its stored content.
type Outcome string

const (
	OutcomeVerified    Outcome = "verified"
	OutcomeTampered    Outcome = "tampered"
	OutcomeRevoked     Outcome = "revoked"
	OutcomeFetchFailed Outcome = "fetch_failed"
)

// Label is the human-facing verification message.
func (o Outcome) Label() string {
	switch o {
	case OutcomeVerified:
		return "Credential Verified (Authentic)"
	case OutcomeTampered:
		return "Credential Tampered"
	case OutcomeRevoked:
		return "Credential Revoked"
	case OutcomeFetchFailed:
		return "Failed to fetch IPFS document"
	}
	return string(o)
}

// ParseOutcome validates an outcome filter value.
func ParseOutcome(s string) (Outcome, error) {
	switch o := Outcome(strings.ToLower(strings.TrimSpace(s))); o {
	case OutcomeVerified, OutcomeTampered, OutcomeRevoked, OutcomeFetchFailed:
		return o, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown verification outcome")
}

// Failure classifies why a record did not verify.
type Failure string

const (
	FailureNone          Failure = ""
	FailureRevokedRecord Failure = "revoked_record"
	FailureContentFetch  Failure = "content_fetch_failure"
	FailureContentParse  Failure = "content_parse_failure"
	FailureHashMismatch  Failure = "hash_mismatch"
)

// Outcome maps the failure kind onto what a viewer is told.
// Fetch and parse failures read the same: integrity could not be established.
func (f Failure) Outcome() Outcome {
	switch f {
	case FailureRevokedRecord:
		return OutcomeRevoked
	case FailureContentFetch, FailureContentParse:
		return OutcomeFetchFailed
	case FailureHashMismatch:
		return OutcomeTampered
	}
	return OutcomeVerified
}

// Retryable reports whether re-triggering the check can change the result.
func (f Failure) Retryable() bool {
	return f == FailureContentFetch || f == FailureContentParse
}

// Verification is the full result of one integrity check.
type Verification struct {
	Record   CredentialRecord
	Outcome  Outcome
	Failure  Failure
	Reason   string
	Computed *Digest
	Scheme   string
}

// VerificationLogEntry is the persisted audit copy of a verification.
type VerificationLogEntry struct {
	ID             id.VerificationID
	CredentialHash Digest
	IpfsCID        string
	Account        id.Account
	Outcome        Outcome
	Failure        Failure
	Reason         string
	Device         string
	RequestID      string
	VerifiedAt     time.Time
}

// NewVerificationLogEntry stamps a log entry for v.
func NewVerificationLogEntry(v Verification, account id.Account, device, requestID string, at time.Time) VerificationLogEntry {
	return VerificationLogEntry{
		ID:             id.VerificationID(uuid.New()),
		CredentialHash: v.Record.CredentialHash,
		IpfsCID:        v.Record.IpfsCID,
		Account:        account,
		Outcome:        v.Outcome,
		Failure:        v.Failure,
		Reason:         v.Reason,
		Device:         device,
		RequestID:      requestID,
		VerifiedAt:     at.UTC(),
	}
}

// LogFilter narrows verification log queries. Zero fields match everything.
type LogFilter struct {
	CredentialHash *Digest
	Account        id.Account
	Outcome        Outcome
	Limit          int
}
