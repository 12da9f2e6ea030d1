package testutil

import (
	"time"

	"credo/internal/credential/canonical"
	"credo/internal/credential/models"
	id "credo/pkg/domain"
)

// TestAccounts are fixed, checksummed accounts for deterministic test data.
var TestAccounts = struct {
	Issuer   id.Account
	Holder   id.Account
	Stranger id.Account
}{
	Issuer:   id.Account("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"),
	Holder:   id.Account("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"),
	Stranger: id.Account("0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB"),
}

// AliceDocument is a flat payload; the keccak256 of its ECMAScript serialization is AliceDigest.
const AliceDocument = `{"name":"Alice","type":"Degree","year":"2020","issuedTo":"0xabc","timestamp":"2024-01-01T00:00:00Z"}`

// AliceDigest is the digest anchored for AliceDocument.
const AliceDigest = "0x6a308fe061ea4af115c49a5d1103cdf2014014fce2d2d5fffcfcaacb5f7020ab"

// MustDigest parses s or panics.
func MustDigest(s string) models.Digest {
	d, err := models.ParseDigest(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DigestOf returns the keccak256 of raw bytes as a Digest.
func DigestOf(raw []byte) models.Digest {
	return models.Digest(canonical.Keccak256(raw))
}

// RecordBuilder provides a fluent interface for building ledger records.
type RecordBuilder struct {
	record models.CredentialRecord
}

// NewRecordBuilder returns a valid record for AliceDocument issued by TestAccounts.Issuer.
func NewRecordBuilder() *RecordBuilder {
	return &RecordBuilder{
		record: models.CredentialRecord{
			CredentialHash: MustDigest(AliceDigest),
			IpfsCID:        "bafkreialice",
			Issuer:         TestAccounts.Issuer,
			IsValid:        true,
			IssuedAt:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

func (b *RecordBuilder) WithHash(hash models.Digest) *RecordBuilder {
	b.record.CredentialHash = hash
	return b
}

func (b *RecordBuilder) WithCID(contentID string) *RecordBuilder {
	b.record.IpfsCID = contentID
	return b
}

func (b *RecordBuilder) WithIssuer(issuer id.Account) *RecordBuilder {
	b.record.Issuer = issuer
	return b
}

func (b *RecordBuilder) IssuedAt(t time.Time) *RecordBuilder {
	b.record.IssuedAt = t
	return b
}

func (b *RecordBuilder) Revoked() *RecordBuilder {
	b.record.IsValid = false
	return b
}

func (b *RecordBuilder) Build() models.CredentialRecord {
	return b.record
}
