package issuance

import (
	"credo/internal/credential/models"
	"credo/internal/ledger"
	id "credo/pkg/domain"
)

// Draft is the issuer-entered content of a new credential.
type Draft struct {
	Name      string
	Type      string
	Year      string
	Recipient string
}

// Issued describes an anchored credential.
type Issued struct {
	CredentialHash models.Digest
	IpfsCID        string
	IssuedTo       id.Account
	Receipt        ledger.Receipt
	Payload        []byte
}
