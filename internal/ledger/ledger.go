// Package ledger reads and writes credential records on the registry contract
// and talks to the trust registry and interaction hub contracts beside it.
//
// EthLedger is the go-ethereum implementation. MemoryLedger backs local
// development and tests when no chain is configured.
package ledger

//go:generate mockgen -source=ledger.go -destination=mocks/mocks.go -package=mocks Reader,Writer,TrustRegistry,InteractionHub

import (
	"context"
	"errors"
	"fmt"

	"credo/internal/credential/models"
	id "credo/pkg/domain"
	dErrors "credo/pkg/domain-errors"
	"credo/pkg/platform/sentinel"
)

var (
	ErrNotFound       = fmt.Errorf("credential record %w", sentinel.ErrNotFound)
	ErrAlreadyRevoked = fmt.Errorf("credential already revoked: %w", sentinel.ErrConflict)
	ErrAlreadyIssued  = fmt.Errorf("credential hash already anchored: %w", sentinel.ErrConflict)
	ErrReadOnly       = fmt.Errorf("ledger has no signing key: %w", sentinel.ErrReadOnly)
	ErrUnavailable    = fmt.Errorf("ledger %w", sentinel.ErrUnavailable)
)

// Reader lists the records anchored for a holder, in ledger order.
type Reader interface {
	ListCredentials(ctx context.Context, account id.Account) ([]models.CredentialRecord, error)
}

// Writer submits issuance and revocation transactions signed by the issuer key.
type Writer interface {
	Issuer() id.Account
	Issue(ctx context.Context, to id.Account, hash models.Digest, contentID string) (Receipt, error)
	Revoke(ctx context.Context, hash models.Digest) (Receipt, error)
}

type TrustRegistry interface {
	IsTrusted(ctx context.Context, account id.Account) (bool, error)
}

type InteractionHub interface {
	CreateClaimRequest(ctx context.Context, target id.Account, fields []string, reason string) (Receipt, error)
	CreateAttestation(ctx context.Context, target id.Account, text string) (Receipt, error)
}

// Receipt identifies a mined transaction.
type Receipt struct {
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
}

// DefaultClaimFields are requested when a claim request names no fields.
var DefaultClaimFields = []string{"type", "year"}

// DomainError translates a ledger failure into a transport-facing domain error.
func DomainError(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, msg)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, msg)
	case errors.Is(err, sentinel.ErrReadOnly), errors.Is(err, ErrNotConfigured):
		return dErrors.Wrap(err, dErrors.CodeNotConfigured, msg)
	case errors.Is(err, sentinel.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
	case errors.Is(err, sentinel.ErrInvalidInput):
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
