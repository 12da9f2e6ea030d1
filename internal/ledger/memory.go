package ledger

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"credo/internal/credential/models"
	id "credo/pkg/domain"
)

type recordRef struct {
	holder id.Account
	index  int
}

// ClaimRequest is a request recorded by MemoryLedger's interaction hub.
type ClaimRequest struct {
	ID     uint64
	From   id.Account
	Target id.Account
	Fields []string
	Reason string
}

// Attestation is an attestation recorded by MemoryLedger's interaction hub.
type Attestation struct {
	From   id.Account
	Target id.Account
	Text   string
}

// MemoryLedger is an in-process ledger with the registry's rules: one record
// per hash, and a record can be revoked once.
type MemoryLedger struct {
	mu      sync.RWMutex
	issuer  id.Account
	records map[id.Account][]models.CredentialRecord
	byHash  map[models.Digest]recordRef
	trusted map[id.Account]bool
	claims  []ClaimRequest
	attests []Attestation
	block   uint64
	now     func() time.Time
}

// NewMemoryLedger returns a ledger whose writes are signed by issuer.
func NewMemoryLedger(issuer id.Account) *MemoryLedger {
	return &MemoryLedger{
		issuer:  issuer,
		records: make(map[id.Account][]models.CredentialRecord),
		byHash:  make(map[models.Digest]recordRef),
		trusted: make(map[id.Account]bool),
		now:     time.Now,
	}
}

func (l *MemoryLedger) Issuer() id.Account { return l.issuer }

func (l *MemoryLedger) ListCredentials(_ context.Context, account id.Account) ([]models.CredentialRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.CredentialRecord, len(l.records[account]))
	copy(out, l.records[account])
	return out, nil
}

func (l *MemoryLedger) Issue(_ context.Context, to id.Account, hash models.Digest, contentID string) (Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.byHash[hash]; ok {
		return Receipt{}, ErrAlreadyIssued
	}
	l.records[to] = append(l.records[to], models.CredentialRecord{
		CredentialHash: hash,
		IpfsCID:        contentID,
		Issuer:         l.issuer,
		IsValid:        true,
		IssuedAt:       l.now().UTC().Truncate(time.Second),
	})
	l.byHash[hash] = recordRef{holder: to, index: len(l.records[to]) - 1}
	return l.mine("issueCredential", hash[:]), nil
}

func (l *MemoryLedger) Revoke(_ context.Context, hash models.Digest) (Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ref, ok := l.byHash[hash]
	if !ok {
		return Receipt{}, ErrNotFound
	}
	rec := &l.records[ref.holder][ref.index]
	if !rec.IsValid {
		return Receipt{}, ErrAlreadyRevoked
	}
	rec.IsValid = false
	return l.mine("revokeCredential", hash[:]), nil
}

// Trust marks account as a trusted issuer.
func (l *MemoryLedger) Trust(account id.Account) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trusted[account] = true
}

func (l *MemoryLedger) IsTrusted(_ context.Context, account id.Account) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.trusted[account], nil
}

func (l *MemoryLedger) CreateClaimRequest(_ context.Context, target id.Account, fields []string, reason string) (Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.claims = append(l.claims, ClaimRequest{
		ID:     uint64(len(l.claims) + 1),
		From:   l.issuer,
		Target: target,
		Fields: append([]string(nil), fields...),
		Reason: reason,
	})
	return l.mine("createClaimRequest", target.Address().Bytes(), []byte(reason)), nil
}

func (l *MemoryLedger) CreateAttestation(_ context.Context, target id.Account, text string) (Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attests = append(l.attests, Attestation{From: l.issuer, Target: target, Text: text})
	return l.mine("createAttestation", target.Address().Bytes(), []byte(text)), nil
}

// ClaimRequests returns the claim requests recorded so far.
func (l *MemoryLedger) ClaimRequests() []ClaimRequest {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]ClaimRequest(nil), l.claims...)
}

// Attestations returns the attestations recorded so far.
func (l *MemoryLedger) Attestations() []Attestation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Attestation(nil), l.attests...)
}

// mine advances the block counter and derives a stable pseudo transaction hash.
// Callers hold l.mu.
func (l *MemoryLedger) mine(method string, parts ...[]byte) Receipt {
	l.block++
	var blk [8]byte
	binary.BigEndian.PutUint64(blk[:], l.block)
	data := append([][]byte{[]byte(method), blk[:]}, parts...)
	return Receipt{
		TxHash:      common.BytesToHash(crypto.Keccak256(data...)).Hex(),
		BlockNumber: l.block,
	}
}

var (
	_ Reader         = (*MemoryLedger)(nil)
	_ Writer         = (*MemoryLedger)(nil)
	_ TrustRegistry  = (*MemoryLedger)(nil)
	_ InteractionHub = (*MemoryLedger)(nil)
)
