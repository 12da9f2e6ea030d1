// Package session holds per-viewer verification state.
//
// Every asynchronous operation is issued a Token when it starts and its
// result is applied only if the token is still current when it finishes.
// Changing the address invalidates every in-flight operation; starting a new
// verification or disclosure invalidates the previous one of the same kind.
package session

import (
	"errors"
	"sync"
	"time"

	"credo/internal/credential/disclosure"
	"credo/internal/credential/models"
	id "credo/pkg/domain"
)

// ErrNoRecord is returned when an operation names a record index that is not loaded.
var ErrNoRecord = errors.New("no credential at that position")

// Token identifies one in-flight operation.
type Token struct {
	Address uint64
	Op      uint64
}

// State is the mutable view model for one viewer.
type State struct {
	mu sync.Mutex

	address      id.Account
	records      []models.CredentialRecord
	loading      bool
	verification *verificationView
	disclosure   *disclosure.Disclosure

	addressGen  uint64
	verifyGen   uint64
	discloseGen uint64

	updatedAt time.Time
	now       func() time.Time
}

// newState returns a State stamped by clock.
func newState(clock func() time.Time) *State {
	return &State{now: clock, updatedAt: clock()}
}

// touch records a change the viewer can see. Callers hold mu.
func (s *State) touch() {
	if s.now == nil {
		s.updatedAt = time.Now()
		return
	}
	s.updatedAt = s.now()
}

type verificationView struct {
	hash    models.Digest
	pending bool
	result  models.Verification
}

// Begin switches to account, clears everything derived from the previous
// address and marks the record list as loading.
func (s *State) Begin(account id.Account) Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addressGen++
	s.address = account
	s.records = nil
	s.loading = true
	s.verification = nil
	s.disclosure = nil
	s.touch()
	return Token{Address: s.addressGen}
}

// ApplyRecords stores the loaded record list. Stale tokens are dropped.
func (s *State) ApplyRecords(tok Token, records []models.CredentialRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.Address != s.addressGen {
		return false
	}
	s.records = records
	s.loading = false
	s.touch()
	return true
}

// FailRecords ends loading after a failed ledger read.
func (s *State) FailRecords(tok Token) bool {
	return s.ApplyRecords(tok, nil)
}

func (s *State) record(index int) (models.CredentialRecord, error) {
	if index < 0 || index >= len(s.records) {
		return models.CredentialRecord{}, ErrNoRecord
	}
	return s.records[index], nil
}

// BeginVerify marks the record at index as being verified.
func (s *State) BeginVerify(index int) (models.CredentialRecord, id.Account, Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.record(index)
	if err != nil {
		return rec, "", Token{}, err
	}
	s.verifyGen++
	s.verification = &verificationView{hash: rec.CredentialHash, pending: true}
	s.touch()
	return rec, s.address, Token{Address: s.addressGen, Op: s.verifyGen}, nil
}

// ApplyVerification stores a verification result if tok is still current.
func (s *State) ApplyVerification(tok Token, v models.Verification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.Address != s.addressGen || tok.Op != s.verifyGen {
		return false
	}
	s.verification = &verificationView{hash: v.Record.CredentialHash, result: v}
	s.touch()
	return true
}

// BeginDisclose starts a disclosure. The current view stays visible until a
// newer result replaces it.
func (s *State) BeginDisclose(index int) (models.CredentialRecord, Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.record(index)
	if err != nil {
		return rec, Token{}, err
	}
	s.discloseGen++
	return rec, Token{Address: s.addressGen, Op: s.discloseGen}, nil
}

// ApplyDisclosure replaces the disclosure view if tok is still current.
func (s *State) ApplyDisclosure(tok Token, d disclosure.Disclosure) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.Address != s.addressGen || tok.Op != s.discloseGen {
		return false
	}
	s.disclosure = &d
	s.touch()
	return true
}

// Snapshot is a consistent copy of the state for rendering.
type Snapshot struct {
	Address      id.Account
	Loading      bool
	Records      []models.CredentialRecord
	Verification *VerificationSnapshot
	Disclosure   *disclosure.Disclosure
	UpdatedAt    time.Time
}

// VerificationSnapshot is the current verification message. Result is
// meaningful only when Pending is false.
type VerificationSnapshot struct {
	CredentialHash models.Digest
	Pending        bool
	Result         models.Verification
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Address:   s.address,
		Loading:   s.loading,
		Records:   append([]models.CredentialRecord(nil), s.records...),
		UpdatedAt: s.updatedAt,
	}
	if s.verification != nil {
		snap.Verification = &VerificationSnapshot{
			CredentialHash: s.verification.hash,
			Pending:        s.verification.pending,
			Result:         s.verification.result,
		}
	}
	if s.disclosure != nil {
		d := *s.disclosure
		snap.Disclosure = &d
	}
	return snap
}
