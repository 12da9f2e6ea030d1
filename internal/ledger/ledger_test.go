package ledger

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"credo/internal/credential/canonical"
	"credo/internal/credential/models"
	id "credo/pkg/domain"
	"credo/pkg/platform/sentinel"
	"credo/pkg/testutil"
)

const (
	issuerAddr = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	holderAddr = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
)

func digestOf(s string) models.Digest {
	return models.Digest(canonical.Keccak256([]byte(s)))
}

type MemoryLedgerSuite struct {
	suite.Suite
	ledger *MemoryLedger
	holder id.Account
	ctx    context.Context
}

func TestMemoryLedgerSuite(t *testing.T) {
	suite.Run(t, new(MemoryLedgerSuite))
}

func (s *MemoryLedgerSuite) SetupTest() {
	s.ledger = NewMemoryLedger(id.Account(issuerAddr))
	s.ledger.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	s.holder = id.Account(holderAddr)
	s.ctx = context.Background()
}

func (s *MemoryLedgerSuite) TestListIsInIssueOrder() {
	for _, doc := range []string{"a", "b", "c"} {
		_, err := s.ledger.Issue(s.ctx, s.holder, digestOf(doc), "cid-"+doc)
		s.Require().NoError(err)
	}

	records, err := s.ledger.ListCredentials(s.ctx, s.holder)
	s.Require().NoError(err)
	s.Require().Len(records, 3)
	s.Equal("cid-a", records[0].IpfsCID)
	s.Equal("cid-c", records[2].IpfsCID)
	s.Equal(id.Account(issuerAddr), records[0].Issuer)
	s.True(records[0].IsValid)
	s.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), records[0].IssuedAt)
}

func (s *MemoryLedgerSuite) TestUnknownAccountHasNoRecords() {
	records, err := s.ledger.ListCredentials(s.ctx, id.Account(issuerAddr))
	s.Require().NoError(err)
	s.Empty(records)
}

func (s *MemoryLedgerSuite) TestDuplicateHashRejected() {
	_, err := s.ledger.Issue(s.ctx, s.holder, digestOf("a"), "cid-a")
	s.Require().NoError(err)
	_, err = s.ledger.Issue(s.ctx, s.holder, digestOf("a"), "cid-b")
	s.ErrorIs(err, ErrAlreadyIssued)
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *MemoryLedgerSuite) TestRevokeOnce() {
	hash := digestOf("a")
	first, err := s.ledger.Issue(s.ctx, s.holder, hash, "cid-a")
	s.Require().NoError(err)

	r, err := s.ledger.Revoke(s.ctx, hash)
	s.Require().NoError(err)
	s.Greater(r.BlockNumber, first.BlockNumber)
	s.NotEqual(first.TxHash, r.TxHash)

	records, err := s.ledger.ListCredentials(s.ctx, s.holder)
	s.Require().NoError(err)
	s.False(records[0].IsValid)

	_, err = s.ledger.Revoke(s.ctx, hash)
	s.ErrorIs(err, ErrAlreadyRevoked)

	_, err = s.ledger.Revoke(s.ctx, digestOf("missing"))
	s.ErrorIs(err, ErrNotFound)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryLedgerSuite) TestConcurrentRevokeSucceedsOnce() {
	hash := testutil.MustDigest(testutil.AliceDigest)
	_, err := s.ledger.Issue(s.ctx, s.holder, hash, "bafkreialice")
	s.Require().NoError(err)

	result := testutil.Race(s.ctx, 20, func(ctx context.Context, _ int) error {
		_, err := s.ledger.Revoke(ctx, hash)
		return err
	})

	s.Equal(int32(1), result.Successes)
	s.Equal(int32(19), result.Conflicts)
	s.Zero(result.Errors)
}

func (s *MemoryLedgerSuite) TestListReturnsCopies() {
	_, err := s.ledger.Issue(s.ctx, s.holder, digestOf("a"), "cid-a")
	s.Require().NoError(err)
	records, err := s.ledger.ListCredentials(s.ctx, s.holder)
	s.Require().NoError(err)
	records[0].IsValid = false

	again, err := s.ledger.ListCredentials(s.ctx, s.holder)
	s.Require().NoError(err)
	s.True(again[0].IsValid)
}

func (s *MemoryLedgerSuite) TestTrustAndInteractions() {
	trusted, err := s.ledger.IsTrusted(s.ctx, id.Account(issuerAddr))
	s.Require().NoError(err)
	s.False(trusted)

	s.ledger.Trust(id.Account(issuerAddr))
	trusted, err = s.ledger.IsTrusted(s.ctx, id.Account(issuerAddr))
	s.Require().NoError(err)
	s.True(trusted)

	_, err = s.ledger.CreateClaimRequest(s.ctx, s.holder, DefaultClaimFields, "onboarding")
	s.Require().NoError(err)
	_, err = s.ledger.CreateAttestation(s.ctx, s.holder, "met in person")
	s.Require().NoError(err)

	claims := s.ledger.ClaimRequests()
	s.Require().Len(claims, 1)
	s.Equal(uint64(1), claims[0].ID)
	s.Equal([]string{"type", "year"}, claims[0].Fields)
	s.Require().Len(s.ledger.Attestations(), 1)
	s.Equal("met in person", s.ledger.Attestations()[0].Text)
}

// fakeBackend answers eth_call with canned ABI-encoded results keyed by method.
// Transaction methods are left to the embedded nil interfaces.
type fakeBackend struct {
	bind.ContractBackend
	bind.DeployBackend

	outputs map[[4]byte][]byte
	callErr error
	calls   []ethereum.CallMsg
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls = append(f.calls, msg)
	if f.callErr != nil {
		return nil, f.callErr
	}
	var sel [4]byte
	copy(sel[:], msg.Data[:4])
	return f.outputs[sel], nil
}

func (f *fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	if f.callErr != nil {
		return nil, f.callErr
	}
	return &types.Header{Number: big.NewInt(1)}, nil
}

func mustABI(t *testing.T, definition string) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(definition))
	require.NoError(t, err)
	return parsed
}

func TestEthLedgerListCredentials(t *testing.T) {
	registry := mustABI(t, credentialRegistryABI)
	hashA := digestOf("a")
	hashB := digestOf("b")

	packed, err := registry.Methods["getUserCredentials"].Outputs.Pack([]onchainCredential{
		{CredentialHash: hashA, IpfsCID: "cid-a", Issuer: common.HexToAddress(issuerAddr), IsValid: true, IssuedAt: big.NewInt(1704067200)},
		{CredentialHash: hashB, IpfsCID: "cid-b", Issuer: common.HexToAddress(issuerAddr), IsValid: false, IssuedAt: big.NewInt(1704153600)},
	})
	require.NoError(t, err)

	var sel [4]byte
	copy(sel[:], registry.Methods["getUserCredentials"].ID)
	backend := &fakeBackend{outputs: map[[4]byte][]byte{sel: packed}}

	l, err := NewEthLedger(backend, EthConfig{
		ChainID:         big.NewInt(11155111),
		RegistryAddress: common.HexToAddress("0x00000000000000000000000000000000000000c1"),
	})
	require.NoError(t, err)

	records, err := l.ListCredentials(context.Background(), id.Account(holderAddr))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, hashA, records[0].CredentialHash)
	assert.Equal(t, "cid-a", records[0].IpfsCID)
	assert.Equal(t, id.Account(issuerAddr), records[0].Issuer)
	assert.True(t, records[0].IsValid)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), records[0].IssuedAt)
	assert.False(t, records[1].IsValid)
	assert.Equal(t, "Revoked", records[1].Status())

	require.Len(t, backend.calls, 1)
	args, err := registry.Methods["getUserCredentials"].Inputs.Unpack(backend.calls[0].Data[4:])
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(holderAddr), args[0])
}

func TestEthLedgerIsTrusted(t *testing.T) {
	trust := mustABI(t, trustRegistryABI)
	packed, err := trust.Methods["isTrusted"].Outputs.Pack(true)
	require.NoError(t, err)
	var sel [4]byte
	copy(sel[:], trust.Methods["isTrusted"].ID)

	backend := &fakeBackend{outputs: map[[4]byte][]byte{sel: packed}}
	l, err := NewEthLedger(backend, EthConfig{
		ChainID:              big.NewInt(1),
		RegistryAddress:      common.HexToAddress("0x00000000000000000000000000000000000000c1"),
		TrustRegistryAddress: common.HexToAddress("0x00000000000000000000000000000000000000c2"),
	})
	require.NoError(t, err)

	ok, err := l.IsTrusted(context.Background(), id.Account(issuerAddr))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEthLedgerFailures(t *testing.T) {
	backend := &fakeBackend{callErr: errors.New("connection refused")}
	l, err := NewEthLedger(backend, EthConfig{
		ChainID:         big.NewInt(1),
		RegistryAddress: common.HexToAddress("0x00000000000000000000000000000000000000c1"),
	})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = l.ListCredentials(ctx, id.Account(holderAddr))
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, l.Health(ctx), ErrUnavailable)

	_, err = l.IsTrusted(ctx, id.Account(issuerAddr))
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = l.CreateAttestation(ctx, id.Account(holderAddr), "hi")
	assert.ErrorIs(t, err, ErrNotConfigured)

	t.Run("writes without a key are rejected", func(t *testing.T) {
		assert.True(t, l.Issuer().IsNil())
		_, err := l.Revoke(ctx, digestOf("a"))
		assert.ErrorIs(t, err, ErrReadOnly)
		_, err = l.Issue(ctx, id.Account(holderAddr), digestOf("a"), "cid")
		assert.ErrorIs(t, err, ErrReadOnly)
	})

	t.Run("registry address is required", func(t *testing.T) {
		_, err := NewEthLedger(backend, EthConfig{})
		assert.Error(t, err)
	})
}

func TestParsePrivateKey(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	hexKey := common.Bytes2Hex(crypto.FromECDSA(key))

	for _, in := range []string{hexKey, "0x" + hexKey, " " + hexKey + "\n"} {
		parsed, err := ParsePrivateKey(in)
		require.NoError(t, err)
		assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), crypto.PubkeyToAddress(parsed.PublicKey))
	}

	_, err = ParsePrivateKey("not-a-key")
	assert.Error(t, err)

	l, err := NewEthLedger(&fakeBackend{}, EthConfig{
		ChainID:         big.NewInt(1),
		RegistryAddress: common.HexToAddress("0x00000000000000000000000000000000000000c1"),
		PrivateKey:      key,
	})
	require.NoError(t, err)
	assert.Equal(t, id.AccountFromAddress(crypto.PubkeyToAddress(key.PublicKey)), l.Issuer())
}

func TestRevertMentions(t *testing.T) {
	assert.True(t, revertMentions(errors.New("execution reverted: Already revoked"), "already revoked"))
	assert.False(t, revertMentions(errors.New("already revoked"), "already revoked"))
	assert.False(t, revertMentions(errors.New("execution reverted: nope"), "already revoked"))
}
