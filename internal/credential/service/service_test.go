package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"credo/internal/contentstore"
	"credo/internal/credential/canonical"
	"credo/internal/credential/disclosure"
	"credo/internal/credential/models"
	"credo/internal/credential/service/mocks"
	"credo/internal/credential/store"
	"credo/internal/credential/verifier"
	"credo/internal/ledger"
	ledgermocks "credo/internal/ledger/mocks"
	id "credo/pkg/domain"
	dErrors "credo/pkg/domain-errors"
	"credo/pkg/requestcontext"
)

const (
	holder      = id.Account("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	issuer      = id.Account("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	aliceDigest = "0x6a308fe061ea4af115c49a5d1103cdf2014014fce2d2d5fffcfcaacb5f7020ab"
	testCID     = "bafkreigh2akiscaildcqabsyg3dfr6chu3fgpregiymsck7e7aqa4s52zy"
	browserUA   = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
)

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	ledger    *ledgermocks.MockReader
	verifier  *mocks.MockVerifier
	discloser *mocks.MockDiscloser
	log       *mocks.MockLogStore
	events    *mocks.MockEventPublisher
	service   *Service
	record    models.CredentialRecord
	ctx       context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.ledger = ledgermocks.NewMockReader(s.ctrl)
	s.verifier = mocks.NewMockVerifier(s.ctrl)
	s.discloser = mocks.NewMockDiscloser(s.ctrl)
	s.log = mocks.NewMockLogStore(s.ctrl)
	s.events = mocks.NewMockEventPublisher(s.ctrl)
	s.service = New(s.ledger, s.verifier, s.discloser,
		WithLogStore(s.log),
		WithEvents(s.events),
	)

	digest, err := models.ParseDigest(aliceDigest)
	s.Require().NoError(err)
	s.record = models.CredentialRecord{CredentialHash: digest, IpfsCID: testCID, Issuer: issuer, IsValid: true}

	ctx := requestcontext.WithRequestID(context.Background(), "req-42")
	ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.7", browserUA)
	s.ctx = requestcontext.WithTime(ctx, time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC))
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) verified() models.Verification {
	return models.Verification{Record: s.record, Outcome: models.OutcomeVerified, Scheme: canonical.SchemeECMAScript}
}

func (s *ServiceSuite) TestListCredentials_LedgerFailureMapsToUnavailable() {
	s.ledger.EXPECT().ListCredentials(gomock.Any(), holder).Return(nil, ledger.ErrUnavailable)

	_, err := s.service.ListCredentials(s.ctx, holder)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *ServiceSuite) TestVerify_UnknownHashIsNotFound() {
	s.ledger.EXPECT().ListCredentials(gomock.Any(), holder).Return([]models.CredentialRecord{}, nil)

	_, err := s.service.Verify(s.ctx, holder, s.record.CredentialHash)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestVerify_RecordsLogEntryAndEvent() {
	s.ledger.EXPECT().ListCredentials(gomock.Any(), holder).Return([]models.CredentialRecord{s.record}, nil)
	s.verifier.EXPECT().Verify(gomock.Any(), s.record).Return(s.verified())

	var logged models.VerificationLogEntry
	s.log.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e models.VerificationLogEntry) error {
			logged = e
			return nil
		})
	s.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	got, err := s.service.Verify(s.ctx, holder, s.record.CredentialHash)
	s.Require().NoError(err)
	s.Equal(models.OutcomeVerified, got.Outcome)

	s.Equal(s.record.CredentialHash, logged.CredentialHash)
	s.Equal(holder, logged.Account)
	s.Equal("req-42", logged.RequestID)
	s.Contains(logged.Device, "Firefox")
	s.Equal(time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC), logged.VerifiedAt)
	s.False(logged.ID.IsNil())
}

func (s *ServiceSuite) TestVerify_RecordingFailuresDoNotChangeOutcome() {
	tampered := s.verified()
	tampered.Outcome = models.OutcomeTampered
	tampered.Failure = models.FailureHashMismatch

	s.ledger.EXPECT().ListCredentials(gomock.Any(), holder).Return([]models.CredentialRecord{s.record}, nil)
	s.verifier.EXPECT().Verify(gomock.Any(), s.record).Return(tampered)
	s.log.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("db down"))
	s.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	got, err := s.service.Verify(s.ctx, holder, s.record.CredentialHash)
	s.Require().NoError(err)
	s.Equal(models.OutcomeTampered, got.Outcome)
	s.Equal(models.FailureHashMismatch, got.Failure)
}

func (s *ServiceSuite) TestDisclose_FailureKeepsKind() {
	s.ledger.EXPECT().ListCredentials(gomock.Any(), holder).Return([]models.CredentialRecord{s.record}, nil)
	s.discloser.EXPECT().Disclose(gomock.Any(), s.record).Return(disclosure.Disclosure{},
		&disclosure.Error{Failure: models.FailureContentParse, Cause: errors.New("not json")})

	_, err := s.service.Disclose(s.ctx, holder, s.record.CredentialHash)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	s.Equal(models.FailureContentParse, disclosure.FailureOf(err))
}

func (s *ServiceSuite) TestDisclose_DoesNotRecordVerification() {
	s.ledger.EXPECT().ListCredentials(gomock.Any(), holder).Return([]models.CredentialRecord{s.record}, nil)
	view := models.NewDisclosedView(canonical.NewObject().Set("name", "Alice"))
	s.discloser.EXPECT().Disclose(gomock.Any(), s.record).Return(disclosure.Disclosure{Record: s.record, View: view}, nil)

	got, err := s.service.Disclose(s.ctx, holder, s.record.CredentialHash)
	s.Require().NoError(err)
	s.Equal([]string{"name"}, got.View.Keys())
}

func (s *ServiceSuite) TestEnter() {
	s.Run("invalid user is rejected", func() {
		_, err := s.service.Enter(s.ctx, "alice", "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("no user is an empty entry", func() {
		res, err := s.service.Enter(s.ctx, "", aliceDigest)
		s.Require().NoError(err)
		s.Empty(res.Account)
		s.Empty(res.Records)
		s.Nil(res.Verification)
	})

	s.Run("no hash lists only", func() {
		s.ledger.EXPECT().ListCredentials(gomock.Any(), holder).Return([]models.CredentialRecord{s.record}, nil)

		res, err := s.service.Enter(s.ctx, string(holder), "")
		s.Require().NoError(err)
		s.Len(res.Records, 1)
		s.Nil(res.Verification)
	})

	s.Run("malformed hash is ignored", func() {
		s.ledger.EXPECT().ListCredentials(gomock.Any(), holder).Return([]models.CredentialRecord{s.record}, nil)

		res, err := s.service.Enter(s.ctx, string(holder), "0xnothex")
		s.Require().NoError(err)
		s.Len(res.Records, 1)
		s.Nil(res.Verification)
	})

	s.Run("unmatched hash is ignored", func() {
		s.ledger.EXPECT().ListCredentials(gomock.Any(), holder).Return([]models.CredentialRecord{s.record}, nil)

		res, err := s.service.Enter(s.ctx, string(holder), "0xf647382a5e9f6a0279d8c07bd1b8a95ae8876ed1506f5ef802feb1c9dd49666e")
		s.Require().NoError(err)
		s.Nil(res.Verification)
	})

	s.Run("matching hash auto-verifies", func() {
		s.ledger.EXPECT().ListCredentials(gomock.Any(), holder).Return([]models.CredentialRecord{s.record}, nil)
		s.verifier.EXPECT().Verify(gomock.Any(), s.record).Return(s.verified())
		s.log.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
		s.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

		res, err := s.service.Enter(s.ctx, "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359", "6A308FE061EA4AF115C49A5D1103CDF2014014FCE2D2D5FFFCFCAACB5F7020AB")
		s.Require().NoError(err)
		s.Equal(holder, res.Account)
		s.Require().NotNil(res.Verification)
		s.Equal(models.OutcomeVerified, res.Verification.Outcome)
	})
}

func (s *ServiceSuite) TestListVerifications_StoreFailure() {
	s.log.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	_, err := s.service.ListVerifications(s.ctx, models.LogFilter{})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

// pin stores doc the way the issuer does and anchors its digest for holder.
func pin(t *testing.T, content *contentstore.MemoryStore, l *ledger.MemoryLedger, doc string) models.CredentialRecord {
	t.Helper()
	v, err := canonical.Parse([]byte(doc))
	require.NoError(t, err)
	body, err := canonical.Stringify(v)
	require.NoError(t, err)
	cid, err := content.Pin(context.Background(), "credential.json", body)
	require.NoError(t, err)
	digest := models.Digest(canonical.Keccak256(body))
	_, err = l.Issue(context.Background(), holder, digest, cid)
	require.NoError(t, err)
	return models.CredentialRecord{CredentialHash: digest, IpfsCID: cid}
}

func TestVerifyAllIsolatesRecords(t *testing.T) {
	ctx := context.Background()
	content := contentstore.NewMemoryStore()
	l := ledger.NewMemoryLedger(issuer)
	logStore := store.NewInMemoryStore()

	good := pin(t, content, l, `{"name":"Alice","type":"Degree","year":"2020"}`)
	tampered := pin(t, content, l, `{"name":"Bob","type":"Diploma","year":"2019"}`)
	content.Replace(tampered.IpfsCID, []byte(`{"name":"Bob","type":"Diploma","year":"2029"}`))
	revoked := pin(t, content, l, `{"name":"Carol","type":"Degree","year":"2018"}`)
	_, err := l.Revoke(ctx, revoked.CredentialHash)
	require.NoError(t, err)

	missingCID, err := contentstore.ComputeCID([]byte("never pinned"))
	require.NoError(t, err)
	missing := models.Digest(canonical.Keccak256([]byte("missing")))
	_, err = l.Issue(ctx, holder, missing, missingCID)
	require.NoError(t, err)

	svc := New(l, verifier.New(content), disclosure.New(content),
		WithLogStore(logStore),
		WithConcurrency(2),
	)

	results, err := svc.VerifyAll(ctx, holder)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, good.CredentialHash, results[0].Record.CredentialHash)
	assert.Equal(t, models.OutcomeVerified, results[0].Outcome)
	assert.Equal(t, models.OutcomeTampered, results[1].Outcome)
	assert.Equal(t, models.OutcomeRevoked, results[2].Outcome)
	assert.Equal(t, models.OutcomeFetchFailed, results[3].Outcome)

	entries, err := svc.ListVerifications(ctx, models.LogFilter{Account: holder})
	require.NoError(t, err)
	assert.Len(t, entries, 4)

	tamperedOnly, err := svc.ListVerifications(ctx, models.LogFilter{Outcome: models.OutcomeTampered})
	require.NoError(t, err)
	require.Len(t, tamperedOnly, 1)
	assert.Equal(t, tampered.CredentialHash, tamperedOnly[0].CredentialHash)
}

func TestVerifyAllEmptyAccount(t *testing.T) {
	content := contentstore.NewMemoryStore()
	svc := New(ledger.NewMemoryLedger(issuer), verifier.New(content), disclosure.New(content))

	results, err := svc.VerifyAll(context.Background(), holder)
	require.NoError(t, err)
	assert.Empty(t, results)

	entries, err := svc.ListVerifications(context.Background(), models.LogFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}
