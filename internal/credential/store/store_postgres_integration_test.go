//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"credo/internal/credential/canonical"
	"credo/internal/credential/models"
	"credo/internal/credential/store"
	id "credo/pkg/domain"
	"credo/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background()))
}

func (s *PostgresStoreSuite) TestAppendAndList() {
	ctx := context.Background()
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	hash := models.Digest(canonical.Keccak256([]byte("alice")))

	for i, outcome := range []models.Outcome{models.OutcomeVerified, models.OutcomeTampered} {
		v := models.Verification{
			Record:  models.CredentialRecord{CredentialHash: hash, IpfsCID: "bafkreigh2akiscaildcqabsyg3dfr6chu3fgpregiymsck7e7aqa4s52zy"},
			Outcome: outcome,
			Failure: models.Failure(""),
			Reason:  "reason",
		}
		if outcome == models.OutcomeTampered {
			v.Failure = models.FailureHashMismatch
		}
		entry := models.NewVerificationLogEntry(v, id.Account("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"),
			"Firefox on Linux", "req-1", at.Add(time.Duration(i)*time.Minute))
		s.Require().NoError(s.store.Append(ctx, entry))
	}

	got, err := s.store.List(ctx, models.LogFilter{CredentialHash: &hash})
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(models.OutcomeTampered, got[0].Outcome)
	s.Equal(models.FailureHashMismatch, got[0].Failure)
	s.Equal(hash, got[0].CredentialHash)
	s.Equal(at.Add(time.Minute), got[0].VerifiedAt)
	s.Equal("Firefox on Linux", got[0].Device)

	got, err = s.store.List(ctx, models.LogFilter{Outcome: models.OutcomeVerified, Limit: 1})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(models.OutcomeVerified, got[0].Outcome)

	got, err = s.store.List(ctx, models.LogFilter{Account: "0x0000000000000000000000000000000000000001"})
	s.Require().NoError(err)
	s.Empty(got)
}
