//go:build integration

package postgres_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit/store/postgres"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/decision"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/platform/sentinel"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = postgres.New(s.postgres.DB)
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_records"))
}

func (s *PostgresStoreSuite) TestLogRoundTripAndVerify() {
	ctx := context.Background()
	log, err := audit.Open(ctx, s.store, audit.WithBackendName("postgres"))
	s.Require().NoError(err)

	ids := make([]string, 3)
	for i := range ids {
		ids[i] = uuid.NewString()
		_, err := log.Append(ctx, audit.Entry{
			Kind:     audit.KindDecision,
			Input:    map[string]any{"applicationId": ids[i]},
			Decision: decision.Decision{ID: ids[i], Outcome: decision.Approve, Probability: 0.8, ReasonCodes: []string{}, ModelVersion: "1.0.0"},
		})
		s.Require().NoError(err)
	}

	rec, err := log.Get(ctx, ids[1])
	s.Require().NoError(err)
	s.Equal(uint64(2), rec.Sequence)

	_, err = log.Get(ctx, uuid.NewString())
	s.ErrorIs(err, sentinel.ErrNotFound)

	report, err := log.Verify(ctx)
	s.Require().NoError(err)
	s.True(report.Valid)
	s.Equal(uint64(3), report.Records)

	reopened, err := audit.Open(ctx, s.store)
	s.Require().NoError(err)
	seq, head := reopened.Head()
	s.Equal(uint64(3), seq)
	s.Equal(report.HeadHash, head)
}
