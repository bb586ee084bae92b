//go:build integration

package kafka_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit"
	kafkapublisher "github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit/publisher/kafka"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit/store/memory"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/decision"
	platformkafka "github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/platform/kafka"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/platform/logger"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/testutil/containers"
)

type PublisherSuite struct {
	suite.Suite
	broker string
}

func TestPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupSuite() {
	s.broker = containers.GetManager().GetRedpanda(s.T()).Broker
}

func (s *PublisherSuite) config(topic string) platformkafka.Config {
	return platformkafka.Config{
		Brokers:           []string{s.broker},
		ClientID:          "audit-publisher-test",
		Topic:             topic,
		Partitions:        3,
		ReplicationFactor: 1,
		ProduceTimeout:    10 * time.Second,
	}
}

func (s *PublisherSuite) producer(cfg platformkafka.Config) *kgo.Client {
	client, err := platformkafka.NewClient(cfg)
	s.Require().NoError(err)
	s.T().Cleanup(client.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.Require().NoError(platformkafka.EnsureTopic(ctx, client, cfg))
	s.Require().NoError(platformkafka.EnsureTopic(ctx, client, cfg), "existing topic is not an error")
	return client
}

// consume reads n records from the start of topic.
func (s *PublisherSuite) consume(topic string, n int) []*kgo.Record {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var records []*kgo.Record
	for len(records) < n {
		fetches := client.PollFetches(ctx)
		s.Require().NoError(ctx.Err(), "timed out after %d of %d records", len(records), n)
		for _, fe := range fetches.Errors() {
			s.Require().NoError(fe.Err)
		}
		records = append(records, fetches.Records()...)
	}
	return records
}

func entry(id string) audit.Entry {
	return audit.Entry{
		Kind:  audit.KindDecision,
		Input: map[string]any{"applicationId": "app-" + id},
		Decision: decision.Decision{
			ID:           id,
			Outcome:      decision.Review,
			Probability:  0.55,
			ReasonCodes:  []string{decision.ReasonBorderlineRisk},
			ModelVersion: "1.0.0",
		},
	}
}

func (s *PublisherSuite) TestCommittedRecordsAreReplicated() {
	cfg := s.config("audit.replication.records")
	pub, err := kafkapublisher.New(s.producer(cfg), cfg.Topic, kafkapublisher.WithTimeout(cfg.ProduceTimeout))
	s.Require().NoError(err)

	store := memory.New()
	log, err := audit.Open(context.Background(), store,
		audit.WithPublisher(pub),
		audit.WithLogger(logger.Discard()),
	)
	s.Require().NoError(err)

	ids := []string{"dec-a", "dec-b"}
	committed := make(map[string]*audit.Record, len(ids))
	for _, id := range ids {
		rec, err := log.Append(context.Background(), entry(id))
		s.Require().NoError(err)
		committed[id] = rec
	}

	records := s.consume(cfg.Topic, len(ids))
	s.Len(records, len(ids))
	for _, r := range records {
		id := string(r.Key)
		rec, ok := committed[id]
		s.Require().True(ok, "unexpected key %q", id)

		stored, err := store.ReadAt(context.Background(), int64(rec.Sequence-1))
		s.Require().NoError(err)
		s.Equal(stored, r.Value, "value is the committed payload")

		headers := make(map[string]string, len(r.Headers))
		for _, h := range r.Headers {
			headers[h.Key] = string(h.Value)
		}
		s.Equal(string(audit.KindDecision), headers["kind"])
		s.Equal(strconv.FormatUint(rec.Sequence, 10), headers["sequence"])
		s.Equal(rec.RecordHash, headers["record_hash"])
		s.Equal("1.0.0", headers["model_version"])
	}
}

func (s *PublisherSuite) TestSameDecisionLandsOnOnePartition() {
	cfg := s.config("audit.replication.partitioning")
	pub, err := kafkapublisher.New(s.producer(cfg), cfg.Topic)
	s.Require().NoError(err)

	log, err := audit.Open(context.Background(), memory.New(), audit.WithPublisher(pub))
	s.Require().NoError(err)

	for range 3 {
		_, err := log.Append(context.Background(), entry("dec-repeat"))
		s.Require().NoError(err)
	}

	records := s.consume(cfg.Topic, 3)
	for _, r := range records {
		s.Equal("dec-repeat", string(r.Key))
		s.Equal(records[0].Partition, r.Partition)
	}
}
