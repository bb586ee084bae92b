// Package kafka replicates committed audit records to a Kafka topic. The
// local store stays authoritative; replication is best effort.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/platform/circuit"
)

// ErrCircuitOpen is returned while the broker is considered unavailable.
var ErrCircuitOpen = errors.New("kafka publisher circuit open")

// Producer is the subset of *kgo.Client used for publishing.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Publisher is an audit.Publisher. Records are keyed by decision ID so all
// records for one decision land on one partition.
type Publisher struct {
	producer Producer
	topic    string
	timeout  time.Duration
	breaker  *circuit.Breaker
}

type Option func(*Publisher)

func WithTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(p *Publisher) {
		if b != nil {
			p.breaker = b
		}
	}
}

func New(producer Producer, topic string, opts ...Option) (*Publisher, error) {
	if producer == nil {
		return nil, errors.New("kafka producer is required")
	}
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	p := &Publisher{
		producer: producer,
		topic:    topic,
		timeout:  5 * time.Second,
		breaker:  circuit.New("kafka-audit"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Publisher) Publish(ctx context.Context, rec *audit.Record, payload []byte) error {
	if !p.breaker.Allow() {
		return ErrCircuitOpen
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	r := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(rec.Decision.ID),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "kind", Value: []byte(rec.Kind)},
			{Key: "sequence", Value: []byte(strconv.FormatUint(rec.Sequence, 10))},
			{Key: "record_hash", Value: []byte(rec.RecordHash)},
			{Key: "model_version", Value: []byte(rec.ModelVersion)},
		},
	}
	if err := p.producer.ProduceSync(ctx, r).FirstErr(); err != nil {
		p.breaker.RecordFailure()
		return fmt.Errorf("produce record %d: %w", rec.Sequence, err)
	}
	p.breaker.RecordSuccess()
	return nil
}
