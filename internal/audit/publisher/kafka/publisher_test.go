package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/decision"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/platform/circuit"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		if f.err == nil {
			f.records = append(f.records, r)
		}
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func sampleRecord() *audit.Record {
	return &audit.Record{
		Sequence:     12,
		Kind:         audit.KindDecision,
		Decision:     decision.Decision{ID: "dec-1", ModelVersion: "1.0.0"},
		ModelVersion: "1.0.0",
		RecordHash:   "abc",
	}
}

func TestPublishKeysByDecisionID(t *testing.T) {
	producer := &fakeProducer{}
	p, err := New(producer, "decisions.audit")
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), sampleRecord(), []byte(`{"sequence":12}`)))
	require.Len(t, producer.records, 1)

	r := producer.records[0]
	assert.Equal(t, "decisions.audit", r.Topic)
	assert.Equal(t, "dec-1", string(r.Key))
	assert.Equal(t, `{"sequence":12}`, string(r.Value))
	assert.Contains(t, r.Headers, kgo.RecordHeader{Key: "sequence", Value: []byte("12")})
}

func TestPublishOpensCircuitAfterFailures(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker down")}
	p, err := New(producer, "decisions.audit", WithBreaker(circuit.New("test", circuit.WithFailureThreshold(2))))
	require.NoError(t, err)

	ctx := context.Background()
	assert.Error(t, p.Publish(ctx, sampleRecord(), []byte(`{}`)))
	assert.Error(t, p.Publish(ctx, sampleRecord(), []byte(`{}`)))
	assert.ErrorIs(t, p.Publish(ctx, sampleRecord(), []byte(`{}`)), ErrCircuitOpen)
}

func TestNewRequiresTopic(t *testing.T) {
	_, err := New(&fakeProducer{}, "")
	assert.Error(t, err)
}
