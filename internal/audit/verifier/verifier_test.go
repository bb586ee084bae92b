package verifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit"
)

type chainFunc func(ctx context.Context) (*audit.VerifyReport, error)

func (f chainFunc) Verify(ctx context.Context) (*audit.VerifyReport, error) {
	return f(ctx)
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New(chainFunc(nil), "every tuesday", nil)
	assert.Error(t, err)
}

func TestRunOnceKeepsLastReport(t *testing.T) {
	want := &audit.VerifyReport{Records: 4, Valid: true}
	s, err := New(chainFunc(func(context.Context) (*audit.VerifyReport, error) {
		return want, nil
	}), "@hourly", nil)
	require.NoError(t, err)

	assert.Nil(t, s.Last())
	assert.Same(t, want, s.RunOnce(context.Background()))
	assert.Same(t, want, s.Last())
}

func TestRunOnceError(t *testing.T) {
	s, err := New(chainFunc(func(context.Context) (*audit.VerifyReport, error) {
		return nil, errors.New("store offline")
	}), "*/5 * * * *", nil)
	require.NoError(t, err)

	assert.Nil(t, s.RunOnce(context.Background()))
	assert.Nil(t, s.Last())
}

func TestStartStop(t *testing.T) {
	s, err := New(chainFunc(func(context.Context) (*audit.VerifyReport, error) {
		return &audit.VerifyReport{Valid: true}, nil
	}), "@daily", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Start(ctx))
	s.Stop()
	s.Stop()
}
