package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Run("nil error stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})

	t.Run("cause is reachable through the chain", func(t *testing.T) {
		cause := stderrors.New("disk full")
		err := Wrap(cause, CodePersistence, "append audit record")

		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "append audit record: disk full", err.Error())
		assert.Equal(t, CodePersistence, CodeOf(err))
	})
}

func TestHasCode(t *testing.T) {
	inner := New(CodeNotFound, "decision not found")
	outer := Wrap(inner, CodeInternal, "lookup failed")
	foreign := fmt.Errorf("handler: %w", outer)

	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"direct code", inner, CodeNotFound, true},
		{"outer code", outer, CodeInternal, true},
		{"nested code", outer, CodeNotFound, true},
		{"through fmt wrapping", foreign, CodeNotFound, true},
		{"absent code", outer, CodeValidation, false},
		{"plain error", stderrors.New("boom"), CodeInternal, false},
		{"nil error", nil, CodeInternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasCode(tt.err, tt.code))
		})
	}
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(stderrors.New("boom")))
}
