package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintIgnoresKeyOrder(t *testing.T) {
	a, err := CanonicalizeJSON([]byte(`{"b":1,"a":{"y":2,"x":[1,2]}}`))
	require.NoError(t, err)
	b, err := CanonicalizeJSON([]byte(`{ "a": {"x":[1,2], "y":2}, "b":1.0 }`))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, `{"a":{"x":[1,2],"y":2},"b":1}`, string(a))
}

func TestFingerprintNormalizesUnicode(t *testing.T) {
	composed, err := Fingerprint(map[string]string{"name": "Jos\u00e9"})
	require.NoError(t, err)
	decomposed, err := Fingerprint(map[string]string{"name": "Jose\u0301"})
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
	assert.Len(t, composed, 64)
}

func TestFingerprintDistinguishesValues(t *testing.T) {
	a, err := Fingerprint(map[string]any{"loanAmount": 50000})
	require.NoError(t, err)
	b, err := Fingerprint(map[string]any{"loanAmount": 50001})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCanonicalizeRejectsInvalidJSON(t *testing.T) {
	_, err := CanonicalizeJSON([]byte(`{"a":`))
	assert.Error(t, err)
}
