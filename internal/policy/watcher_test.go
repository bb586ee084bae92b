package policy

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reloadedTable = `policies:
  NEW_CODE:
    - document: Reloaded Policy
      section: "9.9"
      summary: Reloaded from disk
`

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policies.yaml")
	require.NoError(t, os.WriteFile(path, []byte("policies:\n  OLD:\n    - {document: D, section: '1'}\n"), 0o600))

	r := NewResolver(DefaultTable())
	w := NewWatcher(path, r, slog.New(slog.NewTextHandler(io.Discard, nil)), WithDebounce(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		assert.NoError(t, <-done)
	}()

	// rewrite until the watcher has registered and picked the change up
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(reloadedTable), 0o600)
		return len(r.Retrieve([]string{"NEW_CODE"})) == 1
	}, 5*time.Second, 50*time.Millisecond)

	assert.Equal(t, []string{"NEW_CODE"}, r.Codes())
}

func TestReloadKeepsPreviousTableOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.yaml")
	require.NoError(t, os.WriteFile(path, []byte("policies: [broken\n"), 0o600))

	var hookErr error
	r := NewResolver(DefaultTable())
	w := NewWatcher(path, r, slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithReloadHook(func(err error) { hookErr = err }))

	err := w.Reload(context.Background())

	require.Error(t, err)
	assert.Equal(t, err, hookErr)
	assert.Len(t, r.Retrieve([]string{"HIGH_DTI_RATIO"}), 2)
}
