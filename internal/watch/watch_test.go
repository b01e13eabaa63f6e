package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	bursts [][]string
	fired  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{fired: make(chan struct{}, 16)}
}

func (r *recorder) onChange(names []string) {
	r.mu.Lock()
	r.bursts = append(r.bursts, names)
	r.mu.Unlock()
	r.fired <- struct{}{}
}

func (r *recorder) all() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.bursts...)
}

func startWatcher(t *testing.T, dir string, rec *recorder) context.CancelFunc {
	t.Helper()
	w, err := New(dir, []string{"cards.json", "relationships.json"}, rec.onChange, nil)
	require.NoError(t, err)
	w.Debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	// Give fsnotify time to register the directory.
	time.Sleep(50 * time.Millisecond)
	return cancel
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	startWatcher(t, dir, rec)

	path := filepath.Join(dir, "cards.json")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))
	}

	select {
	case <-rec.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("no change delivered")
	}
	time.Sleep(100 * time.Millisecond)

	bursts := rec.all()
	require.Len(t, bursts, 1)
	assert.Equal(t, []string{"cards.json"}, bursts[0])
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	startWatcher(t, dir, rec)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "raw_data.html"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "relationships.json"), []byte(`[]`), 0o644))

	select {
	case <-rec.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("no change delivered")
	}
	for _, burst := range rec.all() {
		assert.NotContains(t, burst, "raw_data.html")
	}
}
