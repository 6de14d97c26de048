package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_DebouncesBurst(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	var (
		mu    sync.Mutex
		calls int
		seen  []string
	)
	done := make(chan struct{}, 1)

	w, err := New(Config{
		BaseDir:  dir,
		Debounce: 100 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			mu.Lock()
			calls++
			seen = append(seen, changed...)
			mu.Unlock()
			select {
			case done <- struct{}{}:
			default:
			}
			return nil
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	for _, name := range []string{"a.ts", "b.ts", "c.ts"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("OnChange was not called")
	}
	// Let a stray second callback surface if debouncing failed.
	time.Sleep(300 * time.Millisecond)

	cancel()
	require.NoError(t, <-errCh)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
	assert.Subset(t, seen, []string{"a.ts", "b.ts", "c.ts"})
}

func TestWatcher_IgnoresDist(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dist"), 0o755))

	called := make(chan []string, 4)
	w, err := New(Config{
		BaseDir:  dir,
		Debounce: 50 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			called <- changed
			return nil
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "dist", "index.js"), []byte("x"), 0o644))

	select {
	case changed := <-called:
		t.Fatalf("unexpected rebuild for %v", changed)
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-errCh)
}

func TestWatcher_SkipHook(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	called := make(chan []string, 4)
	w, err := New(Config{
		BaseDir:  dir,
		Debounce: 50 * time.Millisecond,
		Skip: func(path string, _ bool) bool {
			return filepath.Ext(path) == ".log"
		},
		OnChange: func(_ context.Context, changed []string) error {
			called <- changed
			return nil
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "debug.log"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.ts"), []byte("x"), 0o644))

	select {
	case changed := <-called:
		assert.Equal(t, []string{"index.ts"}, changed)
	case <-time.After(5 * time.Second):
		t.Fatal("OnChange was not called")
	}

	cancel()
	require.NoError(t, <-errCh)
}

func TestWatcher_RunWaitsForCallback(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	w, err := New(Config{
		BaseDir:  dir,
		Debounce: 50 * time.Millisecond,
		OnChange: func(_ context.Context, _ []string) error {
			once.Do(func() { close(started) })
			<-release
			return nil
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.ts"), []byte("x"), 0o644))
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("OnChange was not called")
	}

	cancel()
	select {
	case <-errCh:
		t.Fatal("Run returned while OnChange was still running")
	case <-time.After(200 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after OnChange finished")
	}
}

func TestWatcher_RunTwice(t *testing.T) {
	t.Parallel()
	w, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, w.Run(ctx))
	assert.True(t, errors.Is(w.Run(ctx), ErrAlreadyRunning))
}

func TestNew_InvalidPattern(t *testing.T) {
	t.Parallel()
	_, err := New(Config{BaseDir: t.TempDir(), Patterns: []string{"[unclosed"}})
	assert.Error(t, err)
}

func TestMatchAny(t *testing.T) {
	t.Parallel()
	tests := []struct {
		rel  string
		want bool
	}{
		{"node_modules/react/index.js", true},
		{".git/HEAD", true},
		{"dist/admin/index.js", true},
		{"admin/src/index.tsx", false},
		{"admin/src/.index.tsx.swp", true},
		{"server/src/.DS_Store", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchAny(defaultIgnores, tt.rel), tt.rel)
	}
}
