// Package watch rebuilds on source changes. A Watcher follows one directory
// tree with fsnotify and calls OnChange once per burst of events.
package watch

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/fulmenhq/strapi-plugin/pkg/logger"
)

// DefaultDebounce is the quiet period before OnChange fires.
const DefaultDebounce = 300 * time.Millisecond

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

// defaultIgnores never trigger a rebuild. Build output lives under dist, so
// ignoring it keeps a rebuild from retriggering itself.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/dist/**",
	"**/.DS_Store",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
}

// Config configures a Watcher.
type Config struct {
	// BaseDir is the tree to watch. Empty means the working directory.
	BaseDir string
	// Patterns select files that trigger OnChange; empty matches all.
	Patterns []string
	// Ignore is merged with the default ignores.
	Ignore []string
	// Skip, when set, is consulted with the absolute path after the patterns.
	Skip     func(path string, isDir bool) bool
	Debounce time.Duration
	// OnChange receives the changed paths relative to BaseDir.
	OnChange func(ctx context.Context, changed []string) error
	Logger   *logger.Logger
}

// Watcher watches one directory tree. Run may be called once.
type Watcher struct {
	cfg      Config
	fsw      *fsnotify.Watcher
	ignores  []string
	debounce time.Duration
	baseDir  string
	log      *logger.Logger
	started  atomic.Bool
}

// New resolves BaseDir, validates patterns and registers every non-ignored
// directory below it.
func New(cfg Config) (*Watcher, error) {
	baseDir := cfg.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		baseDir = wd
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %s: %w", baseDir, err)
	}

	if err := validatePatterns(cfg.Patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validatePatterns(cfg.Ignore, "ignore"); err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  append(slices.Clone(defaultIgnores), cfg.Ignore...),
		debounce: debounce,
		baseDir:  absBase,
		log:      log,
	}
	if err := w.addDirectories(); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			log.Debug("watch: close after init failure", logger.Err(closeErr))
		}
		return nil, err
	}
	return w, nil
}

// BaseDir returns the absolute watched directory.
func (w *Watcher) BaseDir() string {
	return w.baseDir
}

// Run processes events until ctx is cancelled. It waits for a running
// OnChange callback and closes the fsnotify watcher before returning. A
// cancelled context yields nil.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu       sync.Mutex
		pending  = make(map[string]struct{})
		timer    *time.Timer
		busy     atomic.Bool
		closed   bool
		inflight sync.WaitGroup
	)

	// fire runs on the timer goroutine. While a callback is still running,
	// it reschedules itself so pending paths are not dropped.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !busy.CompareAndSwap(false, true) {
			w.log.Debug("watch: rebuild still running, deferring", logger.String("dir", w.baseDir))
			mu.Lock()
			if timer != nil && !closed {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer busy.Store(false)

		// Add happens under mu so it cannot race the Wait in cleanup.
		mu.Lock()
		if closed || len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		inflight.Add(1)
		mu.Unlock()
		defer inflight.Done()

		if w.cfg.OnChange == nil {
			return
		}
		if err := w.cfg.OnChange(ctx, changed); err != nil {
			w.log.Error("watch: rebuild failed", logger.String("dir", w.baseDir), logger.Err(err))
		}
	}

	defer func() {
		mu.Lock()
		closed = true
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		inflight.Wait()
		if err := w.fsw.Close(); err != nil {
			w.log.Debug("watch: close fsnotify", logger.Err(err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			rel, err := filepath.Rel(w.baseDir, evt.Name)
			if err != nil {
				rel = evt.Name
			}
			if w.skip(evt.Name, rel, false) || !w.matches(rel) {
				continue
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}

			w.log.Trace("watch: event", logger.String("op", evt.Op.String()), logger.String("path", rel))

			mu.Lock()
			pending[filepath.ToSlash(rel)] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.log.Warn("watch: fsnotify error", logger.Err(err))
		}
	}
}

func (w *Watcher) addDirectories() error {
	err := filepath.WalkDir(w.baseDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			w.log.Debug("watch: skipping inaccessible path", logger.String("path", path), logger.Err(walkErr))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.baseDir, path)
		if err != nil {
			return nil
		}
		if rel != "." && w.skip(path, rel, true) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk %s: %w", w.baseDir, err)
	}
	return nil
}

// maybeAddDir extends the watch to directories created after startup.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	rel, err := filepath.Rel(w.baseDir, path)
	if err != nil || w.skip(path, rel, true) {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		w.log.Warn("watch: add new directory", logger.String("path", path), logger.Err(err))
	}
}

func (w *Watcher) skip(path, rel string, isDir bool) bool {
	if matchAny(w.ignores, rel) || (isDir && matchAny(w.ignores, rel+"/")) {
		return true
	}
	return w.cfg.Skip != nil && w.cfg.Skip(path, isDir)
}

func (w *Watcher) matches(rel string) bool {
	return len(w.cfg.Patterns) == 0 || matchAny(w.cfg.Patterns, rel)
}

func matchAny(patterns []string, rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, normalized); err == nil && ok {
			return true
		}
	}
	return false
}

func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid %s pattern %q", label, pat)
		}
	}
	return nil
}
