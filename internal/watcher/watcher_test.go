package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_DebouncesWritesToWatchedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "knowledge.yaml")
	if err := writeFile(path, "entries: []"); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w := NewWatcher([]string{path}, func() { calls.Add(1) }, WithDebounce(150*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	for i := 0; i < 5; i++ {
		if err := writeFile(path, "entries: [] # edit"); err != nil {
			t.Fatal(err)
		}
	}
	if !waitFor(t, 2*time.Second, func() bool { return calls.Load() >= 1 }) {
		t.Fatal("expected a change callback")
	}
	time.Sleep(300 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("callbacks = %d, want 1 for one burst of writes", got)
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "knowledge.yaml")
	if err := writeFile(path, "x"); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w := NewWatcher([]string{path}, func() { calls.Add(1) }, WithDebounce(50*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := writeFile(filepath.Join(dir, "notes.txt"), "unrelated"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Errorf("callbacks = %d, want 0", got)
	}
}

func TestWatcher_SeesReplaceByRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matrices.xlsx")
	if err := writeFile(path, "old"); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w := NewWatcher([]string{path}, func() { calls.Add(1) }, WithDebounce(50*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	tmp := filepath.Join(dir, ".matrices.xlsx.tmp")
	if err := writeFile(tmp, "new"); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return calls.Load() >= 1 }) {
		t.Error("expected a change callback after rename over the watched file")
	}
}

func TestWatcher_StartWithoutFiles(t *testing.T) {
	w := NewWatcher(nil, func() {})
	if err := w.Start(context.Background()); !errors.Is(err, ErrNoFiles) {
		t.Errorf("Start() error = %v, want ErrNoFiles", err)
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "k.yaml")
	if err := writeFile(path, "x"); err != nil {
		t.Fatal(err)
	}
	w := NewWatcher([]string{path}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	w.Stop()
	w.Stop()
}

type fakeReloadable struct {
	mu    sync.Mutex
	paths []string
	err   error
	calls int
}

func (f *fakeReloadable) Reload() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeReloadable) Paths() []string { return f.paths }

func (f *fakeReloadable) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestForKnowledge_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.yaml")
	if err := writeFile(path, "x"); err != nil {
		t.Fatal(err)
	}
	src := &fakeReloadable{paths: []string{path}}
	w := ForKnowledge(src, WithDebounce(50*time.Millisecond))
	if got := w.Files(); len(got) != 1 {
		t.Fatalf("Files() = %v", got)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := writeFile(path, "y"); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return src.Calls() >= 1 }) {
		t.Error("expected Reload to be called")
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}
