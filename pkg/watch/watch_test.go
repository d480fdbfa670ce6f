package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

func waitBuild(t *testing.T, builds <-chan int, want int) {
	t.Helper()
	select {
	case n := <-builds:
		if n != want {
			t.Fatalf("expected build %d, got %d", want, n)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for build %d", want)
	}
}

func TestWatcherRebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "main.ddl")
	inc := filepath.Join(dir, "inc.ddl")
	other := filepath.Join(dir, "notes.txt")
	for _, f := range []string{main, inc, other} {
		if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	var count int32
	builds := make(chan int, 16)
	build := func(context.Context) ([]string, error) {
		n := int(atomic.AddInt32(&count, 1))
		builds <- n
		if n == 1 {
			return []string{main, inc}, errors.New("first build fails")
		}
		return []string{main, inc}, nil
	}

	var events int32
	w := New([]string{main}, build, zerolog.Nop())
	w.Debounce = 50 * time.Millisecond
	w.OnEvent = func(fsnotify.Event) { atomic.AddInt32(&events, 1) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitBuild(t, builds, 1)

	if err := os.WriteFile(inc, []byte("y"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	waitBuild(t, builds, 2)

	if err := os.WriteFile(other, []byte("y"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	select {
	case n := <-builds:
		t.Fatalf("expected untracked files to be ignored, got build %d", n)
	case <-time.After(200 * time.Millisecond):
	}
	if atomic.LoadInt32(&events) == 0 {
		t.Error("expected OnEvent to see the tracked change")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected a clean stop, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherDebounces(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "main.ddl")
	if err := os.WriteFile(main, []byte("x"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var count int32
	builds := make(chan int, 16)
	w := New([]string{main}, func(context.Context) ([]string, error) {
		builds <- int(atomic.AddInt32(&count, 1))
		return nil, nil
	}, zerolog.Nop())
	w.Debounce = 300 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)
	waitBuild(t, builds, 1)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(main, []byte{byte('a' + i)}, 0o644); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	waitBuild(t, builds, 2)
	select {
	case n := <-builds:
		t.Fatalf("expected writes to collapse into one build, got build %d", n)
	case <-time.After(500 * time.Millisecond):
	}
}
