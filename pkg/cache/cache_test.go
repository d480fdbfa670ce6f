package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ddlc/pkg/arena"
	"ddlc/pkg/compiler"
	"ddlc/pkg/ddl"
)

func setupTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func compileDef(t *testing.T, src string) ddl.Definition {
	t.Helper()
	d, err := compiler.Compile(arena.NewLinear(1<<16), arena.NewLinear(1<<16), []byte(src), compiler.Options{})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	return d
}

func TestKey(t *testing.T) {
	src := []byte("select A { x; }")
	if Key(src, "a") != Key(src, "a") {
		t.Error("expected keys to be stable")
	}
	if Key(src, "a") == Key(src, "b") {
		t.Error("expected settings to change the key")
	}
	if Key(src, "") == Key([]byte("select A { y; }"), "") {
		t.Error("expected source to change the key")
	}
	if len(Key(src, "")) != 16 {
		t.Errorf("expected 16 hex digits, got %q", Key(src, ""))
	}
}

func TestPutAndGet(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()
	def := compileDef(t, "select A { x; }\nstruct S { A a; }\n")
	key := Key([]byte("src"), "")

	if _, err := c.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	put, err := c.Put(ctx, key, def)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if put.BuildID == "" || put.Aggregates != 2 {
		t.Errorf("unexpected entry: %+v", put)
	}

	got, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.BuildID != put.BuildID || got.Digest != put.Digest {
		t.Errorf("expected build %s, got %s", put.BuildID, got.BuildID)
	}
	stored, err := ddl.FromBytes(got.Blob)
	if err != nil {
		t.Fatalf("FromBytes failed: %v", err)
	}
	if _, ok := stored.FindAggregate("S"); !ok {
		t.Error("expected S in the cached definition")
	}

	again, err := c.Put(ctx, key, def)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if again.BuildID == put.BuildID {
		t.Error("expected a new build id on replace")
	}
	if n, _ := c.Len(ctx); n != 1 {
		t.Errorf("expected 1 entry, got %d", n)
	}
}

func TestGetCorrupt(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()
	def := compileDef(t, "select A { x; }")

	if _, err := c.Put(ctx, "k", def); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := c.db.Exec(`UPDATE blobs SET data = ? WHERE key = ?`, []byte{1, 2, 3}, "k"); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	if n, _ := c.Len(ctx); n != 0 {
		t.Errorf("expected the corrupt entry to be evicted, got %d entries", n)
	}
}

func TestPrune(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()
	def := compileDef(t, "select A { x; }")
	for _, k := range []string{"a", "b"} {
		if _, err := c.Put(ctx, k, def); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	n, err := c.Prune(ctx, time.Now().Add(-time.Hour))
	if err != nil || n != 0 {
		t.Fatalf("expected nothing pruned, got %d %v", n, err)
	}
	n, err = c.Prune(ctx, time.Now().Add(time.Hour))
	if err != nil || n != 2 {
		t.Fatalf("expected 2 pruned, got %d %v", n, err)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := Open(path)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	if _, err := c.Put(context.Background(), "k", compileDef(t, "select A { x; }")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	c.Close()

	c, err = Open(path)
	if err != nil {
		t.Fatalf("reopen cache: %v", err)
	}
	defer c.Close()
	if _, err := c.Get(context.Background(), "k"); err != nil {
		t.Errorf("expected the entry to survive a reopen, got %v", err)
	}
}
