package resolutioncache

import (
	"testing"
	"time"

	"github.com/terassyi/vx/internal/cachemode"
	"github.com/terassyi/vx/internal/layout"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	l, err := layout.New(layout.WithCacheDir(t.TempDir()), layout.WithStoreDir(t.TempDir()))
	if err != nil {
		t.Fatalf("layout.New: %v", err)
	}
	return New(l)
}

func sampleKey(input string) Key {
	return Key{
		CommandInput:          input,
		ProjectConfigHash:     "cfg-1",
		LockFileHash:          "lock-1",
		Platform:              "x86_64-linux",
		VXVersion:             "1.0.0",
		ResolverSchemaVersion: 1,
	}
}

func sampleGraph(target string) ResolvedGraph {
	return ResolvedGraph{
		Target: target,
		Nodes:  []Node{{Runtime: target, Version: "20.18.0"}},
	}
}

func TestStoreThenLookupHit(t *testing.T) {
	c := newTestCache(t)
	key := sampleKey("vx node --version")

	if err := c.Store(key, sampleGraph("node")); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, hit, err := c.Lookup(key, cachemode.Normal, nil)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !hit {
		t.Fatal("expected a cache hit")
	}
	if got.Target != "node" {
		t.Fatalf("got %+v", got)
	}
}

func TestLookupMissOnUnknownKey(t *testing.T) {
	c := newTestCache(t)
	_, hit, err := c.Lookup(sampleKey("vx node --version"), cachemode.Normal, nil)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if hit {
		t.Fatal("expected a miss for a key never stored")
	}
}

func TestLookupExpiredMissesUnderNormal(t *testing.T) {
	c := newTestCache(t).WithTTL(1 * time.Nanosecond)
	key := sampleKey("vx node --version")
	if err := c.Store(key, sampleGraph("node")); err != nil {
		t.Fatalf("Store: %v", err)
	}
	time.Sleep(2 * time.Millisecond)

	_, hit, err := c.Lookup(key, cachemode.Normal, nil)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if hit {
		t.Fatal("expected an expired entry to miss under Normal")
	}
}

func TestLookupExpiredHitsUnderOffline(t *testing.T) {
	c := newTestCache(t).WithTTL(1 * time.Nanosecond)
	key := sampleKey("vx node --version")
	if err := c.Store(key, sampleGraph("node")); err != nil {
		t.Fatalf("Store: %v", err)
	}
	time.Sleep(2 * time.Millisecond)

	got, hit, err := c.Lookup(key, cachemode.Offline, nil)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !hit || got.Target != "node" {
		t.Fatalf("expected Offline to return the stale hit, got hit=%v got=%+v", hit, got)
	}
}

func TestLookupAlwaysMissesUnderRefresh(t *testing.T) {
	c := newTestCache(t)
	key := sampleKey("vx node --version")
	if err := c.Store(key, sampleGraph("node")); err != nil {
		t.Fatalf("Store: %v", err)
	}

	_, hit, err := c.Lookup(key, cachemode.Refresh, nil)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if hit {
		t.Fatal("expected Refresh to always force a cold resolution")
	}
}

func TestLookupInvalidatedByValidator(t *testing.T) {
	c := newTestCache(t)
	key := sampleKey("vx node --version")
	if err := c.Store(key, sampleGraph("node")); err != nil {
		t.Fatalf("Store: %v", err)
	}

	_, hit, err := c.Lookup(key, cachemode.Normal, func(g *ResolvedGraph) bool { return false })
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if hit {
		t.Fatal("expected a failing Validator to force a miss")
	}
}

func TestKeyDigestChangesWithInputs(t *testing.T) {
	a, err := sampleKey("vx node --version").Digest()
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	b, err := sampleKey("vx npm install").Digest()
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if a == b {
		t.Fatal("expected different command input to change the digest")
	}
}

func TestInvalidateRemovesEntry(t *testing.T) {
	c := newTestCache(t)
	key := sampleKey("vx node --version")
	if err := c.Store(key, sampleGraph("node")); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := c.Invalidate(key); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	_, hit, err := c.Lookup(key, cachemode.Normal, nil)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if hit {
		t.Fatal("expected invalidated entry to miss")
	}
}
