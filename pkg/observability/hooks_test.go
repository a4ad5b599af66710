package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Search hooks
	s := NoopSearchHooks{}
	s.OnBoundStart(ctx, 6)
	s.OnBoundComplete(ctx, 6, 1234, time.Second)
	s.OnSolution(ctx, "R U R'", 3)
	s.OnAbort(ctx, "cancelled")

	// Table hooks
	tb := NoopTableHooks{}
	tb.OnBuildStart(ctx, "perm", 40320)
	tb.OnBuildDepth(ctx, "perm", 3, 512)
	tb.OnBuildComplete(ctx, "perm", 11, time.Second, nil)
	tb.OnGrowSkipped(ctx, "full", 1<<30)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "table")
	c.OnCacheMiss(ctx, "solution")
	c.OnCacheSet(ctx, "table", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Search().(NoopSearchHooks); !ok {
		t.Error("Search() should return NoopSearchHooks by default")
	}
	if _, ok := Tables().(NoopTableHooks); !ok {
		t.Error("Tables() should return NoopTableHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	// Set custom hooks
	customSearch := &testSearchHooks{}
	SetSearchHooks(customSearch)
	if Search() != customSearch {
		t.Error("SetSearchHooks should set custom hooks")
	}

	customTables := &testTableHooks{}
	SetTableHooks(customTables)
	if Tables() != customTables {
		t.Error("SetTableHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Search().(NoopSearchHooks); !ok {
		t.Error("Reset() should restore NoopSearchHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testSearchHooks{}
	SetSearchHooks(custom)

	// Setting nil should be ignored
	SetSearchHooks(nil)

	if Search() != custom {
		t.Error("SetSearchHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testSearchHooks struct{ NoopSearchHooks }
type testTableHooks struct{ NoopTableHooks }
type testCacheHooks struct{ NoopCacheHooks }
