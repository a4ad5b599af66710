// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about searches, pruning-table builds, and cache operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetSearchHooks(&mySearchHooks{})
//	    observability.SetTableHooks(&myTableHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Search().OnBoundStart(ctx, bound)
//	// ... expand the iteration ...
//	observability.Search().OnBoundComplete(ctx, bound, nodes, duration)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Search Hooks
// =============================================================================

// SearchHooks receives events from the iterative-deepening search.
type SearchHooks interface {
	// OnBoundStart records the start of one depth-bound iteration.
	OnBoundStart(ctx context.Context, bound int)

	// OnBoundComplete records a finished iteration and the nodes it expanded.
	OnBoundComplete(ctx context.Context, bound int, nodes uint64, duration time.Duration)

	// OnSolution records a minimal solution the moment it is found.
	OnSolution(ctx context.Context, algorithm string, length int)

	// OnAbort records a cancelled or cut-off search.
	OnAbort(ctx context.Context, reason string)
}

// =============================================================================
// Table Hooks
// =============================================================================

// TableHooks receives events from pruning-table construction and growth.
type TableHooks interface {
	// OnBuildStart records the start of a table build.
	OnBuildStart(ctx context.Context, table string, entries int)

	// OnBuildDepth records the completion of one BFS depth layer.
	OnBuildDepth(ctx context.Context, table string, depth int, filled int)

	// OnBuildComplete records a finished build.
	OnBuildComplete(ctx context.Context, table string, maxDepth int, duration time.Duration, err error)

	// OnGrowSkipped records a growth attempt abandoned for lack of memory.
	OnGrowSkipped(ctx context.Context, table string, needed uint64)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSearchHooks is a no-op implementation of SearchHooks.
type NoopSearchHooks struct{}

func (NoopSearchHooks) OnBoundStart(context.Context, int)                          {}
func (NoopSearchHooks) OnBoundComplete(context.Context, int, uint64, time.Duration) {}
func (NoopSearchHooks) OnSolution(context.Context, string, int)                    {}
func (NoopSearchHooks) OnAbort(context.Context, string)                            {}

// NoopTableHooks is a no-op implementation of TableHooks.
type NoopTableHooks struct{}

func (NoopTableHooks) OnBuildStart(context.Context, string, int)                          {}
func (NoopTableHooks) OnBuildDepth(context.Context, string, int, int)                     {}
func (NoopTableHooks) OnBuildComplete(context.Context, string, int, time.Duration, error) {}
func (NoopTableHooks) OnGrowSkipped(context.Context, string, uint64)                      {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	searchHooks SearchHooks = NoopSearchHooks{}
	tableHooks  TableHooks  = NoopTableHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	hooksMu     sync.RWMutex
)

// SetSearchHooks registers custom search hooks.
// This should be called once at application startup before any search runs.
func SetSearchHooks(h SearchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		searchHooks = h
	}
}

// SetTableHooks registers custom table hooks.
// This should be called once at application startup before any table builds.
func SetTableHooks(h TableHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		tableHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Search returns the registered search hooks.
func Search() SearchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return searchHooks
}

// Tables returns the registered table hooks.
func Tables() TableHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return tableHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	searchHooks = NoopSearchHooks{}
	tableHooks = NoopTableHooks{}
	cacheHooks = NoopCacheHooks{}
}
