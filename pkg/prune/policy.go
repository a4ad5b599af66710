package prune

// GrowthPolicy decides whether probe traffic justifies building a finer
// table. probes and entries aggregate the current table set; budget is the
// memory ceiling in bytes. The policy only triggers the attempt; the Manager
// still checks that the finer table fits the budget.
type GrowthPolicy func(probes, entries, budget uint64) bool

// growthFactor is the nominal probe-to-entry ratio at which a finer table
// pays for itself.
const growthFactor = 3

// DefaultGrowthPolicy grows once lookups outnumber stored entries threefold.
func DefaultGrowthPolicy(probes, entries, budget uint64) bool {
	return entries > 0 && probes > growthFactor*entries
}

// NeverGrow pins the table set; useful for reproducing runs and for tests.
func NeverGrow(probes, entries, budget uint64) bool { return false }
