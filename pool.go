package mdembed

import "runtime"

// Pool sizing constants for batches of documents.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps concurrent documents; each may hold several decoded
	// images in memory.
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for the per-document image workers.
	cpuDivisor = 2
)

// ResolvePoolSize determines how many documents a batch processes at once.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers.
	n := runtime.GOMAXPROCS(0) / cpuDivisor
	return min(max(n, MinPoolSize), MaxPoolSize)
}
