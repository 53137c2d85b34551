// -----------------------------------------------------------------------
// Package identifiers owns recipe identifier allocation for a crawl run:
// one process-wide counter, contiguous ids in crawl order.
// -----------------------------------------------------------------------

package identifiers

import "sync"

// Allocator assigns each recipe base + position, where position is the
// 1-based index within the current category's link list and base is the
// running total of links in all prior categories. The mutex only matters if
// categories are ever crawled in parallel; allocation and the sink are the
// two components such an extension must serialize.
type Allocator struct {
	mu   sync.Mutex
	base int
}

// NewAllocator creates an allocator with the counter at zero
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Stamp returns the identifier for the recipe at the given 1-based position
// in the current category's link list.
func (a *Allocator) Stamp(position int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.base + position
}

// CompleteCategory advances the base by the number of links discovered in
// the finished category, regardless of how many were successfully saved, so
// a skipped fetch never shifts later categories' identifiers.
func (a *Allocator) CompleteCategory(linkCount int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.base += linkCount
}

// Allocated returns the total number of identifiers consumed so far
func (a *Allocator) Allocated() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.base
}
