// Package suggest selects the current suggestion batch for a post
package suggest

import "time"

// DefaultWindow groups suggestions written by one analysis run
const DefaultWindow = 2000 * time.Millisecond

// SelectCurrentBatch keeps the items created within window of the newest one, boundary inclusive,
// in input order. Batches are told apart by timestamp only, so re-analysis never deletes history
func SelectCurrentBatch[T any](items []T, createdAt func(T) time.Time, window time.Duration) []T {
	if len(items) == 0 {
		return []T{}
	}
	latest := createdAt(items[0])
	for _, it := range items[1:] {
		if ts := createdAt(it); ts.After(latest) {
			latest = ts
		}
	}
	floor := latest.Add(-window)

	out := make([]T, 0, len(items))
	for _, it := range items {
		if !createdAt(it).Before(floor) {
			out = append(out, it)
		}
	}
	return out
}
