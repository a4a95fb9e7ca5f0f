package run

import "context"

// Analyzed pairs an item with its analysis result, in original fetch order.
type Analyzed[I, R any] struct {
	Item   I
	Result R
}

// PipelineStats summarizes one pipeline pass for the run outcome and logs.
type PipelineStats struct {
	Processed int
	Failed    int
	Aborted   bool
	LastErr   error
}

// Analyze runs the per-item analysis step sequentially; the downstream
// model call is rate-sensitive and gets no fan-out.
//
// Before each item the abort coordinator is consulted; an observed abort
// stops iteration immediately and leaves the run to finish with whatever was
// gathered. A per-item failure is counted and the loop continues: partial
// analysis failure never fails the run as a whole.
func Analyze[I, R any](ctx context.Context, abort *AbortCoordinator, items []I, analyze func(context.Context, I) (R, error)) ([]Analyzed[I, R], PipelineStats) {
	var stats PipelineStats
	results := make([]Analyzed[I, R], 0, len(items))
	for _, item := range items {
		if abort.Aborted() {
			stats.Aborted = true
			break
		}
		r, err := analyze(ctx, item)
		if err != nil {
			stats.Failed++
			stats.LastErr = err
			continue
		}
		stats.Processed++
		results = append(results, Analyzed[I, R]{Item: item, Result: r})
	}
	return results, stats
}
