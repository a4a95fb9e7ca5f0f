package run

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DefaultFetchConcurrency bounds simultaneous detail fetches when the caller
// does not configure a limit.
const DefaultFetchConcurrency = 3

// Fetcher retrieves a listing of item identifiers and then the full detail
// for each identifier, holding at most Limit detail requests in flight.
//
// The returned details are in listing order regardless of completion order,
// since they feed deterministic downstream sorting. Failure is all-or-
// nothing: a failed listing or any failed detail fetch rejects the whole
// operation. Partial tolerance lives one layer up, in the analysis pipeline.
type Fetcher[T any] struct {
	// List returns the item identifiers to fetch.
	List func(ctx context.Context) ([]string, error)

	// Get fetches the detail for one identifier.
	Get func(ctx context.Context, id string) (T, error)

	// Limit is the maximum number of in-flight Get calls. Values below 1
	// fall back to DefaultFetchConcurrency.
	Limit int
}

// Fetch runs the listing call and then the bounded detail fetches.
// Identifiers that are blank in the listing response are skipped: they are
// malformed upstream entries, not retrievable-but-erroring ones.
func (f Fetcher[T]) Fetch(ctx context.Context) ([]T, error) {
	ids, err := f.List(ctx)
	if err != nil {
		return nil, err
	}

	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			continue
		}
		kept = append(kept, id)
	}
	if len(kept) == 0 {
		return nil, nil
	}

	limit := f.Limit
	if limit < 1 {
		limit = DefaultFetchConcurrency
	}

	details := make([]T, len(kept))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, id := range kept {
		g.Go(func() error {
			d, err := f.Get(gctx, id)
			if err != nil {
				return err
			}
			details[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return details, nil
}
