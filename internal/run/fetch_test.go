package run

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcherPreservesListingOrder(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	// Later ids finish first, so completion order is the reverse of input
	// order.
	delays := map[string]time.Duration{
		"a": 50 * time.Millisecond,
		"b": 40 * time.Millisecond,
		"c": 30 * time.Millisecond,
		"d": 20 * time.Millisecond,
		"e": 10 * time.Millisecond,
	}

	f := Fetcher[string]{
		List: func(context.Context) ([]string, error) { return ids, nil },
		Get: func(_ context.Context, id string) (string, error) {
			time.Sleep(delays[id])
			return "detail-" + id, nil
		},
		Limit: 5,
	}

	details, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"detail-a", "detail-b", "detail-c", "detail-d", "detail-e"}, details)
}

func TestFetcherConcurrencyCap(t *testing.T) {
	var mu sync.Mutex
	inflight, peak := 0, 0

	f := Fetcher[string]{
		List: func(context.Context) ([]string, error) {
			return []string{"1", "2", "3", "4", "5"}, nil
		},
		Get: func(_ context.Context, id string) (string, error) {
			mu.Lock()
			inflight++
			if inflight > peak {
				peak = inflight
			}
			mu.Unlock()
			time.Sleep(10 * time.Millisecond)
			mu.Lock()
			inflight--
			mu.Unlock()
			return id, nil
		},
		Limit: 2,
	}

	_, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.LessOrEqual(t, peak, 2)
}

func TestFetcherAllOrNothing(t *testing.T) {
	f := Fetcher[string]{
		List: func(context.Context) ([]string, error) {
			return []string{"ok-1", "bad", "ok-2"}, nil
		},
		Get: func(_ context.Context, id string) (string, error) {
			if id == "bad" {
				return "", errors.New("detail fetch exploded")
			}
			return id, nil
		},
		Limit: 1,
	}

	details, err := f.Fetch(context.Background())
	assert.Error(t, err)
	assert.Nil(t, details)
}

func TestFetcherListFailureRejects(t *testing.T) {
	f := Fetcher[string]{
		List: func(context.Context) ([]string, error) {
			return nil, errors.New("listing exploded")
		},
		Get: func(_ context.Context, id string) (string, error) {
			t.Fatal("Get must not be called when the listing fails")
			return "", nil
		},
	}

	_, err := f.Fetch(context.Background())
	assert.Error(t, err)
}

func TestFetcherSkipsBlankIdentifiers(t *testing.T) {
	f := Fetcher[string]{
		List: func(context.Context) ([]string, error) {
			return []string{"a", "", "  ", "b"}, nil
		},
		Get: func(_ context.Context, id string) (string, error) {
			return "detail-" + id, nil
		},
	}

	details, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"detail-a", "detail-b"}, details)
}

func TestFetcherEmptyListing(t *testing.T) {
	f := Fetcher[string]{
		List: func(context.Context) ([]string, error) { return nil, nil },
		Get: func(_ context.Context, id string) (string, error) {
			return "", fmt.Errorf("unexpected get for %q", id)
		},
	}

	details, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, details)
}

func TestFetcherDefaultLimit(t *testing.T) {
	var calls atomic.Int64
	f := Fetcher[string]{
		List: func(context.Context) ([]string, error) { return []string{"a", "b"}, nil },
		Get: func(_ context.Context, id string) (string, error) {
			calls.Add(1)
			return id, nil
		},
	}

	_, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}
