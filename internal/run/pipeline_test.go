package run

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeToleratesPerItemFailure(t *testing.T) {
	abort := NewAbortCoordinator(context.Background())
	items := []string{"fails", "works"}

	results, stats := Analyze(context.Background(), abort, items, func(_ context.Context, item string) (string, error) {
		if item == "fails" {
			return "", errors.New("model refused")
		}
		return "insight:" + item, nil
	})

	require.Len(t, results, 1)
	assert.Equal(t, "works", results[0].Item)
	assert.Equal(t, "insight:works", results[0].Result)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Failed)
	assert.False(t, stats.Aborted)
	assert.EqualError(t, stats.LastErr, "model refused")
}

func TestAnalyzePreservesFetchOrder(t *testing.T) {
	abort := NewAbortCoordinator(context.Background())
	items := []string{"a", "b", "c"}

	results, stats := Analyze(context.Background(), abort, items, func(_ context.Context, item string) (string, error) {
		return item, nil
	})

	require.Len(t, results, 3)
	for i, item := range items {
		assert.Equal(t, item, results[i].Item)
	}
	assert.Equal(t, 3, stats.Processed)
}

func TestAnalyzeStopsOnAbort(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	abort := NewAbortCoordinator(ctx)
	items := []string{"first", "second"}

	results, stats := Analyze(ctx, abort, items, func(_ context.Context, item string) (string, error) {
		// The abort signal fires while the first item is in flight; the
		// gate at the top of the next iteration must stop the loop.
		cancel()
		return item, nil
	})

	require.Len(t, results, 1)
	assert.Equal(t, "first", results[0].Item)
	assert.Equal(t, 1, stats.Processed)
	assert.True(t, stats.Aborted)
}

func TestAnalyzeAbortBeforeFirstItem(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	abort := NewAbortCoordinator(ctx)

	results, stats := Analyze(ctx, abort, []string{"never"}, func(_ context.Context, item string) (string, error) {
		t.Fatal("analysis must not run after abort")
		return "", nil
	})

	assert.Empty(t, results)
	assert.True(t, stats.Aborted)
	assert.Zero(t, stats.Processed)
}
