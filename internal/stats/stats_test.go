package stats

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildImpactIncreasesWithTermFrequency(t *testing.T) {
	entry := Build(100, 10000, Params{K1: 1.2, B: 0.75})
	low := entry.ImpactAt(100, 1)
	high := entry.ImpactAt(100, 10)
	assert.Greater(t, high, low)
}

func TestBuildImpactDecreasesWithDocumentLength(t *testing.T) {
	entry := Build(100, 10000, Params{K1: 1.2, B: 0.75})
	short := entry.ImpactAt(50, 5)
	long := entry.ImpactAt(500, 5)
	assert.Greater(t, short, long)
}

func TestImpactAtFallsBackBeyondCachedRange(t *testing.T) {
	entry := Build(10, 1000, Params{K1: 1.2, B: 0.75})
	// A document length far beyond the cached shifted-DL range still
	// returns a sane, finite impact via the direct formula.
	v := entry.ImpactAt(1<<40, 5)
	assert.Greater(t, v, 0.0)
}

func TestCacheGetBuildsOnceAndReusesEntry(t *testing.T) {
	c := NewCache()
	var calls int32
	build := func() (int64, int64) {
		atomic.AddInt32(&calls, 1)
		return 10, 1000
	}

	e1, err := c.Get(42, Params{K1: 1.2, B: 0.75}, build)
	require.NoError(t, err)
	e2, err := c.Get(42, Params{K1: 1.2, B: 0.75}, build)
	require.NoError(t, err)

	assert.Same(t, e1, e2)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestCacheGetDedupesConcurrentBuilds(t *testing.T) {
	c := NewCache()
	var calls int32
	build := func() (int64, int64) {
		atomic.AddInt32(&calls, 1)
		return 5, 500
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Get(7, Params{K1: 1.2, B: 0.75}, build)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestCacheDistinguishesParamsForSameFingerprint(t *testing.T) {
	c := NewCache()
	build := func() (int64, int64) { return 10, 1000 }

	e1, err := c.Get(1, Params{K1: 1.2, B: 0.75}, build)
	require.NoError(t, err)
	e2, err := c.Get(1, Params{K1: 2.0, B: 0.5}, build)
	require.NoError(t, err)
	assert.NotSame(t, e1, e2)
}

func TestInvalidateDropsAllParamsForFingerprint(t *testing.T) {
	c := NewCache()
	build := func() (int64, int64) { return 10, 1000 }
	_, err := c.Get(3, Params{K1: 1.2, B: 0.75}, build)
	require.NoError(t, err)
	_, err = c.Get(3, Params{K1: 2.0, B: 0.5}, build)
	require.NoError(t, err)

	c.Invalidate(3)

	var calls int32
	_, err = c.Get(3, Params{K1: 1.2, B: 0.75}, func() (int64, int64) {
		atomic.AddInt32(&calls, 1)
		return 10, 1000
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls)
}
