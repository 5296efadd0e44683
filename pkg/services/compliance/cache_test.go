package compliance

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageNameCache_ResolvesOnce(t *testing.T) {
	cache := NewImageNameCache()
	var calls atomic.Int32
	release := make(chan struct{})

	resolve := func(_ context.Context, id string) (string, bool) {
		calls.Add(1)
		<-release
		return "name-of-" + id, true
	}

	var wg sync.WaitGroup
	names := make([]string, 20)
	for i := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			names[i], _ = cache.Resolve(context.Background(), "img-a", resolve)
		}()
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, name := range names {
		assert.Equal(t, "name-of-img-a", name)
	}

	name, ok := cache.Resolve(context.Background(), "img-a", func(context.Context, string) (string, bool) {
		t.Fatal("cached id resolved again")
		return "", false
	})
	assert.True(t, ok)
	assert.Equal(t, "name-of-img-a", name)
	assert.Equal(t, 1, cache.Len())
}

func TestImageNameCache_CachesMisses(t *testing.T) {
	cache := NewImageNameCache()
	calls := 0
	resolve := func(context.Context, string) (string, bool) {
		calls++
		return "", false
	}

	_, ok := cache.Resolve(context.Background(), "img-x", resolve)
	assert.False(t, ok)
	_, ok = cache.Resolve(context.Background(), "img-x", resolve)
	assert.False(t, ok)
	assert.Equal(t, 1, calls)

	_, ok, found := cache.Lookup("img-x")
	assert.True(t, found)
	assert.False(t, ok)

	_, _, found = cache.Lookup("img-y")
	assert.False(t, found)
}
