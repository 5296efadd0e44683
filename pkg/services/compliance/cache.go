package compliance

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

type imageName struct {
	name string
	ok   bool
}

// ImageNameCache maps image ids to resolved names for the evaluation of a single region.
// Concurrent lookups of the same id share one upstream call and the first stored value wins.
type ImageNameCache struct {
	mu    sync.RWMutex
	names map[string]imageName
	group singleflight.Group
}

func NewImageNameCache() *ImageNameCache {
	return &ImageNameCache{names: make(map[string]imageName)}
}

// Lookup returns the cached name of id. found is false when id was never resolved.
func (c *ImageNameCache) Lookup(id string) (name string, ok bool, found bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, found := c.names[id]
	return v.name, v.ok, found
}

// Resolve returns the cached name of id, calling resolve only if id is not cached yet.
func (c *ImageNameCache) Resolve(
	ctx context.Context,
	id string,
	resolve func(ctx context.Context, id string) (string, bool),
) (string, bool) {
	if name, ok, found := c.Lookup(id); found {
		return name, ok
	}

	v, _, _ := c.group.Do(id, func() (any, error) {
		if name, ok, found := c.Lookup(id); found {
			return imageName{name: name, ok: ok}, nil
		}
		name, ok := resolve(ctx, id)
		return c.storeIfAbsent(id, imageName{name: name, ok: ok}), nil
	})
	res := v.(imageName)
	return res.name, res.ok
}

func (c *ImageNameCache) storeIfAbsent(id string, v imageName) imageName {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, found := c.names[id]; found {
		return existing
	}
	c.names[id] = v
	return v
}

func (c *ImageNameCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.names)
}
