package docstore

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// Cached serves Get from a TTL cache and forwards everything else to the
// wrapped store. Writes through Cached invalidate the affected entry;
// changes seen on a Watch refresh it.
type Cached struct {
	Store
	cache *cache.Cache
}

func NewCached(next Store, ttl time.Duration) *Cached {
	return &Cached{Store: next, cache: cache.New(ttl, 2*ttl)}
}

func cacheKey(collection, id string) string {
	return collection + "/" + id
}

func (c *Cached) Get(ctx context.Context, collection, id string) (Document, error) {
	if v, ok := c.cache.Get(cacheKey(collection, id)); ok {
		return clone(v.(Document)), nil
	}
	doc, err := c.Store.Get(ctx, collection, id)
	if err != nil {
		return Document{}, err
	}
	c.cache.SetDefault(cacheKey(collection, id), clone(doc))
	return doc, nil
}

func (c *Cached) Set(ctx context.Context, collection, id string, data map[string]any) error {
	defer c.cache.Delete(cacheKey(collection, id))
	return c.Store.Set(ctx, collection, id, data)
}

func (c *Cached) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	defer c.cache.Delete(cacheKey(collection, id))
	return c.Store.Update(ctx, collection, id, fields)
}

func (c *Cached) Delete(ctx context.Context, collection, id string) error {
	defer c.cache.Delete(cacheKey(collection, id))
	return c.Store.Delete(ctx, collection, id)
}

func (c *Cached) Watch(ctx context.Context, collection, id string) (<-chan Change, error) {
	in, err := c.Store.Watch(ctx, collection, id)
	if err != nil {
		return nil, err
	}

	out := make(chan Change, 1)
	go func() {
		defer close(out)
		for ch := range in {
			if ch.Kind == ChangeDeleted {
				c.cache.Delete(cacheKey(collection, id))
			} else {
				c.cache.SetDefault(cacheKey(collection, id), clone(ch.Document))
			}
			select {
			case out <- ch:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Flush drops every cached document.
func (c *Cached) Flush() {
	c.cache.Flush()
}
