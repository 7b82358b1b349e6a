package source

import (
	"context"

	"golang.org/x/sync/singleflight"

	"compras/internal/cache"
	"compras/internal/core"
	applog "compras/internal/log"
)

// CachedClient wraps a Client with an explicit read-through LRU cache keyed
// by the fetch parameters. The cache is advisory: a miss or eviction only
// costs another fetch. Identical in-flight fetches are collapsed so a burst
// of load actions triggers one upstream call.
type CachedClient struct {
	client *Client
	cache  *cache.LRU[[]core.RawRecord]
	group  singleflight.Group
}

// NewCachedClient wires a client to the given cache.
func NewCachedClient(client *Client, c *cache.LRU[[]core.RawRecord]) *CachedClient {
	return &CachedClient{client: client, cache: c}
}

// Fetch returns cached records for the parameter set or falls through to the
// underlying client. Errors are never cached.
func (c *CachedClient) Fetch(ctx context.Context, params FetchParams) ([]core.RawRecord, error) {
	key := params.Key()

	if records, ok := c.cache.Get(key); ok {
		applog.Default(applog.ComponentCache).DebugContext(ctx, "fetch cache hit",
			applog.FieldCacheKey, key)
		return records, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		records, err := c.client.Fetch(ctx, params)
		if err != nil {
			return nil, err
		}
		c.cache.Set(key, records)
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]core.RawRecord), nil
}
