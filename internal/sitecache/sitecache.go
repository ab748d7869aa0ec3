// Package sitecache is a redis read-through cache over the site directory.
// Site records are effectively immutable snapshots once bookings reference
// them, which makes them safe to cache with a generous TTL.
package sitecache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vacinajp/vacinajp/internal/model"
	"github.com/vacinajp/vacinajp/internal/store"
)

var _ store.SiteDirectory = (*Directory)(nil)

// Directory caches site lookups in redis, falling back to the wrapped
// directory on miss or redis failure.
type Directory struct {
	client *redis.Client
	next   store.SiteDirectory
	ttl    time.Duration
}

// New wraps next with a redis cache.
func New(client *redis.Client, next store.SiteDirectory, ttl time.Duration) *Directory {
	return &Directory{client: client, next: next, ttl: ttl}
}

// Create writes through to the underlying directory and primes the cache.
func (d *Directory) Create(ctx context.Context, site *model.Site) error {
	if err := d.next.Create(ctx, site); err != nil {
		return err
	}
	d.set(ctx, site)
	return nil
}

// Get returns the cached site, loading and caching it on miss.
func (d *Directory) Get(ctx context.Context, siteID string) (*model.Site, error) {
	if b, err := d.client.Get(ctx, cacheKey(siteID)).Bytes(); err == nil {
		var site model.Site
		if err := json.Unmarshal(b, &site); err == nil {
			return &site, nil
		}
	}
	site, err := d.next.Get(ctx, siteID)
	if err != nil {
		return nil, err
	}
	d.set(ctx, site)
	return site, nil
}

func (d *Directory) set(ctx context.Context, site *model.Site) {
	b, err := json.Marshal(site)
	if err != nil {
		return
	}
	// Cache failures are invisible to callers; the next Get falls through.
	d.client.Set(ctx, cacheKey(site.ID), b, d.ttl)
}

func cacheKey(siteID string) string {
	return "site:" + siteID
}
