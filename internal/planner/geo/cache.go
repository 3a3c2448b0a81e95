package geo

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Tripmate-core-poc-v1/server/internal/planner/model"
)

// CachedGeocoder memoizes successful geocode hits in-process. Misses and
// failures are not cached, so a transient provider outage does not poison the
// cache.
type CachedGeocoder struct {
	inner Geocoder
	cache *gocache.Cache
}

// NewCachedGeocoder wraps a geocoder with a TTL cache. Entries expire after
// ttl and are swept at twice that interval.
func NewCachedGeocoder(inner Geocoder, ttl time.Duration) *CachedGeocoder {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CachedGeocoder{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (g *CachedGeocoder) Geocode(ctx context.Context, name string) (*model.Point, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, nil
	}

	if cached, ok := g.cache.Get(key); ok {
		point := cached.(model.Point)
		return &point, nil
	}

	point, err := g.inner.Geocode(ctx, name)
	if err != nil || point == nil {
		return point, err
	}

	g.cache.SetDefault(key, *point)
	return point, nil
}
