package report

import (
	"context"
	"time"

	"grocerybi/internal/cache"
	"grocerybi/internal/sales"
)

// BuildCached returns a previously built report for the same records and
// aliases when the cache holds one, and builds and stores it otherwise.
func BuildCached(ctx context.Context, c cache.Cache, ttl time.Duration, records []sales.Record, opts ...Option) (*Report, bool, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	key := cache.Key(records, o.aliases)

	var built *Report
	data, hit, err := cache.Fetch(ctx, c, key, ttl, func() ([]byte, error) {
		r, err := Build(ctx, records, opts...)
		if err != nil {
			return nil, err
		}
		built = r
		return r.Encode()
	})
	if err != nil {
		return nil, false, err
	}
	if built != nil {
		return built, false, nil
	}

	r, err := Decode(data)
	if err != nil {
		// an unreadable entry is rebuilt rather than failing the request
		r, err = Build(ctx, records, opts...)
		if err != nil {
			return nil, false, err
		}
		return r, false, nil
	}
	return r, hit, nil
}
