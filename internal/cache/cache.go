// Package cache stores rendered reports keyed by a fingerprint of the
// records they were built from.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"grocerybi/internal/observability"
	"grocerybi/internal/sales"
	"grocerybi/pkg/errors"
	"grocerybi/pkg/models"
)

// Cache is a byte-oriented key/value store with per-entry expiry
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// New builds the backend named by cfg.Backend
func New(ctx context.Context, cfg models.Cache, ttl time.Duration) (Cache, error) {
	switch cfg.Backend {
	case "", models.CacheNone:
		return Noop{}, nil
	case models.CacheMemory:
		return NewMemoryCache(MemoryConfig{
			MaxEntries: cfg.MaxEntries,
			DefaultTTL: ttl,
		}), nil
	case models.CacheRedis:
		return NewRedisCache(ctx, RedisConfig{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	default:
		return nil, errors.ValidationError("cache.backend", cfg.Backend,
			fmt.Sprintf("must be one of %s, %s, %s", models.CacheNone, models.CacheMemory, models.CacheRedis))
	}
}

// Noop never stores anything
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (Noop) Close() error { return nil }

// Key fingerprints the raw records together with the alias table that will
// normalize them. Equal inputs give equal keys regardless of map order.
func Key(records []sales.Record, aliases map[string]string) string {
	h := sha256.New()

	from := make([]string, 0, len(aliases))
	for k := range aliases {
		from = append(from, k)
	}
	sort.Strings(from)
	for _, k := range from {
		fmt.Fprintf(h, "alias\x1f%s\x1f%s\x1e", k, aliases[k])
	}

	for _, r := range records {
		weight := "-"
		if r.ItemWeight.Valid {
			weight = r.ItemWeight.Decimal.String()
		}
		fmt.Fprintf(h, "%s\x1f%s\x1f%s\x1f%d\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s\x1e",
			r.ItemFatContent, r.ItemIdentifier, r.ItemType, r.OutletEstablishmentYear,
			r.OutletIdentifier, r.OutletLocationType, r.OutletSize, r.OutletType,
			r.ItemVisibility.String(), weight, r.TotalSales.String(), r.Rating.String())
	}

	return hex.EncodeToString(h.Sum(nil))
}

// Fetch returns the cached value for key, or computes, stores and returns
// it. A failing backend degrades to computing without caching.
func Fetch(ctx context.Context, c Cache, key string, ttl time.Duration, compute func() ([]byte, error)) ([]byte, bool, error) {
	logger := observability.GetDefaultLogger().WithField("component", "cache")

	value, ok, err := c.Get(ctx, key)
	if err != nil {
		logger.WithError(err).Warn("Cache read failed")
	}
	if ok {
		observability.CacheHits.Inc()
		return value, true, nil
	}
	observability.CacheMisses.Inc()

	value, err = compute()
	if err != nil {
		return nil, false, err
	}

	if err := c.Set(ctx, key, value, ttl); err != nil {
		logger.WithError(err).Warn("Cache write failed")
	}
	return value, false, nil
}
