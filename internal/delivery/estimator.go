package delivery

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"laundryops/internal/cache"
	"laundryops/internal/domain"
)

// Estimator memoizes Estimate results per outlet configuration and customer
// location. Results are identical with or without a working cache.
type Estimator struct {
	cache    cache.EstimateCache
	cacheTTL time.Duration
	log      *slog.Logger
}

func NewEstimator(cacheStore cache.EstimateCache, cacheTTL time.Duration) *Estimator {
	if cacheStore == nil {
		cacheStore = cache.NoopEstimateCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}

	return &Estimator{
		cache:    cacheStore,
		cacheTTL: cacheTTL,
		log:      slog.With("component", "delivery"),
	}
}

func (e *Estimator) Estimate(ctx context.Context, outletID string, customer *domain.GeoPoint, outlet *domain.OutletDeliveryConfig) domain.DeliveryEstimate {
	if customer == nil || outlet == nil {
		return Unavailable(ReasonMissingData)
	}

	key := buildCacheKey(outletID, *customer, *outlet)
	if cached, ok, err := e.cache.Get(ctx, key); err == nil && ok {
		return *cached
	} else if err != nil {
		e.log.WarnContext(ctx, "estimate cache read failed", "outlet_id", outletID, "error", err)
	}

	estimate := Estimate(customer, outlet)
	if err := e.cache.Set(ctx, key, &estimate, e.cacheTTL); err != nil {
		e.log.WarnContext(ctx, "estimate cache write failed", "outlet_id", outletID, "error", err)
	}
	return estimate
}

func buildCacheKey(outletID string, customer domain.GeoPoint, outlet domain.OutletDeliveryConfig) string {
	raw := fmt.Sprintf(
		"%s|%.5f,%.5f|%.5f,%.5f|%d|%d",
		outletID,
		customer.Latitude, customer.Longitude,
		outlet.Location.Latitude, outlet.Location.Longitude,
		outlet.BaseFee, outlet.PerKmRate,
	)
	hash := sha1.Sum([]byte(raw))
	return "laundry:delivery:" + hex.EncodeToString(hash[:])
}
