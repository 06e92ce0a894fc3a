package cache

import (
	"context"
	"time"

	"laundryops/internal/domain"
)

type EstimateCache interface {
	Get(ctx context.Context, key string) (*domain.DeliveryEstimate, bool, error)
	Set(ctx context.Context, key string, value *domain.DeliveryEstimate, ttl time.Duration) error
}

type NoopEstimateCache struct{}

func (NoopEstimateCache) Get(_ context.Context, _ string) (*domain.DeliveryEstimate, bool, error) {
	return nil, false, nil
}

func (NoopEstimateCache) Set(_ context.Context, _ string, _ *domain.DeliveryEstimate, _ time.Duration) error {
	return nil
}
