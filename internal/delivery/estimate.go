package delivery

import (
	"errors"

	"github.com/shopspring/decimal"

	"laundryops/internal/domain"
	"laundryops/internal/geo"
)

const ReasonMissingData = "missing address or outlet configuration"

var ErrMissingLocation = errors.New(ReasonMissingData)

func Success(distanceKm float64, fee int64) domain.DeliveryEstimate {
	return domain.DeliveryEstimate{Status: domain.DeliverySuccess, DistanceKm: distanceKm, Fee: fee}
}

func Unavailable(reason string) domain.DeliveryEstimate {
	return domain.DeliveryEstimate{Status: domain.DeliveryUnavailable, Reason: reason}
}

// Estimate computes the delivery fee between a customer and an outlet:
// baseFee + perKmRate * distance, rounded to a whole currency unit. The
// distance used for the fee is unrounded; the reported distance is rounded to
// one decimal. The outlet's service radius plays no part here, see
// WithinServiceRadius.
func Estimate(customer *domain.GeoPoint, outlet *domain.OutletDeliveryConfig) domain.DeliveryEstimate {
	if customer == nil || outlet == nil {
		return Unavailable(ReasonMissingData)
	}

	distance := geo.DistanceKm(*customer, outlet.Location)
	fee := decimal.NewFromInt(outlet.BaseFee).
		Add(decimal.NewFromInt(outlet.PerKmRate).Mul(decimal.NewFromFloat(distance))).
		Round(0).
		IntPart()

	return Success(geo.Round1(distance), fee)
}

// WithinServiceRadius is the order-acceptance eligibility check. It is kept
// apart from Estimate so that an out-of-radius address still gets a fee.
func WithinServiceRadius(customer *domain.GeoPoint, outlet *domain.OutletDeliveryConfig) (bool, error) {
	if customer == nil || outlet == nil {
		return false, ErrMissingLocation
	}
	return geo.DistanceKm(*customer, outlet.Location) <= outlet.ServiceRadiusKm, nil
}
