package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	jakarta := Point{Latitude: -6.2088, Longitude: 106.8456}
	bandung := Point{Latitude: -6.9175, Longitude: 107.6191}

	t.Run("same point is zero", func(t *testing.T) {
		for _, p := range []Point{jakarta, bandung, {}, {Latitude: 90, Longitude: 180}, {Latitude: -45.5, Longitude: -73.25}} {
			assert.Equal(t, 0.0, DistanceKm(p, p))
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		pairs := [][2]Point{
			{jakarta, bandung},
			{{Latitude: 0, Longitude: 0}, {Latitude: 60, Longitude: 10}},
			{{Latitude: -33.86, Longitude: 151.2}, {Latitude: 51.5, Longitude: -0.12}},
		}
		for _, pair := range pairs {
			assert.InDelta(t, DistanceKm(pair[0], pair[1]), DistanceKm(pair[1], pair[0]), 1e-9)
		}
	})

	t.Run("one degree of latitude is about 111 km", func(t *testing.T) {
		for _, lon := range []float64{-170, -45, 0, 33.3, 106.8, 179} {
			d := DistanceKm(Point{Latitude: 10, Longitude: lon}, Point{Latitude: 11, Longitude: lon})
			assert.InDelta(t, 111.0, d, 1.0, "lon=%v", lon)
		}
	})

	t.Run("known city pair", func(t *testing.T) {
		assert.InDelta(t, 116.0, DistanceKm(jakarta, bandung), 3.0)
	})

	t.Run("antipodes stay finite", func(t *testing.T) {
		d := DistanceKm(Point{Latitude: 0, Longitude: 0}, Point{Latitude: 0, Longitude: 180})
		assert.False(t, math.IsNaN(d))
		assert.InDelta(t, math.Pi*EarthRadiusKm, d, 1e-6)
	})

	t.Run("never negative", func(t *testing.T) {
		assert.GreaterOrEqual(t, DistanceKm(Point{Latitude: 1e-12}, Point{}), 0.0)
	})
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 3.5, Round1(3.46))
	assert.Equal(t, 12.3, Round1(12.3456))
	assert.Equal(t, 0.0, Round1(0.04))
}
