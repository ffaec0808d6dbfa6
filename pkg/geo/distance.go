// Package geo computes read-side aggregates over delivery GPS trails.
package geo

import (
	"math"
	"sort"

	"github.com/Ramsey-B/fern/pkg/models"
)

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometers between two
// latitude/longitude pairs.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// TotalDistanceKm sums the great-circle distance over consecutive points,
// ordered by recorded_at. Ingestion order is not temporal order (mobile
// retries), so the points are sorted before accumulating. Empty and
// single-point trails yield zero. Result is rounded to two decimals.
func TotalDistanceKm(points []models.TrackingPoint) float64 {
	if len(points) < 2 {
		return 0
	}

	ordered := make([]models.TrackingPoint, len(points))
	copy(ordered, points)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].RecordedAt.Before(ordered[j].RecordedAt)
	})

	var total float64
	for i := 1; i < len(ordered); i++ {
		total += Haversine(ordered[i-1].Latitude, ordered[i-1].Longitude, ordered[i].Latitude, ordered[i].Longitude)
	}

	return math.Round(total*100) / 100
}

// LatestPoint returns the point with the greatest recorded_at, or nil for an
// empty trail.
func LatestPoint(points []models.TrackingPoint) *models.TrackingPoint {
	if len(points) == 0 {
		return nil
	}
	latest := points[0]
	for _, p := range points[1:] {
		if p.RecordedAt.After(latest.RecordedAt) {
			latest = p
		}
	}
	return &latest
}
