package geo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/fern/pkg/models"
)

func point(lat, lon float64, at time.Time) models.TrackingPoint {
	return models.TrackingPoint{Latitude: lat, Longitude: lon, RecordedAt: at}
}

func TestTotalDistanceKm_EmptyAndSinglePoint(t *testing.T) {
	now := time.Now()

	assert.Equal(t, 0.0, TotalDistanceKm(nil))
	assert.Equal(t, 0.0, TotalDistanceKm([]models.TrackingPoint{}))
	assert.Equal(t, 0.0, TotalDistanceKm([]models.TrackingPoint{point(1.5, 103.8, now)}))
}

func TestTotalDistanceKm_OneDegreeOfLongitudeAtEquator(t *testing.T) {
	now := time.Now()
	points := []models.TrackingPoint{
		point(0, 0, now),
		point(0, 1, now.Add(time.Minute)),
	}

	// One degree of longitude at the equator is about 111.19 km
	assert.InDelta(t, 111.19, TotalDistanceKm(points), 0.01)
}

func TestTotalDistanceKm_OrdersByRecordedAtNotInsertion(t *testing.T) {
	base := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	forward := []models.TrackingPoint{
		point(0, 0, base),
		point(0, 0.5, base.Add(5*time.Minute)),
		point(0, 1, base.Add(10*time.Minute)),
	}

	// Same set pushed in reverse arrival order (network retry reordering)
	reversed := []models.TrackingPoint{forward[2], forward[0], forward[1]}

	assert.Equal(t, TotalDistanceKm(forward), TotalDistanceKm(reversed))
}

func TestTotalDistanceKm_SortingChangesTheResult(t *testing.T) {
	base := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)

	// Out-and-back trail: naive insertion-order accumulation over the
	// shuffled slice would double-count the middle leg.
	points := []models.TrackingPoint{
		point(0, 1, base.Add(10*time.Minute)),
		point(0, 0, base),
		point(0, 2, base.Add(20*time.Minute)),
	}

	assert.InDelta(t, 222.39, TotalDistanceKm(points), 0.01)
}

func TestLatestPoint(t *testing.T) {
	base := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)

	assert.Nil(t, LatestPoint(nil))

	points := []models.TrackingPoint{
		point(0, 1, base.Add(10*time.Minute)),
		point(0, 2, base.Add(20*time.Minute)),
		point(0, 0, base),
	}

	latest := LatestPoint(points)
	assert.NotNil(t, latest)
	assert.Equal(t, 2.0, latest.Longitude)
}
