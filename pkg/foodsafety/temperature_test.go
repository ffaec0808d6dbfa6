package foodsafety

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestClassify_HotBands(t *testing.T) {
	tests := []struct {
		name  string
		tempC float64
		want  Classification
	}{
		{"lower safe boundary", 60, ClassificationSafe},
		{"upper safe boundary", 85, ClassificationSafe},
		{"middle of safe band", 72.5, ClassificationSafe},
		{"just below safe", 59.9, ClassificationWarning},
		{"just above safe", 85.1, ClassificationWarning},
		{"lower warning boundary", 55, ClassificationWarning},
		{"upper warning boundary", 90, ClassificationWarning},
		{"below warning", 54.9, ClassificationDanger},
		{"above warning", 90.1, ClassificationDanger},
		{"cold food in hot band", 4, ClassificationDanger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.tempC, models.FoodTypeHot))
		})
	}
}

func TestClassify_ColdBands(t *testing.T) {
	tests := []struct {
		name  string
		tempC float64
		want  Classification
	}{
		{"lower safe boundary", 0, ClassificationSafe},
		{"upper safe boundary", 5, ClassificationSafe},
		{"just above safe", 5.1, ClassificationWarning},
		{"lower warning boundary", -2, ClassificationWarning},
		{"upper warning boundary", 8, ClassificationWarning},
		{"below warning", -2.1, ClassificationDanger},
		{"above warning", 9, ClassificationDanger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.tempC, models.FoodTypeCold))
		})
	}
}

func TestTemperatureChange(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	t.Run("serving minus departure", func(t *testing.T) {
		d := &models.Delivery{DepartureTempC: f(75), ArrivalTempC: f(68), ServingTempC: f(63)}
		change, ok := TemperatureChange(d)
		assert.True(t, ok)
		assert.Equal(t, -12.0, change)
	})

	t.Run("falls back to arrival reading", func(t *testing.T) {
		d := &models.Delivery{ArrivalTempC: f(68), ServingTempC: f(63)}
		change, ok := TemperatureChange(d)
		assert.True(t, ok)
		assert.Equal(t, -5.0, change)
	})

	t.Run("missing serving reading", func(t *testing.T) {
		d := &models.Delivery{DepartureTempC: f(75)}
		_, ok := TemperatureChange(d)
		assert.False(t, ok)
	})

	t.Run("missing baseline", func(t *testing.T) {
		d := &models.Delivery{ServingTempC: f(63)}
		_, ok := TemperatureChange(d)
		assert.False(t, ok)
	})
}
