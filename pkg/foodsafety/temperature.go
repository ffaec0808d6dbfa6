// Package foodsafety classifies temperature readings against the nutrition
// program's safety bands.
package foodsafety

import "github.com/Ramsey-B/fern/pkg/models"

// Classification is the safety verdict for one reading
type Classification string

const (
	ClassificationSafe    Classification = "safe"
	ClassificationWarning Classification = "warning"
	ClassificationDanger  Classification = "danger"
)

// Safety bands in degrees Celsius. WARNING is the band outside SAFE but
// inside the tolerance window; anything past that is DANGER.
const (
	hotSafeMin    = 60.0
	hotSafeMax    = 85.0
	hotWarningMin = 55.0
	hotWarningMax = 90.0

	coldSafeMin    = 0.0
	coldSafeMax    = 5.0
	coldWarningMin = -2.0
	coldWarningMax = 8.0
)

// Classify evaluates a temperature reading for the given food type
func Classify(tempC float64, foodType models.FoodType) Classification {
	var safeMin, safeMax, warnMin, warnMax float64
	switch foodType {
	case models.FoodTypeCold:
		safeMin, safeMax, warnMin, warnMax = coldSafeMin, coldSafeMax, coldWarningMin, coldWarningMax
	default:
		safeMin, safeMax, warnMin, warnMax = hotSafeMin, hotSafeMax, hotWarningMin, hotWarningMax
	}

	if tempC >= safeMin && tempC <= safeMax {
		return ClassificationSafe
	}
	if tempC >= warnMin && tempC <= warnMax {
		return ClassificationWarning
	}
	return ClassificationDanger
}

// TemperatureChange derives serving minus departure (falling back to the
// arrival reading). Display and alerting only; never gates a transition.
// Returns false when the readings needed are absent.
func TemperatureChange(d *models.Delivery) (float64, bool) {
	if d.ServingTempC == nil {
		return 0, false
	}
	baseline := d.DepartureTempC
	if baseline == nil {
		baseline = d.ArrivalTempC
	}
	if baseline == nil {
		return 0, false
	}
	return *d.ServingTempC - *baseline, true
}
