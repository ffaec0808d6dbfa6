package utils

import (
	"testing"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/stretchr/testify/assert"
)

func float64Ptr(v float64) *float64 {
	return &v
}

func TestValidateTemperatureRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     models.RecordTemperatureRequest
		wantErr bool
	}{
		{
			name:    "zero celsius is a real reading",
			req:     models.RecordTemperatureRequest{Stage: "arrival", TemperatureC: float64Ptr(0)},
			wantErr: false,
		},
		{
			name:    "negative reading",
			req:     models.RecordTemperatureRequest{Stage: "departure", TemperatureC: float64Ptr(-1.5)},
			wantErr: false,
		},
		{
			name:    "missing reading",
			req:     models.RecordTemperatureRequest{Stage: "serving"},
			wantErr: true,
		},
		{
			name:    "unknown stage",
			req:     models.RecordTemperatureRequest{Stage: "loading", TemperatureC: float64Ptr(70)},
			wantErr: true,
		},
		{
			name:    "missing stage",
			req:     models.RecordTemperatureRequest{TemperatureC: float64Ptr(70)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.req)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
