package kafka

import (
	"testing"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTelemetry(t *testing.T) {
	msg := &IncomingMessage{
		Value: []byte(`{"tenant_id":"tenant-1","delivery_id":"del-1","latitude":41.0082,"longitude":28.9784,"status":"departed","recorded_at":"2026-08-14T10:30:00Z"}`),
	}

	err := msg.ParseTelemetry()
	require.NoError(t, err)
	require.NotNil(t, msg.Telemetry)

	assert.Equal(t, "tenant-1", msg.Telemetry.TenantID)
	assert.Equal(t, "del-1", msg.Telemetry.DeliveryID)
	assert.InDelta(t, 41.0082, msg.Telemetry.Latitude, 1e-9)
	assert.InDelta(t, 28.9784, msg.Telemetry.Longitude, 1e-9)
	require.NotNil(t, msg.Telemetry.Status)
	assert.Equal(t, models.DeliveryStatusDeparted, *msg.Telemetry.Status)
	require.NotNil(t, msg.Telemetry.RecordedAt)
	assert.Equal(t, time.Date(2026, 8, 14, 10, 30, 0, 0, time.UTC), msg.Telemetry.RecordedAt.UTC())
}

func TestParseTelemetryMalformed(t *testing.T) {
	msg := &IncomingMessage{Value: []byte(`not json`)}

	err := msg.ParseTelemetry()
	assert.Error(t, err)
	assert.Nil(t, msg.Telemetry)
}

func TestGetTenantIDFallsBackToHeader(t *testing.T) {
	msg := &IncomingMessage{
		Headers:   map[string]string{"tenant_id": "tenant-2"},
		Telemetry: &TelemetryMessage{DeliveryID: "del-1"},
	}

	assert.Equal(t, "tenant-2", msg.GetTenantID())

	msg.Telemetry.TenantID = "tenant-1"
	assert.Equal(t, "tenant-1", msg.GetTenantID())
}

func TestGetDeliveryIDFallsBackToKey(t *testing.T) {
	msg := &IncomingMessage{
		Key:       "del-from-key",
		Telemetry: &TelemetryMessage{},
	}

	assert.Equal(t, "del-from-key", msg.GetDeliveryID())

	msg.Telemetry.DeliveryID = "del-from-body"
	assert.Equal(t, "del-from-body", msg.GetDeliveryID())
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		msg      *IncomingMessage
		expected bool
	}{
		{
			name: "full identity in body",
			msg: &IncomingMessage{
				Telemetry: &TelemetryMessage{TenantID: "tenant-1", DeliveryID: "del-1"},
			},
			expected: true,
		},
		{
			name: "identity from header and key",
			msg: &IncomingMessage{
				Key:       "del-1",
				Headers:   map[string]string{"tenant_id": "tenant-1"},
				Telemetry: &TelemetryMessage{},
			},
			expected: true,
		},
		{
			name: "missing tenant",
			msg: &IncomingMessage{
				Key:       "del-1",
				Telemetry: &TelemetryMessage{DeliveryID: "del-1"},
			},
			expected: false,
		},
		{
			name: "missing delivery",
			msg: &IncomingMessage{
				Telemetry: &TelemetryMessage{TenantID: "tenant-1"},
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.msg.IsValid())
		})
	}
}

func TestToLocationRequest(t *testing.T) {
	recordedAt := time.Date(2026, 8, 14, 10, 30, 0, 0, time.UTC)
	status := models.DeliveryStatusDeparted

	msg := &IncomingMessage{
		Telemetry: &TelemetryMessage{
			TenantID:   "tenant-1",
			DeliveryID: "del-1",
			Latitude:   41.0082,
			Longitude:  28.9784,
			Status:     &status,
			RecordedAt: &recordedAt,
		},
	}

	req := msg.ToLocationRequest()
	require.NotNil(t, req)
	assert.InDelta(t, 41.0082, req.Latitude, 1e-9)
	assert.InDelta(t, 28.9784, req.Longitude, 1e-9)
	assert.Equal(t, &status, req.Status)
	assert.Equal(t, &recordedAt, req.RecordedAt)
}

func TestToLocationRequestUnparsed(t *testing.T) {
	msg := &IncomingMessage{Value: []byte(`{}`)}
	assert.Nil(t, msg.ToLocationRequest())
}
