package kafka

import (
	"encoding/json"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
)

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	// Parsed content
	Telemetry *TelemetryMessage
}

// TelemetryMessage is a location ping emitted by a vehicle's onboard unit.
// Status is optional; when present the ping also advances the delivery.
type TelemetryMessage struct {
	TenantID   string                 `json:"tenant_id"`
	DeliveryID string                 `json:"delivery_id"`
	Latitude   float64                `json:"latitude"`
	Longitude  float64                `json:"longitude"`
	Status     *models.DeliveryStatus `json:"status,omitempty"`
	RecordedAt *time.Time             `json:"recorded_at,omitempty"`
}

// ParseTelemetry parses the message value as a telemetry ping
func (m *IncomingMessage) ParseTelemetry() error {
	var ping TelemetryMessage
	if err := json.Unmarshal(m.Value, &ping); err != nil {
		return err
	}
	m.Telemetry = &ping
	return nil
}

// GetTenantID returns the tenant ID from the ping, falling back to the header
func (m *IncomingMessage) GetTenantID() string {
	if m.Telemetry != nil && m.Telemetry.TenantID != "" {
		return m.Telemetry.TenantID
	}
	return m.Headers["tenant_id"]
}

// GetDeliveryID returns the delivery ID from the ping, falling back to the key
func (m *IncomingMessage) GetDeliveryID() string {
	if m.Telemetry != nil && m.Telemetry.DeliveryID != "" {
		return m.Telemetry.DeliveryID
	}
	return m.Key
}

// IsValid reports whether the ping carries enough identity to be routed
func (m *IncomingMessage) IsValid() bool {
	return m.GetTenantID() != "" && m.GetDeliveryID() != ""
}

// ToLocationRequest converts the ping into a location recording request
func (m *IncomingMessage) ToLocationRequest() *models.RecordLocationRequest {
	if m.Telemetry == nil {
		return nil
	}
	return &models.RecordLocationRequest{
		Latitude:   m.Telemetry.Latitude,
		Longitude:  m.Telemetry.Longitude,
		Status:     m.Telemetry.Status,
		RecordedAt: m.Telemetry.RecordedAt,
	}
}
