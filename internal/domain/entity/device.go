package entity

import (
	"time"

	"github.com/google/uuid"
)

// PushEndpoint is a recipient's device registered for push notifications.
type PushEndpoint struct {
	ID          uuid.UUID `json:"id"`           // The Global Unique Identifier (GUID) for the endpoint.
	RecipientID uuid.UUID `json:"recipient_id"` // The guardian or child who owns this device.
	Token       string    `json:"token"`        // Firebase Cloud Messaging registration token.
	DeviceID    string    `json:"device_id"`    // Unique device identifier from the client.
	Platform    string    `json:"platform"`     // Device platform (ios, android).
	IsActive    bool      `json:"is_active"`    // Indicates if this endpoint is active for notifications.
	CreatedAt   time.Time `json:"created_at"`   // Timestamp of when this endpoint was registered.
	UpdatedAt   time.Time `json:"updated_at"`   // Timestamp of the last modification.
}
