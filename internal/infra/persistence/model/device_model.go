package model

import (
	"time"

	"github.com/google/uuid"
)

// PushEndpointModel is the GORM-specific struct for the 'push_endpoints' table.
// It represents a recipient's device registered for push notifications.
type PushEndpointModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	RecipientID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_endpoint_device,priority:1"`
	Token       string    `gorm:"type:varchar(255);not null"`
	DeviceID    string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_endpoint_device,priority:2"`
	Platform    string    `gorm:"type:varchar(50);not null"`
	IsActive    bool      `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName explicitly sets the table name for GORM.
func (PushEndpointModel) TableName() string {
	return "push_endpoints"
}
