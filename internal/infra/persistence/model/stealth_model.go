package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// StealthQueueModel is the GORM-specific struct for the 'stealth_queue' table.
// Rows are sealed: nothing outside the expiry sweep reads them back.
type StealthQueueModel struct {
	ID               uuid.UUID      `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	FamilyID         uuid.UUID      `gorm:"type:uuid;not null;index"`
	TargetUserID     uuid.UUID      `gorm:"type:uuid;not null"`
	NotificationType string         `gorm:"type:varchar(64);not null"`
	Payload          datatypes.JSON `gorm:"type:jsonb"`
	CapturedAt       time.Time      `gorm:"not null"`
	ExpiresAt        time.Time      `gorm:"not null;index"`
	TicketID         string         `gorm:"type:varchar(64)"`
}

// TableName explicitly sets the table name for GORM.
func (StealthQueueModel) TableName() string {
	return "stealth_queue"
}

// AdminAuditModel is the GORM-specific struct for the 'admin_audit_log' table.
type AdminAuditModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Action    string         `gorm:"type:varchar(32);not null"`
	FamilyID  uuid.UUID      `gorm:"type:uuid;not null;index"`
	TicketID  string         `gorm:"type:varchar(64)"`
	Actor     string         `gorm:"type:varchar(255);not null"`
	Details   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (AdminAuditModel) TableName() string {
	return "admin_audit_log"
}
