package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ThrottleRecordModel is the GORM-specific struct for the 'notification_throttles' table.
// One row per (recipient, kind, subject); writes overwrite.
type ThrottleRecordModel struct {
	RecipientID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Kind          string    `gorm:"type:varchar(32);primaryKey"`
	Subject       string    `gorm:"type:varchar(255);primaryKey"`
	Discriminator string    `gorm:"type:varchar(255)"`
	ThresholdHrs  int       `gorm:"not null;default:0"`
	LastSentAt    time.Time `gorm:"not null"`
}

// TableName explicitly sets the table name for GORM.
func (ThrottleRecordModel) TableName() string {
	return "notification_throttles"
}

// DigestItemModel is the GORM-specific struct for the 'digest_queue' table.
type DigestItemModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	RecipientID   uuid.UUID `gorm:"type:uuid;not null;index:idx_digest_pending,priority:1"`
	FamilyID      uuid.UUID `gorm:"type:uuid;not null"`
	SourceEventID uuid.UUID `gorm:"type:uuid"`
	ChildID       uuid.UUID `gorm:"type:uuid"`
	ChildName     string    `gorm:"type:varchar(255)"`
	Severity      string    `gorm:"type:varchar(16);not null"`
	Category      string    `gorm:"type:varchar(64);not null"`
	QueuedAt      time.Time `gorm:"not null"`
	DigestType    string    `gorm:"type:varchar(16);not null;index:idx_digest_pending,priority:2"`
	Processed     bool      `gorm:"not null;default:false;index:idx_digest_pending,priority:3"`
	ProcessedAt   *time.Time
}

// TableName explicitly sets the table name for GORM.
func (DigestItemModel) TableName() string {
	return "digest_queue"
}

// DelayedNotificationModel is the GORM-specific struct for the 'delayed_notifications' table.
type DelayedNotificationModel struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	RecipientID uuid.UUID      `gorm:"type:uuid;not null;index"`
	FamilyID    uuid.UUID      `gorm:"type:uuid;not null"`
	Category    string         `gorm:"type:varchar(64);not null"`
	Event       datatypes.JSON `gorm:"type:jsonb;not null"`
	DeliverAt   time.Time      `gorm:"not null;index:idx_delayed_due,priority:2"`
	Status      string         `gorm:"type:varchar(16);not null;default:'pending';index:idx_delayed_due,priority:1"`
	Reason      string         `gorm:"type:varchar(64)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName explicitly sets the table name for GORM.
func (DelayedNotificationModel) TableName() string {
	return "delayed_notifications"
}

// HistoryEntryModel is the GORM-specific struct for the 'notification_history' table.
// It is append-only.
type HistoryEntryModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	RecipientID uuid.UUID `gorm:"type:uuid;not null;index:idx_history_recipient,priority:1"`
	FamilyID    uuid.UUID `gorm:"type:uuid;not null"`
	EventID     uuid.UUID `gorm:"type:uuid"`
	Category    string    `gorm:"type:varchar(64);not null"`
	Severity    string    `gorm:"type:varchar(16)"`
	Channel     string    `gorm:"type:varchar(16)"`
	Status      string    `gorm:"type:varchar(16);not null"`
	Reason      string    `gorm:"type:varchar(64)"`
	MessageID   string    `gorm:"type:text"`
	DedupKey    string    `gorm:"type:varchar(255);index"`
	CreatedAt   time.Time `gorm:"index:idx_history_recipient,priority:2"`
}

// TableName explicitly sets the table name for GORM.
func (HistoryEntryModel) TableName() string {
	return "notification_history"
}
