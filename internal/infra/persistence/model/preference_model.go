package model

import (
	"time"

	"kinwatch/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PreferenceModel is the GORM-specific struct for the 'notification_preferences' table.
type PreferenceModel struct {
	RecipientID      uuid.UUID                                    `gorm:"type:uuid;primary_key"`
	Role             string                                       `gorm:"type:varchar(20);not null"`
	Categories       datatypes.JSONType[map[entity.Category]bool] `gorm:"type:jsonb;not null"`
	CriticalEnabled  bool                                         `gorm:"not null"`
	MediumMode       string                                       `gorm:"type:varchar(16);not null"`
	LowEnabled       bool                                         `gorm:"not null"`
	QuietHours       datatypes.JSONType[entity.QuietHours]        `gorm:"type:jsonb;not null"`
	Channels         datatypes.JSONType[entity.Channels]          `gorm:"type:jsonb;not null"`
	SecurityChannels datatypes.JSONType[entity.Channels]          `gorm:"type:jsonb;not null"`
	Timezone         string                                       `gorm:"type:varchar(64)"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName explicitly sets the table name for GORM.
func (PreferenceModel) TableName() string {
	return "notification_preferences"
}
