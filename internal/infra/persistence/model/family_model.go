package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// FamilyModel is the GORM-specific struct for the 'families' table.
// Only the membership lists and the stealth fields are mapped; the rest of the
// family document is owned by other services.
type FamilyModel struct {
	ID                     uuid.UUID                      `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	GuardianIDs            datatypes.JSONSlice[uuid.UUID] `gorm:"type:jsonb;not null"`
	ChildIDs               datatypes.JSONSlice[uuid.UUID] `gorm:"type:jsonb;not null"`
	StealthActive          bool                           `gorm:"not null;default:false"`
	StealthWindowStart     *time.Time
	StealthWindowEnd       *time.Time                     `gorm:"index"`
	StealthTicketID        string                         `gorm:"type:varchar(64)"`
	StealthAffectedUserIDs datatypes.JSONSlice[uuid.UUID] `gorm:"type:jsonb"`
	FleeingModeActivatedAt *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// TableName explicitly sets the table name for GORM.
func (FamilyModel) TableName() string {
	return "families"
}

// RecipientModel is the GORM-specific struct for the 'recipients' table.
// It is the contact record of a guardian or child.
type RecipientModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key"`
	FamilyID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	Role          string     `gorm:"type:varchar(20);not null"`
	DisplayName   string     `gorm:"type:varchar(255);not null"`
	Email         string     `gorm:"type:varchar(255)"`
	EmailVerified bool       `gorm:"not null;default:false"`
	Phone         string     `gorm:"type:varchar(32)"`
	PhoneVerified bool       `gorm:"not null;default:false"`
	BirthDate     *time.Time `gorm:"type:date"`
	Timezone      string     `gorm:"type:varchar(64)"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName explicitly sets the table name for GORM.
func (RecipientModel) TableName() string {
	return "recipients"
}
