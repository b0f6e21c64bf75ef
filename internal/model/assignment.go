package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Assignment binds one resource to one operator for a time span. At most one
// active assignment may exist per resource and per operator; the database
// enforces this with partial unique indexes on the active projection.
type Assignment struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ResourceID uuid.UUID  `gorm:"type:uuid;not null;index" json:"resource_id"`
	OperatorID uuid.UUID  `gorm:"type:uuid;not null;index" json:"operator_id"`
	Site       string     `gorm:"type:varchar(255);not null" json:"site"`
	StartDate  time.Time  `gorm:"not null" json:"start_date"`
	EndDate    *time.Time `json:"end_date"`
	IsActive   bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Assignment) TableName() string {
	return "assignments"
}

func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
