package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DailyReport is an operator's once-per-day fuel-level self-report. It is an
// observational record only and never feeds ledger balances. Uniqueness on
// (operator_id, report_date) is enforced by the database.
type DailyReport struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	OperatorID      uuid.UUID `gorm:"type:uuid;not null;index" json:"operator_id"`
	ResourceID      uuid.UUID `gorm:"type:uuid;not null;index" json:"resource_id"`
	ReportDate      time.Time `gorm:"type:date;not null" json:"report_date"`
	RemainingLiters float64   `gorm:"not null" json:"remaining_liters"`
	ImageRef        string    `gorm:"type:text;not null" json:"image_ref"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (DailyReport) TableName() string {
	return "daily_reports"
}

func (r *DailyReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
