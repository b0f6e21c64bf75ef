package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IncidentStatus string

const (
	IncidentStatusOpen       IncidentStatus = "OPEN"
	IncidentStatusInProgress IncidentStatus = "IN_PROGRESS"
	IncidentStatusResolved   IncidentStatus = "RESOLVED"
)

type IncidentSeverity string

const (
	IncidentSeverityLow    IncidentSeverity = "LOW"
	IncidentSeverityMedium IncidentSeverity = "MEDIUM"
	IncidentSeverityHigh   IncidentSeverity = "HIGH"
)

// Incident is a fault report tied to exactly one resource. Status only moves
// forward; RESOLVED is terminal and the record is immutable afterwards.
type Incident struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ResourceID   uuid.UUID        `gorm:"type:uuid;not null;index" json:"resource_id"`
	ReportedBy   uuid.UUID        `gorm:"type:uuid;not null;index" json:"reported_by"`
	Title        string           `gorm:"type:varchar(255);not null" json:"title"`
	Description  string           `gorm:"type:text;not null" json:"description"`
	Severity     IncidentSeverity `gorm:"type:incident_severity;not null" json:"severity"`
	EtaLabel     string           `gorm:"type:varchar(100)" json:"eta_label"`
	Cause        string           `gorm:"type:varchar(100)" json:"cause"`
	ActionsTaken string           `gorm:"type:text" json:"actions_taken"`
	PhotoRef     *string          `gorm:"type:text" json:"photo_ref,omitempty"`
	Status       IncidentStatus   `gorm:"type:incident_status;not null;default:OPEN" json:"status"`
	ResolvedAt   *time.Time       `json:"resolved_at,omitempty"`
	CreatedAt    time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Incident) TableName() string {
	return "incidents"
}

func (i *Incident) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
