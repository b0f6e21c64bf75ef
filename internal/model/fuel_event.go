package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FuelEventType string

const (
	FuelEventReplenishment FuelEventType = "REPLENISHMENT"
	FuelEventConsumption   FuelEventType = "CONSUMPTION"
)

// FuelEvent is one row of the append-only fuel ledger, a tagged union of the
// two variants. A replenishment carries the issuing operator for audit and no
// resource; a consumption carries the consuming resource and operator.
// Rows are never updated or deleted; corrections are new offsetting events.
type FuelEvent struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	EventType  FuelEventType `gorm:"type:fuel_event_type;not null;index" json:"event_type"`
	Quantity   float64       `gorm:"not null" json:"quantity"`
	OccurredAt time.Time     `gorm:"not null;index" json:"occurred_at"`
	Note       *string       `gorm:"type:text" json:"note,omitempty"`
	ResourceID *uuid.UUID    `gorm:"type:uuid;index" json:"resource_id,omitempty"`
	OperatorID uuid.UUID     `gorm:"type:uuid;not null;index" json:"operator_id"`
	CreatedAt  time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

func (FuelEvent) TableName() string {
	return "fuel_events"
}

func (e *FuelEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// StockTotals holds the derived sums of the ledger over some window.
// The current stock is always Replenished - Consumed; it is never stored.
type StockTotals struct {
	Replenished float64 `json:"replenished"`
	Consumed    float64 `json:"consumed"`
}

func (t StockTotals) Balance() float64 {
	return t.Replenished - t.Consumed
}
