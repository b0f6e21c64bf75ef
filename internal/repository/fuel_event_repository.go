package repository

import (
	"context"
	"iter"
	"time"

	"gorm.io/gorm"

	"fleet-service/internal/model"
)

type FuelEventRepository struct {
	db *gorm.DB
}

func NewFuelEventRepository(db *gorm.DB) *FuelEventRepository {
	return &FuelEventRepository{db: db}
}

// Append inserts a ledger event. There is deliberately no update or delete
// here: the table carries an append-only trigger and corrections are made
// with new offsetting events.
func (r *FuelEventRepository) Append(ctx context.Context, event *model.FuelEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// Totals sums both event variants, optionally bounded below by since. Stock
// is always derived from this sum and never read from a stored counter.
func (r *FuelEventRepository) Totals(ctx context.Context, since *time.Time) (model.StockTotals, error) {
	var totals model.StockTotals
	query := r.db.WithContext(ctx).Model(&model.FuelEvent{}).
		Select(`
			COALESCE(SUM(CASE WHEN event_type = 'REPLENISHMENT' THEN quantity ELSE 0 END), 0) AS replenished,
			COALESCE(SUM(CASE WHEN event_type = 'CONSUMPTION' THEN quantity ELSE 0 END), 0) AS consumed
		`)
	if since != nil {
		query = query.Where("occurred_at >= ?", *since)
	}
	err := query.Scan(&totals).Error
	return totals, err
}

type FuelHistoryFilter struct {
	Search    string
	EventType *model.FuelEventType
	Since     *time.Time
}

// Stream yields ledger events newest-first straight off a database cursor.
// The sequence is lazy, finite and single-pass; callers that need to re-read
// must call Stream again.
func (r *FuelEventRepository) Stream(ctx context.Context, filter FuelHistoryFilter) iter.Seq2[model.FuelEvent, error] {
	return func(yield func(model.FuelEvent, error) bool) {
		query := r.db.WithContext(ctx).Model(&model.FuelEvent{})

		if filter.EventType != nil {
			query = query.Where("event_type = ?", *filter.EventType)
		}
		if filter.Since != nil {
			query = query.Where("occurred_at >= ?", *filter.Since)
		}
		if filter.Search != "" {
			pattern := "%" + filter.Search + "%"
			query = query.Where(
				"note ILIKE ? OR CAST(resource_id AS TEXT) ILIKE ? OR CAST(operator_id AS TEXT) ILIKE ?",
				pattern, pattern, pattern,
			)
		}

		rows, err := query.Order("occurred_at DESC").Rows()
		if err != nil {
			yield(model.FuelEvent{}, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var event model.FuelEvent
			if err := r.db.ScanRows(rows, &event); err != nil {
				yield(model.FuelEvent{}, err)
				return
			}
			if !yield(event, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(model.FuelEvent{}, err)
		}
	}
}
