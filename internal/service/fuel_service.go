package service

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"

	"fleet-service/internal/model"
	"fleet-service/internal/repository"
	"fleet-service/internal/utils"
)

// FuelService is the append-only fuel ledger. Stock is always derived from
// the event sum and never stored as a counter, so the balance can be
// reconstructed and audited from history alone.
type FuelService struct {
	events      FuelEventStore
	assignments AssignmentFinder
	now         func() time.Time
}

func NewFuelService(events FuelEventStore, assignments AssignmentFinder) *FuelService {
	return &FuelService{
		events:      events,
		assignments: assignments,
		now:         time.Now,
	}
}

type RecordReplenishmentInput struct {
	Quantity float64
	Date     string
	Note     *string
	IssuedBy string
}

func (s *FuelService) RecordReplenishment(ctx context.Context, principal model.Principal, input RecordReplenishmentInput) (*model.FuelEvent, error) {
	if !principal.IsManager() {
		return nil, ErrPermissionDenied
	}

	if input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	occurredAt, err := parseDate(input.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date", ErrInvalidInput)
	}
	if occurredAt.After(s.now()) {
		return nil, fmt.Errorf("%w: date must not be in the future", ErrInvalidInput)
	}
	issuedBy, err := uuid.Parse(input.IssuedBy)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid issuing operator id", ErrInvalidInput)
	}

	event := &model.FuelEvent{
		EventType:  model.FuelEventReplenishment,
		Quantity:   input.Quantity,
		OccurredAt: occurredAt,
		Note:       input.Note,
		OperatorID: issuedBy,
	}

	if err := s.events.Append(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}

type RecordConsumptionInput struct {
	ResourceID string
	Quantity   float64
	Date       string
	OperatorID *string
}

// RecordConsumption appends an outflow event. When no operator is supplied
// it is resolved from the resource's active assignment; a resource with no
// active assignment and no explicit operator is a conflict, so every litre
// stays attributable.
func (s *FuelService) RecordConsumption(ctx context.Context, principal model.Principal, input RecordConsumptionInput) (*model.FuelEvent, error) {
	resourceID, err := uuid.Parse(input.ResourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid resource id", ErrInvalidInput)
	}
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	occurredAt, err := parseDate(input.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date", ErrInvalidInput)
	}
	if occurredAt.After(s.now()) {
		return nil, fmt.Errorf("%w: date must not be in the future", ErrInvalidInput)
	}

	var operatorID uuid.UUID
	if input.OperatorID != nil && *input.OperatorID != "" {
		operatorID, err = uuid.Parse(*input.OperatorID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid operator id", ErrInvalidInput)
		}
	} else {
		assignment, err := s.assignments.FindActiveByResource(ctx, resourceID)
		if err != nil {
			return nil, err
		}
		if assignment == nil {
			return nil, fmt.Errorf("%w: resource has no active assignment and no operator was supplied", ErrConflict)
		}
		operatorID = assignment.OperatorID
	}

	event := &model.FuelEvent{
		EventType:  model.FuelEventConsumption,
		Quantity:   input.Quantity,
		OccurredAt: occurredAt,
		ResourceID: &resourceID,
		OperatorID: operatorID,
	}

	if err := s.events.Append(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}

// CurrentStock returns the all-time balance derived from the event sums.
func (s *FuelService) CurrentStock(ctx context.Context) (float64, error) {
	totals, err := s.events.Totals(ctx, nil)
	if err != nil {
		return 0, err
	}
	return totals.Balance(), nil
}

func (s *FuelService) PeriodTotals(ctx context.Context, period string) (model.StockTotals, error) {
	parsed, err := utils.ParsePeriod(period)
	if err != nil {
		return model.StockTotals{}, fmt.Errorf("%w: unknown period %q", ErrInvalidInput, period)
	}

	var since *time.Time
	if start, bounded := utils.PeriodStart(parsed, s.now()); bounded {
		since = &start
	}

	return s.events.Totals(ctx, since)
}

type HistoryInput struct {
	Search    string
	EventType string
	Period    string
}

// History returns a lazy, single-pass sequence of ledger events, newest
// first. The sequence reads straight off a database cursor; iterate it once.
func (s *FuelService) History(ctx context.Context, input HistoryInput) (iter.Seq2[model.FuelEvent, error], error) {
	filter := repository.FuelHistoryFilter{
		Search: strings.TrimSpace(input.Search),
	}

	if input.EventType != "" {
		eventType := model.FuelEventType(strings.ToUpper(strings.TrimSpace(input.EventType)))
		switch eventType {
		case model.FuelEventReplenishment, model.FuelEventConsumption:
			filter.EventType = &eventType
		default:
			return nil, fmt.Errorf("%w: unknown event type %q", ErrInvalidInput, input.EventType)
		}
	}

	if input.Period != "" {
		period, err := utils.ParsePeriod(input.Period)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown period %q", ErrInvalidInput, input.Period)
		}
		if start, bounded := utils.PeriodStart(period, s.now()); bounded {
			filter.Since = &start
		}
	}

	return s.events.Stream(ctx, filter), nil
}
