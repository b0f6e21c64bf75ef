package service

import (
	"context"
	"iter"
	"time"

	"github.com/google/uuid"

	"fleet-service/internal/model"
	"fleet-service/internal/repository"
)

// The stores below are the persistence contract this core requires; the gorm
// repositories satisfy them in production and the tests use in-memory fakes.
// Uniqueness checks (active assignments, daily reports) must behave as if the
// check and the insert were one isolated transaction; the repositories get
// this from unique indexes, which the store signals by returning
// gorm.ErrDuplicatedKey from Create.

// AssignmentFinder is the slice of the assignment registry that the fuel
// ledger and incident workflow consult to resolve who is on which resource.
type AssignmentFinder interface {
	FindActiveByResource(ctx context.Context, resourceID uuid.UUID) (*model.Assignment, error)
	FindActiveByOperator(ctx context.Context, operatorID uuid.UUID) (*model.Assignment, error)
}

type AssignmentStore interface {
	AssignmentFinder
	Create(ctx context.Context, assignment *model.Assignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error)
	Update(ctx context.Context, assignment *model.Assignment) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter repository.AssignmentListFilter) ([]model.Assignment, error)
	ActiveResourceIDs(ctx context.Context) ([]uuid.UUID, error)
	ActiveOperatorIDs(ctx context.Context) ([]uuid.UUID, error)
}

type FuelEventStore interface {
	Append(ctx context.Context, event *model.FuelEvent) error
	Totals(ctx context.Context, since *time.Time) (model.StockTotals, error)
	Stream(ctx context.Context, filter repository.FuelHistoryFilter) iter.Seq2[model.FuelEvent, error]
}

type DailyReportStore interface {
	Create(ctx context.Context, report *model.DailyReport) error
	Exists(ctx context.Context, operatorID uuid.UUID, date time.Time) (bool, error)
	List(ctx context.Context, filter repository.DailyReportListFilter) ([]model.DailyReport, error)
}

type IncidentStore interface {
	Create(ctx context.Context, incident *model.Incident) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Incident, error)
	Update(ctx context.Context, incident *model.Incident) error
	List(ctx context.Context, filter repository.IncidentListFilter) ([]model.Incident, error)
}

// ResourceDirectory and OperatorDirectory are the external registries of
// trucks, equipment and drivers. Read-only; owned outside this service.
type ResourceDirectory interface {
	GetResource(ctx context.Context, id uuid.UUID) (*model.Resource, error)
	ListResources(ctx context.Context, kind model.ResourceKind) ([]model.Resource, error)
}

type OperatorDirectory interface {
	GetOperator(ctx context.Context, id uuid.UUID) (*model.Operator, error)
	ListOperators(ctx context.Context) ([]model.Operator, error)
}
