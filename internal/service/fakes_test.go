package service

import (
	"context"
	"iter"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fleet-service/internal/client"
	"fleet-service/internal/model"
	"fleet-service/internal/repository"
)

// In-memory stand-ins for the gorm repositories and the directory client.
// They reproduce the two behaviors the services rely on: record-not-found as
// gorm.ErrRecordNotFound and uniqueness violations as gorm.ErrDuplicatedKey.

type fakeAssignmentStore struct {
	assignments map[uuid.UUID]model.Assignment
}

func newFakeAssignmentStore() *fakeAssignmentStore {
	return &fakeAssignmentStore{assignments: make(map[uuid.UUID]model.Assignment)}
}

func (f *fakeAssignmentStore) Create(ctx context.Context, assignment *model.Assignment) error {
	for _, existing := range f.assignments {
		if existing.IsActive && (existing.ResourceID == assignment.ResourceID || existing.OperatorID == assignment.OperatorID) {
			return gorm.ErrDuplicatedKey
		}
	}
	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}
	f.assignments[assignment.ID] = *assignment
	return nil
}

func (f *fakeAssignmentStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	assignment, ok := f.assignments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &assignment, nil
}

func (f *fakeAssignmentStore) Update(ctx context.Context, assignment *model.Assignment) error {
	if _, ok := f.assignments[assignment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.assignments[assignment.ID] = *assignment
	return nil
}

func (f *fakeAssignmentStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.assignments, id)
	return nil
}

func (f *fakeAssignmentStore) FindActiveByResource(ctx context.Context, resourceID uuid.UUID) (*model.Assignment, error) {
	for _, assignment := range f.assignments {
		if assignment.IsActive && assignment.ResourceID == resourceID {
			found := assignment
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeAssignmentStore) FindActiveByOperator(ctx context.Context, operatorID uuid.UUID) (*model.Assignment, error) {
	for _, assignment := range f.assignments {
		if assignment.IsActive && assignment.OperatorID == operatorID {
			found := assignment
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeAssignmentStore) List(ctx context.Context, filter repository.AssignmentListFilter) ([]model.Assignment, error) {
	var result []model.Assignment
	for _, assignment := range f.assignments {
		if filter.ResourceID != nil && assignment.ResourceID != *filter.ResourceID {
			continue
		}
		if filter.OperatorID != nil && assignment.OperatorID != *filter.OperatorID {
			continue
		}
		if filter.IsActive != nil && assignment.IsActive != *filter.IsActive {
			continue
		}
		result = append(result, assignment)
	}
	return result, nil
}

func (f *fakeAssignmentStore) ActiveResourceIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, assignment := range f.assignments {
		if assignment.IsActive {
			ids = append(ids, assignment.ResourceID)
		}
	}
	return ids, nil
}

func (f *fakeAssignmentStore) ActiveOperatorIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, assignment := range f.assignments {
		if assignment.IsActive {
			ids = append(ids, assignment.OperatorID)
		}
	}
	return ids, nil
}

// racyAssignmentStore simulates a concurrent create that slips past the
// pre-check: FindActive sees nothing, the insert hits the unique index.
type racyAssignmentStore struct {
	*fakeAssignmentStore
}

func (r *racyAssignmentStore) FindActiveByResource(ctx context.Context, resourceID uuid.UUID) (*model.Assignment, error) {
	return nil, nil
}

func (r *racyAssignmentStore) FindActiveByOperator(ctx context.Context, operatorID uuid.UUID) (*model.Assignment, error) {
	return nil, nil
}

type fakeFuelEventStore struct {
	events []model.FuelEvent
}

func newFakeFuelEventStore() *fakeFuelEventStore {
	return &fakeFuelEventStore{}
}

func (f *fakeFuelEventStore) Append(ctx context.Context, event *model.FuelEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeFuelEventStore) Totals(ctx context.Context, since *time.Time) (model.StockTotals, error) {
	var totals model.StockTotals
	for _, event := range f.events {
		if since != nil && event.OccurredAt.Before(*since) {
			continue
		}
		switch event.EventType {
		case model.FuelEventReplenishment:
			totals.Replenished += event.Quantity
		case model.FuelEventConsumption:
			totals.Consumed += event.Quantity
		}
	}
	return totals, nil
}

func (f *fakeFuelEventStore) Stream(ctx context.Context, filter repository.FuelHistoryFilter) iter.Seq2[model.FuelEvent, error] {
	matched := make([]model.FuelEvent, 0, len(f.events))
	for _, event := range f.events {
		if filter.EventType != nil && event.EventType != *filter.EventType {
			continue
		}
		if filter.Since != nil && event.OccurredAt.Before(*filter.Since) {
			continue
		}
		if filter.Search != "" && !fuelEventMatches(event, filter.Search) {
			continue
		}
		matched = append(matched, event)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].OccurredAt.After(matched[j].OccurredAt)
	})
	return func(yield func(model.FuelEvent, error) bool) {
		for _, event := range matched {
			if !yield(event, nil) {
				return
			}
		}
	}
}

func fuelEventMatches(event model.FuelEvent, search string) bool {
	search = strings.ToLower(search)
	if event.Note != nil && strings.Contains(strings.ToLower(*event.Note), search) {
		return true
	}
	if event.ResourceID != nil && strings.Contains(strings.ToLower(event.ResourceID.String()), search) {
		return true
	}
	return strings.Contains(strings.ToLower(event.OperatorID.String()), search)
}

type fakeDailyReportStore struct {
	reports map[string]model.DailyReport
}

func newFakeDailyReportStore() *fakeDailyReportStore {
	return &fakeDailyReportStore{reports: make(map[string]model.DailyReport)}
}

func reportKey(operatorID uuid.UUID, date time.Time) string {
	return operatorID.String() + "/" + date.Format("2006-01-02")
}

func (f *fakeDailyReportStore) Create(ctx context.Context, report *model.DailyReport) error {
	key := reportKey(report.OperatorID, report.ReportDate)
	if _, ok := f.reports[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	f.reports[key] = *report
	return nil
}

func (f *fakeDailyReportStore) Exists(ctx context.Context, operatorID uuid.UUID, date time.Time) (bool, error) {
	_, ok := f.reports[reportKey(operatorID, date)]
	return ok, nil
}

func (f *fakeDailyReportStore) List(ctx context.Context, filter repository.DailyReportListFilter) ([]model.DailyReport, error) {
	var result []model.DailyReport
	for _, report := range f.reports {
		if filter.OperatorID != nil && report.OperatorID != *filter.OperatorID {
			continue
		}
		if filter.ResourceID != nil && report.ResourceID != *filter.ResourceID {
			continue
		}
		if filter.From != nil && report.ReportDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && report.ReportDate.After(*filter.To) {
			continue
		}
		result = append(result, report)
	}
	return result, nil
}

type fakeIncidentStore struct {
	incidents map[uuid.UUID]model.Incident
}

func newFakeIncidentStore() *fakeIncidentStore {
	return &fakeIncidentStore{incidents: make(map[uuid.UUID]model.Incident)}
}

func (f *fakeIncidentStore) Create(ctx context.Context, incident *model.Incident) error {
	if incident.ID == uuid.Nil {
		incident.ID = uuid.New()
	}
	f.incidents[incident.ID] = *incident
	return nil
}

func (f *fakeIncidentStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Incident, error) {
	incident, ok := f.incidents[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &incident, nil
}

func (f *fakeIncidentStore) Update(ctx context.Context, incident *model.Incident) error {
	if _, ok := f.incidents[incident.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.incidents[incident.ID] = *incident
	return nil
}

func (f *fakeIncidentStore) List(ctx context.Context, filter repository.IncidentListFilter) ([]model.Incident, error) {
	var result []model.Incident
	for _, incident := range f.incidents {
		if filter.ResourceID != nil && incident.ResourceID != *filter.ResourceID {
			continue
		}
		if filter.ReportedBy != nil && incident.ReportedBy != *filter.ReportedBy {
			continue
		}
		if filter.Status != nil && incident.Status != *filter.Status {
			continue
		}
		result = append(result, incident)
	}
	return result, nil
}

type fakeDirectory struct {
	resources map[uuid.UUID]model.Resource
	operators map[uuid.UUID]model.Operator
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		resources: make(map[uuid.UUID]model.Resource),
		operators: make(map[uuid.UUID]model.Operator),
	}
}

func (f *fakeDirectory) addResource(kind model.ResourceKind) uuid.UUID {
	id := uuid.New()
	f.resources[id] = model.Resource{ID: id, Kind: kind, Status: model.ResourceStatusInService}
	return id
}

func (f *fakeDirectory) addOperator(roles ...string) uuid.UUID {
	id := uuid.New()
	f.operators[id] = model.Operator{ID: id, Roles: roles}
	return id
}

func (f *fakeDirectory) GetResource(ctx context.Context, id uuid.UUID) (*model.Resource, error) {
	resource, ok := f.resources[id]
	if !ok {
		return nil, client.ErrDirectoryNotFound
	}
	return &resource, nil
}

func (f *fakeDirectory) ListResources(ctx context.Context, kind model.ResourceKind) ([]model.Resource, error) {
	var result []model.Resource
	for _, resource := range f.resources {
		if kind != "" && resource.Kind != kind {
			continue
		}
		result = append(result, resource)
	}
	return result, nil
}

func (f *fakeDirectory) GetOperator(ctx context.Context, id uuid.UUID) (*model.Operator, error) {
	operator, ok := f.operators[id]
	if !ok {
		return nil, client.ErrDirectoryNotFound
	}
	return &operator, nil
}

func (f *fakeDirectory) ListOperators(ctx context.Context) ([]model.Operator, error) {
	var result []model.Operator
	for _, operator := range f.operators {
		result = append(result, operator)
	}
	return result, nil
}

func managerPrincipal() model.Principal {
	return model.Principal{UserID: uuid.New(), Role: model.RoleManager}
}

func driverPrincipal(operatorID uuid.UUID) model.Principal {
	return model.Principal{UserID: uuid.New(), OperatorID: &operatorID, Role: model.RoleDriver}
}
