package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fleet-service/internal/client"
	"fleet-service/internal/model"
	"fleet-service/internal/repository"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("conflict")
)

// AssignmentService owns the exclusivity rule: at most one active assignment
// per resource and per operator at any instant. The rule is checked here for
// a readable error and enforced authoritatively by the partial unique
// indexes, so concurrent creates cannot both slip through.
type AssignmentService struct {
	assignments AssignmentStore
	resources   ResourceDirectory
	operators   OperatorDirectory
}

func NewAssignmentService(assignments AssignmentStore, resources ResourceDirectory, operators OperatorDirectory) *AssignmentService {
	return &AssignmentService{
		assignments: assignments,
		resources:   resources,
		operators:   operators,
	}
}

type CreateAssignmentInput struct {
	ResourceID string
	OperatorID string
	Site       string
	StartDate  string
}

func (s *AssignmentService) Create(ctx context.Context, principal model.Principal, input CreateAssignmentInput) (*model.Assignment, error) {
	if !principal.IsManager() {
		return nil, ErrPermissionDenied
	}

	resourceID, err := uuid.Parse(input.ResourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid resource id", ErrInvalidInput)
	}
	operatorID, err := uuid.Parse(input.OperatorID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid operator id", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Site) == "" {
		return nil, fmt.Errorf("%w: site is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.StartDate) == "" {
		return nil, fmt.Errorf("%w: start date is required", ErrInvalidInput)
	}
	startDate, err := parseDate(input.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid start date", ErrInvalidInput)
	}

	if _, err := s.resources.GetResource(ctx, resourceID); err != nil {
		if errors.Is(err, client.ErrDirectoryNotFound) {
			return nil, fmt.Errorf("%w: resource %s", ErrNotFound, resourceID)
		}
		return nil, err
	}

	operator, err := s.operators.GetOperator(ctx, operatorID)
	if err != nil {
		if errors.Is(err, client.ErrDirectoryNotFound) {
			return nil, fmt.Errorf("%w: operator %s", ErrNotFound, operatorID)
		}
		return nil, err
	}
	if !operator.HasRole(model.OperatorRoleDriver) {
		return nil, fmt.Errorf("%w: operator lacks the driver role", ErrConflict)
	}

	existing, err := s.assignments.FindActiveByResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: resource already has an active assignment", ErrConflict)
	}

	existing, err = s.assignments.FindActiveByOperator(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: operator already has an active assignment", ErrConflict)
	}

	assignment := &model.Assignment{
		ResourceID: resourceID,
		OperatorID: operatorID,
		Site:       strings.TrimSpace(input.Site),
		StartDate:  startDate,
		IsActive:   true,
	}

	if err := s.assignments.Create(ctx, assignment); err != nil {
		// Lost the race against a concurrent create; the partial unique
		// index is the authoritative check.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: resource or operator already has an active assignment", ErrConflict)
		}
		return nil, err
	}

	return assignment, nil
}

type UpdateAssignmentInput struct {
	Site      *string
	StartDate *string
	EndDate   *string
	IsActive  *bool
}

func (s *AssignmentService) Update(ctx context.Context, principal model.Principal, id string, input UpdateAssignmentInput) (*model.Assignment, error) {
	if !principal.IsManager() {
		return nil, ErrPermissionDenied
	}

	assignment, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.IsActive != nil && *input.IsActive && !assignment.IsActive {
		return nil, fmt.Errorf("%w: a closed assignment cannot be reactivated", ErrConflict)
	}

	if input.Site != nil {
		if strings.TrimSpace(*input.Site) == "" {
			return nil, fmt.Errorf("%w: site is required", ErrInvalidInput)
		}
		assignment.Site = strings.TrimSpace(*input.Site)
	}
	if input.StartDate != nil {
		startDate, err := parseDate(*input.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid start date", ErrInvalidInput)
		}
		assignment.StartDate = startDate
	}
	if input.EndDate != nil {
		endDate, err := parseDate(*input.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid end date", ErrInvalidInput)
		}
		assignment.EndDate = &endDate
	}

	if input.IsActive != nil && !*input.IsActive {
		if assignment.EndDate == nil {
			return nil, fmt.Errorf("%w: closing an assignment requires an end date", ErrInvalidInput)
		}
		assignment.IsActive = false
	}

	if assignment.EndDate != nil && assignment.EndDate.Before(assignment.StartDate) {
		return nil, fmt.Errorf("%w: end date precedes start date", ErrInvalidInput)
	}

	if err := s.assignments.Update(ctx, assignment); err != nil {
		return nil, err
	}

	return assignment, nil
}

// Close sets the end date and deactivates. Closing an already closed
// assignment returns its current state unchanged.
func (s *AssignmentService) Close(ctx context.Context, principal model.Principal, id string, endDate string) (*model.Assignment, error) {
	if !principal.IsManager() {
		return nil, ErrPermissionDenied
	}

	assignment, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !assignment.IsActive {
		return assignment, nil
	}

	parsed, err := parseDate(endDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid end date", ErrInvalidInput)
	}
	if parsed.Before(assignment.StartDate) {
		return nil, fmt.Errorf("%w: end date precedes start date", ErrInvalidInput)
	}

	assignment.EndDate = &parsed
	assignment.IsActive = false

	if err := s.assignments.Update(ctx, assignment); err != nil {
		return nil, err
	}

	return assignment, nil
}

// Delete is a terminal archival operation; only closed assignments may go,
// since active ones still carry the exclusivity invariant and feed fuel
// consumption attribution.
func (s *AssignmentService) Delete(ctx context.Context, principal model.Principal, id string) error {
	if !principal.IsManager() {
		return ErrPermissionDenied
	}

	assignment, err := s.getByID(ctx, id)
	if err != nil {
		return err
	}
	if assignment.IsActive {
		return fmt.Errorf("%w: an active assignment cannot be deleted", ErrConflict)
	}

	return s.assignments.Delete(ctx, assignment.ID)
}

func (s *AssignmentService) Get(ctx context.Context, principal model.Principal, id string) (*model.Assignment, error) {
	assignment, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if principal.IsDriver() {
		if principal.OperatorID == nil || assignment.OperatorID != *principal.OperatorID {
			return nil, ErrPermissionDenied
		}
	}

	return assignment, nil
}

func (s *AssignmentService) List(ctx context.Context, principal model.Principal, filter repository.AssignmentListFilter) ([]model.Assignment, error) {
	if principal.IsDriver() {
		if principal.OperatorID == nil {
			return nil, ErrPermissionDenied
		}
		filter.OperatorID = principal.OperatorID
	}

	return s.assignments.List(ctx, filter)
}

// ListAvailableResources returns directory resources of the given kind with
// no active assignment. Advisory only: the authoritative check happens again
// inside Create.
func (s *AssignmentService) ListAvailableResources(ctx context.Context, kind model.ResourceKind) ([]model.Resource, error) {
	resources, err := s.resources.ListResources(ctx, kind)
	if err != nil {
		return nil, err
	}

	occupied, err := s.assignments.ActiveResourceIDs(ctx)
	if err != nil {
		return nil, err
	}
	occupiedSet := make(map[uuid.UUID]struct{}, len(occupied))
	for _, id := range occupied {
		occupiedSet[id] = struct{}{}
	}

	available := make([]model.Resource, 0, len(resources))
	for _, resource := range resources {
		if _, ok := occupiedSet[resource.ID]; !ok {
			available = append(available, resource)
		}
	}
	return available, nil
}

// ListAvailableOperators returns directory operators carrying the driver role
// with no active assignment.
func (s *AssignmentService) ListAvailableOperators(ctx context.Context) ([]model.Operator, error) {
	operators, err := s.operators.ListOperators(ctx)
	if err != nil {
		return nil, err
	}

	occupied, err := s.assignments.ActiveOperatorIDs(ctx)
	if err != nil {
		return nil, err
	}
	occupiedSet := make(map[uuid.UUID]struct{}, len(occupied))
	for _, id := range occupied {
		occupiedSet[id] = struct{}{}
	}

	available := make([]model.Operator, 0, len(operators))
	for _, operator := range operators {
		if !operator.HasRole(model.OperatorRoleDriver) {
			continue
		}
		if _, ok := occupiedSet[operator.ID]; !ok {
			available = append(available, operator)
		}
	}
	return available, nil
}

func (s *AssignmentService) getByID(ctx context.Context, id string) (*model.Assignment, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid assignment id", ErrInvalidInput)
	}

	assignment, err := s.assignments.GetByID(ctx, parsed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: assignment %s", ErrNotFound, parsed)
		}
		return nil, err
	}
	return assignment, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, errors.New("invalid date format")
}
