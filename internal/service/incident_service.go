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

// IncidentService runs the three-state incident workflow:
// OPEN -> IN_PROGRESS -> RESOLVED, forward only, RESOLVED terminal.
type IncidentService struct {
	incidents   IncidentStore
	assignments AssignmentFinder
	resources   ResourceDirectory
}

func NewIncidentService(incidents IncidentStore, assignments AssignmentFinder, resources ResourceDirectory) *IncidentService {
	return &IncidentService{
		incidents:   incidents,
		assignments: assignments,
		resources:   resources,
	}
}

type ReportIncidentInput struct {
	ResourceID   string
	Title        string
	Description  string
	Severity     string
	Cause        string
	ActionsTaken string
	EtaLabel     string
	PhotoRef     *string
}

// Report creates an incident. Drivers may only report against the resource
// of their own active assignment (which also serves as the default when no
// resource is named); managers may target any directory resource.
func (s *IncidentService) Report(ctx context.Context, principal model.Principal, input ReportIncidentInput) (*model.Incident, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	severity, err := parseSeverity(input.Severity)
	if err != nil {
		return nil, err
	}

	resourceID, reportedBy, err := s.resolveTarget(ctx, principal, input.ResourceID)
	if err != nil {
		return nil, err
	}

	incident := &model.Incident{
		ResourceID:   resourceID,
		ReportedBy:   reportedBy,
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Severity:     severity,
		EtaLabel:     strings.TrimSpace(input.EtaLabel),
		Cause:        strings.TrimSpace(input.Cause),
		ActionsTaken: strings.TrimSpace(input.ActionsTaken),
		PhotoRef:     input.PhotoRef,
		Status:       model.IncidentStatusOpen,
	}

	if err := s.incidents.Create(ctx, incident); err != nil {
		return nil, err
	}

	return incident, nil
}

func (s *IncidentService) resolveTarget(ctx context.Context, principal model.Principal, rawResourceID string) (uuid.UUID, uuid.UUID, error) {
	if principal.IsManager() {
		if strings.TrimSpace(rawResourceID) == "" {
			return uuid.Nil, uuid.Nil, fmt.Errorf("%w: no resource could be resolved", ErrInvalidInput)
		}
		resourceID, err := uuid.Parse(rawResourceID)
		if err != nil {
			return uuid.Nil, uuid.Nil, fmt.Errorf("%w: invalid resource id", ErrInvalidInput)
		}
		if _, err := s.resources.GetResource(ctx, resourceID); err != nil {
			if errors.Is(err, client.ErrDirectoryNotFound) {
				return uuid.Nil, uuid.Nil, fmt.Errorf("%w: resource %s", ErrNotFound, resourceID)
			}
			return uuid.Nil, uuid.Nil, err
		}
		return resourceID, principal.UserID, nil
	}

	if principal.OperatorID == nil {
		return uuid.Nil, uuid.Nil, ErrPermissionDenied
	}

	assignment, err := s.assignments.FindActiveByOperator(ctx, *principal.OperatorID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	if assignment == nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: no resource could be resolved", ErrInvalidInput)
	}

	if strings.TrimSpace(rawResourceID) != "" {
		resourceID, err := uuid.Parse(rawResourceID)
		if err != nil {
			return uuid.Nil, uuid.Nil, fmt.Errorf("%w: invalid resource id", ErrInvalidInput)
		}
		if resourceID != assignment.ResourceID {
			return uuid.Nil, uuid.Nil, fmt.Errorf("%w: drivers may only report against their assigned resource", ErrPermissionDenied)
		}
	}

	return assignment.ResourceID, *principal.OperatorID, nil
}

// UpdateStatus advances the workflow. Transitions never move backwards and
// anything after RESOLVED is a conflict, leaving the stored status untouched.
func (s *IncidentService) UpdateStatus(ctx context.Context, principal model.Principal, id string, next string) (*model.Incident, error) {
	if !principal.IsManager() {
		return nil, ErrPermissionDenied
	}

	nextStatus, err := parseIncidentStatus(next)
	if err != nil {
		return nil, err
	}

	incident, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !canTransition(incident.Status, nextStatus) {
		return nil, fmt.Errorf("%w: cannot move incident from %s to %s", ErrConflict, incident.Status, nextStatus)
	}

	incident.Status = nextStatus
	if nextStatus == model.IncidentStatusResolved {
		now := time.Now()
		incident.ResolvedAt = &now
	}

	if err := s.incidents.Update(ctx, incident); err != nil {
		return nil, err
	}

	return incident, nil
}

func (s *IncidentService) Get(ctx context.Context, principal model.Principal, id string) (*model.Incident, error) {
	incident, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if principal.IsDriver() {
		if principal.OperatorID == nil || incident.ReportedBy != *principal.OperatorID {
			return nil, ErrPermissionDenied
		}
	}

	return incident, nil
}

func (s *IncidentService) List(ctx context.Context, principal model.Principal, filter repository.IncidentListFilter) ([]model.Incident, error) {
	if principal.IsDriver() {
		if principal.OperatorID == nil {
			return nil, ErrPermissionDenied
		}
		filter.ReportedBy = principal.OperatorID
	}

	return s.incidents.List(ctx, filter)
}

func (s *IncidentService) getByID(ctx context.Context, id string) (*model.Incident, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid incident id", ErrInvalidInput)
	}

	incident, err := s.incidents.GetByID(ctx, parsed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: incident %s", ErrNotFound, parsed)
		}
		return nil, err
	}
	return incident, nil
}

func canTransition(current, next model.IncidentStatus) bool {
	switch current {
	case model.IncidentStatusOpen:
		return next == model.IncidentStatusInProgress || next == model.IncidentStatusResolved
	case model.IncidentStatusInProgress:
		return next == model.IncidentStatusResolved
	default:
		return false
	}
}

func parseSeverity(raw string) (model.IncidentSeverity, error) {
	severity := model.IncidentSeverity(strings.ToUpper(strings.TrimSpace(raw)))
	switch severity {
	case model.IncidentSeverityLow, model.IncidentSeverityMedium, model.IncidentSeverityHigh:
		return severity, nil
	default:
		return "", fmt.Errorf("%w: unknown severity %q", ErrInvalidInput, raw)
	}
}

func parseIncidentStatus(raw string) (model.IncidentStatus, error) {
	status := model.IncidentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case model.IncidentStatusOpen, model.IncidentStatusInProgress, model.IncidentStatusResolved:
		return status, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, raw)
	}
}
