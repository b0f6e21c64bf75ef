package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-service/internal/model"
	"fleet-service/internal/repository"
)

func newIncidentFixture() (*IncidentService, *fakeIncidentStore, *fakeAssignmentStore, *fakeDirectory) {
	incidents := newFakeIncidentStore()
	assignments := newFakeAssignmentStore()
	directory := newFakeDirectory()
	svc := NewIncidentService(incidents, assignments, directory)
	return svc, incidents, assignments, directory
}

func reportValidIncident(t *testing.T, svc *IncidentService, directory *fakeDirectory) *model.Incident {
	t.Helper()
	resource := directory.addResource(model.ResourceKindTruck)
	incident, err := svc.Report(context.Background(), managerPrincipal(), ReportIncidentInput{
		ResourceID:   resource.String(),
		Title:        "engine overheating",
		Description:  "temperature gauge in the red after 20 minutes",
		Severity:     "high",
		Cause:        "coolant leak",
		ActionsTaken: "stopped the vehicle",
		EtaLabel:     "2-3 days",
	})
	require.NoError(t, err)
	return incident
}

func TestIncidentTerminality(t *testing.T) {
	ctx := context.Background()
	svc, store, _, directory := newIncidentFixture()
	manager := managerPrincipal()

	incident := reportValidIncident(t, svc, directory)
	require.Equal(t, model.IncidentStatusOpen, incident.Status)

	resolved, err := svc.UpdateStatus(ctx, manager, incident.ID.String(), "resolved")
	require.NoError(t, err)
	require.Equal(t, model.IncidentStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	for _, next := range []string{"open", "in_progress", "resolved"} {
		_, err := svc.UpdateStatus(ctx, manager, incident.ID.String(), next)
		require.ErrorIs(t, err, ErrConflict, "resolved is terminal")
	}

	stored := store.incidents[incident.ID]
	assert.Equal(t, model.IncidentStatusResolved, stored.Status, "stored status unchanged by rejected transitions")
}

func TestIncidentTransitions(t *testing.T) {
	ctx := context.Background()
	svc, _, _, directory := newIncidentFixture()
	manager := managerPrincipal()

	incident := reportValidIncident(t, svc, directory)

	inProgress, err := svc.UpdateStatus(ctx, manager, incident.ID.String(), "in_progress")
	require.NoError(t, err)
	require.Equal(t, model.IncidentStatusInProgress, inProgress.Status)
	assert.Nil(t, inProgress.ResolvedAt)

	_, err = svc.UpdateStatus(ctx, manager, incident.ID.String(), "open")
	require.ErrorIs(t, err, ErrConflict, "status never moves backwards")

	before := time.Now()
	resolved, err := svc.UpdateStatus(ctx, manager, incident.ID.String(), "resolved")
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedAt)
	assert.False(t, resolved.ResolvedAt.Before(before))

	_, err = svc.UpdateStatus(ctx, manager, incident.ID.String(), "bogus")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestIncidentUpdateStatusRequiresManager(t *testing.T) {
	ctx := context.Background()
	svc, _, _, directory := newIncidentFixture()

	incident := reportValidIncident(t, svc, directory)

	_, err := svc.UpdateStatus(ctx, driverPrincipal(uuid.New()), incident.ID.String(), "in_progress")
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestReportIncidentValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _, directory := newIncidentFixture()
	manager := managerPrincipal()

	resource := directory.addResource(model.ResourceKindTruck)

	_, err := svc.Report(ctx, manager, ReportIncidentInput{
		ResourceID:  resource.String(),
		Title:       "flat tire",
		Description: "   ",
		Severity:    "low",
	})
	require.ErrorIs(t, err, ErrInvalidInput, "empty description")

	_, err = svc.Report(ctx, manager, ReportIncidentInput{
		ResourceID:  resource.String(),
		Title:       "flat tire",
		Description: "front left tire punctured",
		Severity:    "catastrophic",
	})
	require.ErrorIs(t, err, ErrInvalidInput, "unknown severity")

	_, err = svc.Report(ctx, manager, ReportIncidentInput{
		Title:       "flat tire",
		Description: "front left tire punctured",
		Severity:    "low",
	})
	require.ErrorIs(t, err, ErrInvalidInput, "managers must name a resource")

	_, err = svc.Report(ctx, manager, ReportIncidentInput{
		ResourceID:  uuid.New().String(),
		Title:       "flat tire",
		Description: "front left tire punctured",
		Severity:    "low",
	})
	require.ErrorIs(t, err, ErrNotFound, "resource unknown to the directory")
}

func TestDriverReportsAgainstOwnAssignment(t *testing.T) {
	ctx := context.Background()
	svc, _, assignments, directory := newIncidentFixture()

	truck := directory.addResource(model.ResourceKindTruck)
	otherTruck := directory.addResource(model.ResourceKindTruck)
	operator := uuid.New()
	driver := driverPrincipal(operator)

	// Without an active assignment nothing can be resolved.
	_, err := svc.Report(ctx, driver, ReportIncidentInput{
		Title:       "broken mirror",
		Description: "left mirror shattered",
		Severity:    "low",
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, assignments.Create(ctx, &model.Assignment{
		ResourceID: truck,
		OperatorID: operator,
		Site:       "depot",
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:   true,
	}))

	// Omitted resource defaults to the assigned one.
	incident, err := svc.Report(ctx, driver, ReportIncidentInput{
		Title:       "broken mirror",
		Description: "left mirror shattered",
		Severity:    "low",
	})
	require.NoError(t, err)
	assert.Equal(t, truck, incident.ResourceID)
	assert.Equal(t, operator, incident.ReportedBy)

	// Explicitly naming the assigned resource is fine.
	_, err = svc.Report(ctx, driver, ReportIncidentInput{
		ResourceID:  truck.String(),
		Title:       "broken mirror",
		Description: "left mirror shattered",
		Severity:    "low",
	})
	require.NoError(t, err)

	// Any other resource is off limits for a driver.
	_, err = svc.Report(ctx, driver, ReportIncidentInput{
		ResourceID:  otherTruck.String(),
		Title:       "broken mirror",
		Description: "left mirror shattered",
		Severity:    "low",
	})
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestIncidentVisibility(t *testing.T) {
	ctx := context.Background()
	svc, _, assignments, directory := newIncidentFixture()

	truck := directory.addResource(model.ResourceKindTruck)
	operator := uuid.New()
	driver := driverPrincipal(operator)

	require.NoError(t, assignments.Create(ctx, &model.Assignment{
		ResourceID: truck,
		OperatorID: operator,
		Site:       "depot",
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:   true,
	}))

	mine, err := svc.Report(ctx, driver, ReportIncidentInput{
		Title:       "broken mirror",
		Description: "left mirror shattered",
		Severity:    "low",
	})
	require.NoError(t, err)

	theirs := reportValidIncident(t, svc, directory)

	list, err := svc.List(ctx, driver, repository.IncidentListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	_, err = svc.Get(ctx, driver, theirs.ID.String())
	require.ErrorIs(t, err, ErrPermissionDenied)

	got, err := svc.Get(ctx, managerPrincipal(), mine.ID.String())
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)
}
