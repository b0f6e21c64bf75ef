package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fleet-service/internal/model"
	"fleet-service/internal/repository"
	"fleet-service/internal/utils"
)

// ReportService gates odometer/fuel-level self-reports to one per operator
// per calendar day. Reports are observational only and never touch the
// ledger balance.
type ReportService struct {
	reports DailyReportStore
}

func NewReportService(reports DailyReportStore) *ReportService {
	return &ReportService{reports: reports}
}

// CheckSubmitted lets the client short-circuit before showing the submission
// form. Drivers may only ask about themselves.
func (s *ReportService) CheckSubmitted(ctx context.Context, principal model.Principal, operatorID string, date string) (bool, error) {
	parsedID, err := uuid.Parse(operatorID)
	if err != nil {
		return false, fmt.Errorf("%w: invalid operator id", ErrInvalidInput)
	}
	if principal.IsDriver() {
		if principal.OperatorID == nil || *principal.OperatorID != parsedID {
			return false, ErrPermissionDenied
		}
	}

	parsedDate, err := parseDate(date)
	if err != nil {
		return false, fmt.Errorf("%w: invalid date", ErrInvalidInput)
	}

	return s.reports.Exists(ctx, parsedID, utils.DateOnly(parsedDate))
}

type SubmitReportInput struct {
	OperatorID      string
	ResourceID      string
	RemainingLiters float64
	ImageRef        string
	Date            string
}

// Submit stores the report unless one already exists for (operator, date).
// The second submission for the same day is rejected, never overwritten; the
// unique index closes the race two concurrent submissions would open.
func (s *ReportService) Submit(ctx context.Context, principal model.Principal, input SubmitReportInput) (*model.DailyReport, error) {
	operatorID, err := uuid.Parse(input.OperatorID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid operator id", ErrInvalidInput)
	}
	if principal.IsDriver() {
		if principal.OperatorID == nil || *principal.OperatorID != operatorID {
			return nil, ErrPermissionDenied
		}
	}

	resourceID, err := uuid.Parse(input.ResourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid resource id", ErrInvalidInput)
	}
	if input.RemainingLiters < 0 {
		return nil, fmt.Errorf("%w: remaining fuel must not be negative", ErrInvalidInput)
	}
	if strings.TrimSpace(input.ImageRef) == "" {
		return nil, fmt.Errorf("%w: image reference is required", ErrInvalidInput)
	}
	parsedDate, err := parseDate(input.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date", ErrInvalidInput)
	}
	reportDate := utils.DateOnly(parsedDate)

	exists, err := s.reports.Exists(ctx, operatorID, reportDate)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: a report for this operator and date already exists", ErrConflict)
	}

	report := &model.DailyReport{
		OperatorID:      operatorID,
		ResourceID:      resourceID,
		ReportDate:      reportDate,
		RemainingLiters: input.RemainingLiters,
		ImageRef:        strings.TrimSpace(input.ImageRef),
	}

	if err := s.reports.Create(ctx, report); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: a report for this operator and date already exists", ErrConflict)
		}
		return nil, err
	}

	return report, nil
}

func (s *ReportService) List(ctx context.Context, principal model.Principal, filter repository.DailyReportListFilter) ([]model.DailyReport, error) {
	if principal.IsDriver() {
		if principal.OperatorID == nil {
			return nil, ErrPermissionDenied
		}
		filter.OperatorID = principal.OperatorID
	}

	return s.reports.List(ctx, filter)
}
