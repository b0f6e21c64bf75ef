package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fleet-service/internal/model"
)

type DailyReportRepository struct {
	db *gorm.DB
}

func NewDailyReportRepository(db *gorm.DB) *DailyReportRepository {
	return &DailyReportRepository{db: db}
}

// Create inserts the report. The unique index on (operator_id, report_date)
// turns a duplicate submission into gorm.ErrDuplicatedKey even when two
// requests race past the Exists check.
func (r *DailyReportRepository) Create(ctx context.Context, report *model.DailyReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *DailyReportRepository) Exists(ctx context.Context, operatorID uuid.UUID, date time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.DailyReport{}).
		Where("operator_id = ? AND report_date = ?", operatorID, date.Format("2006-01-02")).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

type DailyReportListFilter struct {
	OperatorID *uuid.UUID
	ResourceID *uuid.UUID
	From       *time.Time
	To         *time.Time
}

func (r *DailyReportRepository) List(ctx context.Context, filter DailyReportListFilter) ([]model.DailyReport, error) {
	var reports []model.DailyReport
	query := r.db.WithContext(ctx).Model(&model.DailyReport{})

	if filter.OperatorID != nil {
		query = query.Where("operator_id = ?", *filter.OperatorID)
	}
	if filter.ResourceID != nil {
		query = query.Where("resource_id = ?", *filter.ResourceID)
	}
	if filter.From != nil {
		query = query.Where("report_date >= ?", filter.From.Format("2006-01-02"))
	}
	if filter.To != nil {
		query = query.Where("report_date <= ?", filter.To.Format("2006-01-02"))
	}

	if err := query.Order("report_date DESC").Find(&reports).Error; err != nil {
		return nil, err
	}

	return reports, nil
}
