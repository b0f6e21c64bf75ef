package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fleet-service/internal/model"
)

type IncidentRepository struct {
	db *gorm.DB
}

func NewIncidentRepository(db *gorm.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

func (r *IncidentRepository) Create(ctx context.Context, incident *model.Incident) error {
	return r.db.WithContext(ctx).Create(incident).Error
}

func (r *IncidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Incident, error) {
	var incident model.Incident
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&incident).Error
	if err != nil {
		return nil, err
	}
	return &incident, nil
}

func (r *IncidentRepository) Update(ctx context.Context, incident *model.Incident) error {
	return r.db.WithContext(ctx).Save(incident).Error
}

type IncidentListFilter struct {
	ResourceID *uuid.UUID
	ReportedBy *uuid.UUID
	Status     *model.IncidentStatus
}

func (r *IncidentRepository) List(ctx context.Context, filter IncidentListFilter) ([]model.Incident, error) {
	var incidents []model.Incident
	query := r.db.WithContext(ctx).Model(&model.Incident{})

	if filter.ResourceID != nil {
		query = query.Where("resource_id = ?", *filter.ResourceID)
	}
	if filter.ReportedBy != nil {
		query = query.Where("reported_by = ?", *filter.ReportedBy)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if err := query.Order("created_at DESC").Find(&incidents).Error; err != nil {
		return nil, err
	}

	return incidents, nil
}
