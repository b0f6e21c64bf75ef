package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fleet-service/internal/model"
)

type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) Create(ctx context.Context, assignment *model.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	var assignment model.Assignment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *AssignmentRepository) Update(ctx context.Context, assignment *model.Assignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

// Delete removes the record permanently. The service only calls this for
// closed assignments; active ones are protected at the service layer.
func (r *AssignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Assignment{}).Error
}

func (r *AssignmentRepository) FindActiveByResource(ctx context.Context, resourceID uuid.UUID) (*model.Assignment, error) {
	var assignment model.Assignment
	err := r.db.WithContext(ctx).
		Where("resource_id = ? AND is_active = ?", resourceID, true).
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &assignment, nil
}

func (r *AssignmentRepository) FindActiveByOperator(ctx context.Context, operatorID uuid.UUID) (*model.Assignment, error) {
	var assignment model.Assignment
	err := r.db.WithContext(ctx).
		Where("operator_id = ? AND is_active = ?", operatorID, true).
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &assignment, nil
}

type AssignmentListFilter struct {
	ResourceID *uuid.UUID
	OperatorID *uuid.UUID
	IsActive   *bool
}

func (r *AssignmentRepository) List(ctx context.Context, filter AssignmentListFilter) ([]model.Assignment, error) {
	var assignments []model.Assignment
	query := r.db.WithContext(ctx).Model(&model.Assignment{})

	if filter.ResourceID != nil {
		query = query.Where("resource_id = ?", *filter.ResourceID)
	}
	if filter.OperatorID != nil {
		query = query.Where("operator_id = ?", *filter.OperatorID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	if err := query.Order("start_date DESC").Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

// ActiveResourceIDs returns the resource ids currently bound by an active
// assignment, used to compute availability against the directory listing.
func (r *AssignmentRepository) ActiveResourceIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Assignment{}).
		Where("is_active = ?", true).
		Pluck("resource_id", &ids).Error
	return ids, err
}

func (r *AssignmentRepository) ActiveOperatorIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Assignment{}).
		Where("is_active = ?", true).
		Pluck("operator_id", &ids).Error
	return ids, err
}
