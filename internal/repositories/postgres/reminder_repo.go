package postgres

import (
	"context"
	"errors"

	"github.com/chainfly/tenderapi/internal/models"
	"github.com/chainfly/tenderapi/internal/utils"
	"gorm.io/gorm"
)

type ReminderRepository interface {
	Insert(ctx context.Context, r *models.Reminder) error
	GetByID(ctx context.Context, id uint) (*models.Reminder, error)
	List(ctx context.Context) ([]models.Reminder, error)
	Delete(ctx context.Context, id uint) error
}

type reminderRepo struct {
	db *gorm.DB
}

func NewReminderRepo(db *gorm.DB) ReminderRepository {
	return &reminderRepo{db: db}
}

func (r *reminderRepo) Insert(ctx context.Context, rem *models.Reminder) error {
	return r.db.WithContext(ctx).Create(rem).Error
}

func (r *reminderRepo) GetByID(ctx context.Context, id uint) (*models.Reminder, error) {
	var row models.Reminder
	err := r.db.WithContext(ctx).Take(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *reminderRepo) List(ctx context.Context) ([]models.Reminder, error) {
	var rows []models.Reminder
	err := r.db.WithContext(ctx).
		Order("due_date DESC").
		Find(&rows).Error
	return rows, err
}

func (r *reminderRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Reminder{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}
