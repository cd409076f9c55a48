package postgres

import (
	"context"

	"github.com/chainfly/tenderapi/internal/models"
	"gorm.io/gorm"
)

type ReminderHistoryRepository interface {
	Insert(ctx context.Context, h *models.ReminderHistory) error
	List(ctx context.Context) ([]models.ReminderHistory, error)
	Clear(ctx context.Context) error
}

type reminderHistoryRepo struct {
	db *gorm.DB
}

func NewReminderHistoryRepo(db *gorm.DB) ReminderHistoryRepository {
	return &reminderHistoryRepo{db: db}
}

func (r *reminderHistoryRepo) Insert(ctx context.Context, h *models.ReminderHistory) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *reminderHistoryRepo) List(ctx context.Context) ([]models.ReminderHistory, error) {
	var rows []models.ReminderHistory
	err := r.db.WithContext(ctx).
		Order("timestamp DESC").
		Find(&rows).Error
	return rows, err
}

func (r *reminderHistoryRepo) Clear(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&models.ReminderHistory{}).Error
}
