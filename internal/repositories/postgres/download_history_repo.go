package postgres

import (
	"context"

	"github.com/chainfly/tenderapi/internal/models"
	"gorm.io/gorm"
)

type DownloadHistoryRepository interface {
	Insert(ctx context.Context, d *models.DownloadHistory) error
	List(ctx context.Context) ([]models.DownloadHistory, error)
	Clear(ctx context.Context) error
}

type downloadHistoryRepo struct {
	db *gorm.DB
}

func NewDownloadHistoryRepo(db *gorm.DB) DownloadHistoryRepository {
	return &downloadHistoryRepo{db: db}
}

func (r *downloadHistoryRepo) Insert(ctx context.Context, d *models.DownloadHistory) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *downloadHistoryRepo) List(ctx context.Context) ([]models.DownloadHistory, error) {
	var rows []models.DownloadHistory
	err := r.db.WithContext(ctx).
		Order("download_date DESC").
		Find(&rows).Error
	return rows, err
}

func (r *downloadHistoryRepo) Clear(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&models.DownloadHistory{}).Error
}
