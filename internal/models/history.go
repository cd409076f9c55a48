package models

import (
	"time"

	"gorm.io/datatypes"
)

// ReminderHistory is an append-only audit row; details carries a free-form
// JSON payload supplied by the caller.
type ReminderHistory struct {
	ID         uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ReminderID string         `gorm:"column:reminder_id;type:text;not null;index" json:"reminder_id"`
	Action     string         `gorm:"column:action;type:text;not null" json:"action"` // created|sent|cancelled|updated
	Timestamp  time.Time      `gorm:"column:timestamp;type:timestamptz;not null" json:"timestamp"`
	Details    datatypes.JSON `gorm:"column:details" json:"details"`
}

func (ReminderHistory) TableName() string { return "reminder_history" }

type DownloadHistory struct {
	ID           uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ZipName      string         `gorm:"column:zip_name;type:text;not null" json:"zip_name"`
	DownloadDate time.Time      `gorm:"column:download_date;type:timestamptz;not null" json:"download_date"`
	Documents    datatypes.JSON `gorm:"column:documents" json:"documents"`
}

func (DownloadHistory) TableName() string { return "download_history" }
