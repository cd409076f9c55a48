package models

import "time"

type Reminder struct {
	ID           uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	TenderID     string    `gorm:"column:tender_id;type:text;not null;index" json:"tender_id"`
	ReminderType string    `gorm:"column:reminder_type;type:text;not null" json:"reminder_type"`
	DueDate      time.Time `gorm:"column:due_date;type:timestamptz;not null" json:"due_date"`
	Email        string    `gorm:"column:email;type:text;not null" json:"email"`
}

func (Reminder) TableName() string { return "reminders" }
