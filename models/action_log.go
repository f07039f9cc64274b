package models

import "time"

// ActionLog is an append-only audit record. The bot writes these and never
// reads them back.
type ActionLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"index" json:"user_id"`
	Action    string    `gorm:"size:100;not null" json:"action"`
	Details   string    `gorm:"type:text" json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

func (ActionLog) TableName() string {
	return "action_logs"
}
