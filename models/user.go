package models

import "time"

type User struct {
	UserID       int64     `gorm:"primaryKey;column:user_id" json:"user_id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Phone        string    `gorm:"size:20;not null" json:"phone"`
	IsAdmin      bool      `gorm:"default:false" json:"is_admin"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	RegisteredAt time.Time `gorm:"autoCreateTime" json:"registered_at"`
	LastActivity time.Time `gorm:"autoCreateTime" json:"last_activity"`
}

func (User) TableName() string {
	return "users"
}
