package models

import "time"

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	// StatusCompleted exists in the schema but nothing transitions into it yet.
	StatusCompleted = "completed"
)

// TaskRequest is a user's claim on a (project, task_index) pair. The task name
// is a snapshot taken at request time and is not kept in sync with later
// spreadsheet edits. Only status, admin_id, updated_at and completed_at change
// after creation.
type TaskRequest struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      int64      `gorm:"not null;index" json:"user_id"`
	ProjectName string     `gorm:"size:255;not null;index" json:"project_name"`
	TaskName    string     `gorm:"type:text;not null" json:"task_name"`
	TaskIndex   int        `gorm:"not null" json:"task_index"`
	Status      string     `gorm:"size:20;default:'pending';index" json:"status"`
	AdminID     *int64     `json:"admin_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

func (TaskRequest) TableName() string {
	return "tasks"
}

// TaskWithUser is the administrative view of a request joined with its requester.
type TaskWithUser struct {
	TaskRequest
	Name  string `json:"name"`
	Phone string `json:"phone"`
}
