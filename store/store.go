package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/KMohir/ProyektSXF/models"
	"github.com/KMohir/ProyektSXF/retrypolicy"
)

// Store is the relational persistence layer for users, task requests and the
// action log. It is the source of truth for who requested what and its
// approval state; the spreadsheet only carries the resulting assignment.
type Store struct {
	db    *gorm.DB
	retry retrypolicy.Policy
}

func New(db *gorm.DB, retry retrypolicy.Policy) *Store {
	return &Store{db: db, retry: retry}
}

// RegisterUser upserts a user by Telegram id, refreshing name, phone and
// last_activity on conflict. Re-registration is idempotent.
func (s *Store) RegisterUser(ctx context.Context, userID int64, name, phone string, isAdmin bool) error {
	err := s.retry.Do(ctx, "store.RegisterUser", func() error {
		user := models.User{
			UserID:       userID,
			Name:         name,
			Phone:        phone,
			IsAdmin:      isAdmin,
			IsActive:     true,
			RegisteredAt: time.Now(),
			LastActivity: time.Now(),
		}
		return s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "phone", "is_admin", "last_activity"}),
		}).Create(&user).Error
	})
	if err != nil {
		logrus.Errorf("store: registering user %d: %v", userID, err)
		return err
	}

	s.LogAction(ctx, userID, "register", "User registered: "+name)
	logrus.Infof("store: user %d registered", userID)
	return nil
}

// GetUser returns the user or nil when unknown. A hit touches last_activity.
func (s *Store) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	err := s.retry.Do(ctx, "store.GetUser", func() error {
		return s.db.WithContext(ctx).First(&user, "user_id = ?", userID).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logrus.Errorf("store: getting user %d: %v", userID, err)
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("user_id = ?", userID).
		Update("last_activity", time.Now()).Error; err != nil {
		logrus.Warnf("store: touching last_activity for %d: %v", userID, err)
	}
	return &user, nil
}

// CreateTaskRequest inserts a pending request. Duplicate open requests for the
// same task are allowed on purpose; the coordinator decides what duplication
// means.
func (s *Store) CreateTaskRequest(ctx context.Context, userID int64, projectName, taskName string, taskIndex int) (uint, error) {
	req := models.TaskRequest{
		UserID:      userID,
		ProjectName: projectName,
		TaskName:    taskName,
		TaskIndex:   taskIndex,
		Status:      models.StatusPending,
	}
	err := s.retry.Do(ctx, "store.CreateTaskRequest", func() error {
		return s.db.WithContext(ctx).Create(&req).Error
	})
	if err != nil {
		logrus.Errorf("store: creating task request: %v", err)
		return 0, err
	}

	s.LogAction(ctx, userID, "task_request", "Project: "+projectName+", Task: "+taskName)
	logrus.Infof("store: task request %d created", req.ID)
	return req.ID, nil
}

// UpdateTaskStatus updates EVERY request matching the (user, project, index)
// triple, not a single row: duplicate historical requests all take the new
// status ("latest wins" over history). "completed" additionally stamps the
// completion time.
func (s *Store) UpdateTaskStatus(ctx context.Context, userID int64, projectName string, taskIndex int, status string, adminID *int64) error {
	updates := map[string]interface{}{
		"status":     status,
		"admin_id":   adminID,
		"updated_at": time.Now(),
	}
	if status == models.StatusCompleted {
		updates["completed_at"] = time.Now()
	}

	err := s.retry.Do(ctx, "store.UpdateTaskStatus", func() error {
		return s.db.WithContext(ctx).Model(&models.TaskRequest{}).
			Where("user_id = ? AND project_name = ? AND task_index = ?", userID, projectName, taskIndex).
			Updates(updates).Error
	})
	if err != nil {
		logrus.Errorf("store: updating task status: %v", err)
		return err
	}

	s.LogAction(ctx, userID, "task_status_update", "Status: "+status+", Project: "+projectName)
	logrus.Infof("store: task status set to %s for user %d", status, userID)
	return nil
}

// GetUserTasks returns the user's requests, newest first, optionally filtered
// by status (empty status means all).
func (s *Store) GetUserTasks(ctx context.Context, userID int64, status string) ([]models.TaskRequest, error) {
	var tasks []models.TaskRequest
	err := s.retry.Do(ctx, "store.GetUserTasks", func() error {
		q := s.db.WithContext(ctx).Where("user_id = ?", userID)
		if status != "" {
			q = q.Where("status = ?", status)
		}
		return q.Order("created_at DESC").Find(&tasks).Error
	})
	if err != nil {
		logrus.Errorf("store: getting tasks for user %d: %v", userID, err)
		return nil, err
	}
	return tasks, nil
}

// GetAllTasks is the administrative view: newest first, joined with the
// requester's name and phone, bounded by limit.
func (s *Store) GetAllTasks(ctx context.Context, status string, limit int) ([]models.TaskWithUser, error) {
	var tasks []models.TaskWithUser
	err := s.retry.Do(ctx, "store.GetAllTasks", func() error {
		q := s.db.WithContext(ctx).Model(&models.TaskRequest{}).
			Select("tasks.*, users.name, users.phone").
			Joins("JOIN users ON tasks.user_id = users.user_id")
		if status != "" {
			q = q.Where("tasks.status = ?", status)
		}
		return q.Order("tasks.created_at DESC").Limit(limit).Scan(&tasks).Error
	})
	if err != nil {
		logrus.Errorf("store: getting all tasks: %v", err)
		return nil, err
	}
	return tasks, nil
}

// LogAction appends an audit record. Fire and forget: failures are logged and
// never surfaced to the triggering operation.
func (s *Store) LogAction(ctx context.Context, userID int64, action, details string) {
	entry := models.ActionLog{UserID: userID, Action: action, Details: details}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		logrus.Errorf("store: logging action %s: %v", action, err)
	}
}
