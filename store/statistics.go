package store

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KMohir/ProyektSXF/models"
)

type ProjectCount struct {
	ProjectName string `json:"project_name"`
	Count       int64  `json:"count"`
}

type Statistics struct {
	TotalUsers     int64          `json:"total_users"`
	ActiveUsers    int64          `json:"active_users"`
	TotalTasks     int64          `json:"total_tasks"`
	PendingTasks   int64          `json:"pending_tasks"`
	ApprovedTasks  int64          `json:"approved_tasks"`
	RejectedTasks  int64          `json:"rejected_tasks"`
	CompletedTasks int64          `json:"completed_tasks"`
	TopProjects    []ProjectCount `json:"top_projects"`
}

// GetStatistics aggregates the administrative overview: user counts (active =
// touched within 7 days), per-status task counts and the top-5 projects by
// request count.
func (s *Store) GetStatistics(ctx context.Context) (*Statistics, error) {
	var stats Statistics
	err := s.retry.Do(ctx, "store.GetStatistics", func() error {
		db := s.db.WithContext(ctx)

		if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
			return err
		}
		weekAgo := time.Now().AddDate(0, 0, -7)
		if err := db.Model(&models.User{}).
			Where("last_activity > ?", weekAgo).
			Count(&stats.ActiveUsers).Error; err != nil {
			return err
		}

		if err := db.Model(&models.TaskRequest{}).Count(&stats.TotalTasks).Error; err != nil {
			return err
		}
		statusCounts := map[string]*int64{
			models.StatusPending:   &stats.PendingTasks,
			models.StatusApproved:  &stats.ApprovedTasks,
			models.StatusRejected:  &stats.RejectedTasks,
			models.StatusCompleted: &stats.CompletedTasks,
		}
		for status, dst := range statusCounts {
			if err := db.Model(&models.TaskRequest{}).
				Where("status = ?", status).
				Count(dst).Error; err != nil {
				return err
			}
		}

		stats.TopProjects = make([]ProjectCount, 0, 5)
		return db.Model(&models.TaskRequest{}).
			Select("project_name, COUNT(*) as count").
			Group("project_name").
			Order("count DESC").
			Limit(5).
			Scan(&stats.TopProjects).Error
	})
	if err != nil {
		logrus.Errorf("store: getting statistics: %v", err)
		return nil, err
	}
	return &stats, nil
}
