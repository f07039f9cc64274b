package sheets

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/KMohir/ProyektSXF/cache"
	"github.com/KMohir/ProyektSXF/retrypolicy"
)

const projectNamesKey = "project_names"

func tasksKey(project string) string {
	return "tasks_" + project
}

// Gateway exposes the spreadsheet as a typed project/task inventory. Reads go
// through the TTL cache; writes go through to the sheet and invalidate the
// affected project's cache entry.
//
// Row addressing: a task's row is always re-resolved by exact trimmed match
// against column D at write time. Task indices are only stable between cache
// refreshes, so index arithmetic would write into the wrong row after an
// external edit.
type Gateway struct {
	api   API
	cache *cache.Cache
	retry retrypolicy.Policy
}

func NewGateway(api API, c *cache.Cache, retry retrypolicy.Policy) *Gateway {
	return &Gateway{api: api, cache: c, retry: retry}
}

// ListProjects returns one entry per sheet tab. Empty on persistent failure.
func (g *Gateway) ListProjects(ctx context.Context) []string {
	if cached, ok := g.cache.GetStrings(projectNamesKey); ok {
		return cached
	}

	var titles []string
	err := g.retry.Do(ctx, "sheets.ListProjects", func() error {
		var err error
		titles, err = g.api.SheetTitles(ctx)
		return err
	})
	if err != nil {
		logrus.Errorf("sheets: listing projects: %v", err)
		return []string{}
	}

	g.cache.Set(projectNamesKey, titles)
	logrus.Infof("sheets: found %d projects", len(titles))
	return titles
}

// ListTasks reads column D of the named project, skipping the header row and
// blank cells. The returned order defines the task_index space. Empty on
// persistent failure.
func (g *Gateway) ListTasks(ctx context.Context, project string) []string {
	key := tasksKey(project)
	if cached, ok := g.cache.GetStrings(key); ok {
		return cached
	}

	column, err := g.columnD(ctx, project)
	if err != nil {
		logrus.Errorf("sheets: listing tasks for %s: %v", project, err)
		return []string{}
	}

	tasks := make([]string, 0, len(column))
	if len(column) > 1 {
		for _, cell := range column[1:] {
			if t := strings.TrimSpace(cell); t != "" {
				tasks = append(tasks, t)
			}
		}
	}

	g.cache.Set(key, tasks)
	logrus.Infof("sheets: found %d tasks in project %s", len(tasks), project)
	return tasks
}

// TaskByIndex returns ListTasks(project)[index], or ok=false when the index
// is out of bounds.
func (g *Gateway) TaskByIndex(ctx context.Context, project string, index int) (string, bool) {
	tasks := g.ListTasks(ctx, project)
	if index < 0 || index >= len(tasks) {
		return "", false
	}
	return tasks[index], true
}

// AssignTask writes the assignee's name and phone into columns E and F of the
// task's row, resolved by text match, as a single batched update. The
// project's task cache is invalidated on success.
func (g *Gateway) AssignTask(ctx context.Context, project string, index int, name, phone string) bool {
	row, ok := g.resolveRow(ctx, project, index, "AssignTask")
	if !ok {
		return false
	}

	err := g.retry.Do(ctx, "sheets.AssignTask", func() error {
		return g.api.BatchUpdateCells(ctx, []CellUpdate{
			{Sheet: project, Ref: fmt.Sprintf("E%d", row), Value: name},
			{Sheet: project, Ref: fmt.Sprintf("F%d", row), Value: phone},
		})
	})
	if err != nil {
		logrus.Errorf("sheets: assigning task in %s row %d: %v", project, row, err)
		return false
	}

	g.cache.Delete(tasksKey(project))
	logrus.Infof("sheets: task assigned to %s in project %s, row %d", name, project, row)
	return true
}

// WriteAnnotation writes free text into column K of the task's row. The task
// cache is left alone: annotations are not part of the cached name list.
func (g *Gateway) WriteAnnotation(ctx context.Context, project string, index int, text string) bool {
	row, ok := g.resolveRow(ctx, project, index, "WriteAnnotation")
	if !ok {
		return false
	}

	err := g.retry.Do(ctx, "sheets.WriteAnnotation", func() error {
		return g.api.UpdateCell(ctx, project, fmt.Sprintf("K%d", row), text)
	})
	if err != nil {
		logrus.Errorf("sheets: writing annotation in %s row %d: %v", project, row, err)
		return false
	}

	logrus.Infof("sheets: annotation written in project %s, row %d", project, row)
	return true
}

// ClearAssignment blanks columns E and F of the task's row, using the same
// text-match resolution as AssignTask.
func (g *Gateway) ClearAssignment(ctx context.Context, project string, index int) bool {
	row, ok := g.resolveRow(ctx, project, index, "ClearAssignment")
	if !ok {
		return false
	}

	err := g.retry.Do(ctx, "sheets.ClearAssignment", func() error {
		return g.api.BatchUpdateCells(ctx, []CellUpdate{
			{Sheet: project, Ref: fmt.Sprintf("E%d", row), Value: ""},
			{Sheet: project, Ref: fmt.Sprintf("F%d", row), Value: ""},
		})
	})
	if err != nil {
		logrus.Errorf("sheets: clearing assignment in %s row %d: %v", project, row, err)
		return false
	}

	g.cache.Delete(tasksKey(project))
	logrus.Infof("sheets: assignment cleared in project %s, row %d", project, row)
	return true
}

// Refresh drops the whole cache so the next reads hit the spreadsheet.
func (g *Gateway) Refresh() {
	g.cache.Clear()
	logrus.Info("sheets: cache refreshed")
}

// resolveRow maps a task index to its current 1-based spreadsheet row by
// scanning column D for an exact trimmed match of the task's name.
func (g *Gateway) resolveRow(ctx context.Context, project string, index int, op string) (int, bool) {
	taskName, ok := g.TaskByIndex(ctx, project, index)
	if !ok {
		logrus.Errorf("sheets: %s: task index %d not found in project %s", op, index, project)
		return 0, false
	}

	column, err := g.columnD(ctx, project)
	if err != nil {
		logrus.Errorf("sheets: %s: reading column D of %s: %v", op, project, err)
		return 0, false
	}

	want := strings.TrimSpace(taskName)
	for i, cell := range column {
		if strings.TrimSpace(cell) == want {
			return i + 1, true
		}
	}

	logrus.Errorf("sheets: %s: row not found for task %q in project %s", op, taskName, project)
	return 0, false
}

func (g *Gateway) columnD(ctx context.Context, project string) ([]string, error) {
	var column []string
	err := g.retry.Do(ctx, "sheets.columnD", func() error {
		var err error
		column, err = g.api.ColumnValues(ctx, project, "D")
		return err
	})
	return column, err
}
