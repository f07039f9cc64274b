package coordinator

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/KMohir/ProyektSXF/models"
	"github.com/KMohir/ProyektSXF/store"
)

// Business precondition failures. These are rendered as user-facing messages
// by the transport and are never retried.
var (
	ErrNotRegistered  = errors.New("user is not registered")
	ErrTaskNotFound   = errors.New("task not found")
	ErrNotAdmin       = errors.New("user is not an administrator")
	ErrNotApproved    = errors.New("task request is not approved")
	ErrNoApprovedTask = errors.New("user has no approved task requests")
	// ErrSheetWrite marks a spreadsheet write that failed after its store
	// transition already happened; store and sheet may now diverge and no
	// automatic repair is attempted.
	ErrSheetWrite = errors.New("spreadsheet write failed")
)

// Inventory is the spreadsheet gateway surface the coordinator consumes.
type Inventory interface {
	ListProjects(ctx context.Context) []string
	ListTasks(ctx context.Context, project string) []string
	TaskByIndex(ctx context.Context, project string, index int) (string, bool)
	AssignTask(ctx context.Context, project string, index int, name, phone string) bool
	WriteAnnotation(ctx context.Context, project string, index int, text string) bool
}

// NewRequest carries everything a notification about a fresh task request needs.
type NewRequest struct {
	UserID      int64
	UserName    string
	UserPhone   string
	ProjectName string
	TaskName    string
	TaskIndex   int
}

// Notifier is the outbound half of the chat transport. Implementations render
// the actual message text and keyboards; delivery failures are theirs to
// swallow per recipient.
type Notifier interface {
	NotifyNewRequest(ctx context.Context, adminID int64, req NewRequest) error
	NotifyDecision(ctx context.Context, userID int64, approved bool, project, task string) error
	PromptAnnotation(ctx context.Context, userID int64, project string, taskIndex int) error
}

// Decision summarizes the outcome of an administrator action for rendering.
type Decision struct {
	UserName    string
	UserPhone   string
	ProjectName string
	TaskName    string
}

// Coordinator ties a user's request to a spreadsheet row and drives the
// pending -> approved/rejected -> annotated flow across the store and the
// gateway. It is the only producer of status transitions.
type Coordinator struct {
	store    *store.Store
	sheets   Inventory
	notifier Notifier
	adminIDs []int64
}

func New(st *store.Store, inv Inventory, n Notifier, adminIDs []int64) *Coordinator {
	return &Coordinator{store: st, sheets: inv, notifier: n, adminIDs: adminIDs}
}

// IsAdmin reports whether the id belongs to a configured administrator.
func (c *Coordinator) IsAdmin(userID int64) bool {
	for _, id := range c.adminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Register upserts the user. Administrators are flagged from the configured list.
func (c *Coordinator) Register(ctx context.Context, userID int64, name, phone string) error {
	return c.store.RegisterUser(ctx, userID, name, phone, c.IsAdmin(userID))
}

// User returns the registered user or nil.
func (c *Coordinator) User(ctx context.Context, userID int64) (*models.User, error) {
	return c.store.GetUser(ctx, userID)
}

// Projects lists the available projects.
func (c *Coordinator) Projects(ctx context.Context) []string {
	return c.sheets.ListProjects(ctx)
}

// Tasks lists the tasks of one project; their order is the task_index space.
func (c *Coordinator) Tasks(ctx context.Context, project string) []string {
	return c.sheets.ListTasks(ctx, project)
}

// RequestTask creates a pending request for (project, taskIndex). The
// requester must be registered and the index must currently resolve to a
// task. Administrators are notified one by one; a failed delivery to one does
// not block the others.
func (c *Coordinator) RequestTask(ctx context.Context, userID int64, project string, taskIndex int) (string, error) {
	user, err := c.store.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrNotRegistered
	}

	taskName, ok := c.sheets.TaskByIndex(ctx, project, taskIndex)
	if !ok {
		return "", ErrTaskNotFound
	}

	if _, err := c.store.CreateTaskRequest(ctx, userID, project, taskName, taskIndex); err != nil {
		return "", err
	}

	if err := c.notifier.PromptAnnotation(ctx, userID, project, taskIndex); err != nil {
		logrus.Errorf("coordinator: sending annotation prompt to %d: %v", userID, err)
	}

	req := NewRequest{
		UserID:      userID,
		UserName:    user.Name,
		UserPhone:   user.Phone,
		ProjectName: project,
		TaskName:    taskName,
		TaskIndex:   taskIndex,
	}
	for _, adminID := range c.adminIDs {
		if err := c.notifier.NotifyNewRequest(ctx, adminID, req); err != nil {
			logrus.Errorf("coordinator: notifying admin %d: %v", adminID, err)
		}
	}

	return taskName, nil
}

// Approve transitions the request to approved and assigns the spreadsheet
// row to the requester. When the spreadsheet write fails the store status is
// NOT rolled back: the divergence is surfaced to the acting administrator via
// ErrSheetWrite instead of silently repaired.
func (c *Coordinator) Approve(ctx context.Context, adminID, userID int64, project string, taskIndex int) (*Decision, error) {
	if !c.IsAdmin(adminID) {
		return nil, ErrNotAdmin
	}

	user, err := c.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotRegistered
	}

	taskName, _ := c.sheets.TaskByIndex(ctx, project, taskIndex)
	decision := &Decision{UserName: user.Name, UserPhone: user.Phone, ProjectName: project, TaskName: taskName}

	if err := c.store.UpdateTaskStatus(ctx, userID, project, taskIndex, models.StatusApproved, &adminID); err != nil {
		return nil, err
	}

	if !c.sheets.AssignTask(ctx, project, taskIndex, user.Name, user.Phone) {
		return decision, ErrSheetWrite
	}

	if err := c.notifier.NotifyDecision(ctx, userID, true, project, taskName); err != nil {
		logrus.Errorf("coordinator: sending approval to user %d: %v", userID, err)
	}
	if err := c.notifier.PromptAnnotation(ctx, userID, project, taskIndex); err != nil {
		logrus.Errorf("coordinator: sending annotation prompt to %d: %v", userID, err)
	}

	return decision, nil
}

// Reject transitions the request to rejected. No spreadsheet write happens.
func (c *Coordinator) Reject(ctx context.Context, adminID, userID int64, project string, taskIndex int) (*Decision, error) {
	if !c.IsAdmin(adminID) {
		return nil, ErrNotAdmin
	}

	user, err := c.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotRegistered
	}

	taskName, _ := c.sheets.TaskByIndex(ctx, project, taskIndex)
	decision := &Decision{UserName: user.Name, UserPhone: user.Phone, ProjectName: project, TaskName: taskName}

	if err := c.store.UpdateTaskStatus(ctx, userID, project, taskIndex, models.StatusRejected, &adminID); err != nil {
		return nil, err
	}

	if err := c.notifier.NotifyDecision(ctx, userID, false, project, taskName); err != nil {
		logrus.Errorf("coordinator: sending rejection to user %d: %v", userID, err)
	}

	return decision, nil
}

// HasApproved reports whether the user holds an approved request for the
// exact (project, index) pair.
func (c *Coordinator) HasApproved(ctx context.Context, userID int64, project string, taskIndex int) (bool, error) {
	approved, err := c.store.GetUserTasks(ctx, userID, models.StatusApproved)
	if err != nil {
		return false, err
	}
	for _, t := range approved {
		if t.ProjectName == project && t.TaskIndex == taskIndex {
			return true, nil
		}
	}
	return false, nil
}

// Annotate writes free text into the task's annotation column. The user must
// hold at least one approved request for that exact (project, index); the
// store is not touched.
func (c *Coordinator) Annotate(ctx context.Context, userID int64, project string, taskIndex int, text string) error {
	ok, err := c.HasApproved(ctx, userID, project, taskIndex)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotApproved
	}

	if !c.sheets.WriteAnnotation(ctx, project, taskIndex, text) {
		return ErrSheetWrite
	}
	return nil
}

// LatestApproved returns the user's newest approved request, used to start
// the annotation flow from the main menu.
func (c *Coordinator) LatestApproved(ctx context.Context, userID int64) (*models.TaskRequest, error) {
	approved, err := c.store.GetUserTasks(ctx, userID, models.StatusApproved)
	if err != nil {
		return nil, err
	}
	if len(approved) == 0 {
		return nil, ErrNoApprovedTask
	}
	return &approved[0], nil
}

// UserTasks lists the user's requests, newest first.
func (c *Coordinator) UserTasks(ctx context.Context, userID int64) ([]models.TaskRequest, error) {
	return c.store.GetUserTasks(ctx, userID, "")
}

// AllTasks is the administrative listing.
func (c *Coordinator) AllTasks(ctx context.Context, limit int) ([]models.TaskWithUser, error) {
	return c.store.GetAllTasks(ctx, "", limit)
}

// Statistics is the administrative aggregate view.
func (c *Coordinator) Statistics(ctx context.Context) (*store.Statistics, error) {
	return c.store.GetStatistics(ctx)
}
