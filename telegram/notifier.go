package telegram

import (
	"context"
	"fmt"

	"github.com/KMohir/ProyektSXF/coordinator"
)

// Notifier renders coordinator notifications into Bot API messages. It is the
// outbound half of the chat transport; the webhook dispatcher is the inbound
// half.
type Notifier struct {
	api API
}

func NewNotifier(api API) *Notifier {
	return &Notifier{api: api}
}

func (n *Notifier) NotifyNewRequest(ctx context.Context, adminID int64, req coordinator.NewRequest) error {
	text := fmt.Sprintf(msgAdminNewRequest, req.UserName, req.UserPhone, req.UserID, req.ProjectName, req.TaskName)
	return n.api.SendMessage(ctx, adminID, text, adminDecisionKeyboard(req.UserID, req.ProjectName, req.TaskIndex))
}

func (n *Notifier) NotifyDecision(ctx context.Context, userID int64, approved bool, project, task string) error {
	format := msgRequestRejected
	if approved {
		format = msgRequestApproved
	}
	return n.api.SendMessage(ctx, userID, fmt.Sprintf(format, project, task), nil)
}

func (n *Notifier) PromptAnnotation(ctx context.Context, userID int64, project string, taskIndex int) error {
	return n.api.SendMessage(ctx, userID, msgAddNoteOffer, addNoteKeyboard(project, taskIndex))
}
