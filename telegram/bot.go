package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/KMohir/ProyektSXF/coordinator"
	"github.com/KMohir/ProyektSXF/models"
)

var statusEmoji = map[string]string{
	models.StatusPending:   "⏳",
	models.StatusApproved:  "✅",
	models.StatusRejected:  "❌",
	models.StatusCompleted: "🎉",
}

// Bot is the inbound half of the chat transport: it receives webhook updates,
// tracks per-chat conversation state and forwards parsed intents to the
// coordinator.
type Bot struct {
	api      API
	coord    *coordinator.Coordinator
	sessions *sessionStore
}

func NewBot(api API, coord *coordinator.Coordinator) *Bot {
	return &Bot{api: api, coord: coord, sessions: newSessionStore()}
}

// WebhookHandler consumes one Telegram update. It always answers 200: a
// non-2xx response would make Telegram redeliver the update.
func (b *Bot) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	var update Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	b.handleUpdate(r.Context(), &update)
	w.WriteHeader(http.StatusOK)
}

func (b *Bot) handleUpdate(ctx context.Context, update *Update) {
	switch {
	case update.CallbackQuery != nil:
		logrus.Infof("telegram: callback from %d: %s", update.CallbackQuery.From.ID, update.CallbackQuery.Data)
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil && !update.Message.From.IsBot:
		logrus.Infof("telegram: message from %d: %s", update.Message.From.ID, update.Message.Text)
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID
	sess := b.sessions.get(chatID)

	if msg.Contact != nil && sess.State == stateWaitingContact {
		b.handleContact(ctx, msg)
		return
	}

	switch text := strings.TrimSpace(msg.Text); text {
	case "/start":
		b.sessions.clear(chatID)
		b.handleStart(ctx, chatID, userID)
	case "/help":
		b.send(ctx, chatID, b.helpText(userID), nil)
	case "/cancel":
		b.handleCancel(ctx, chatID, userID, sess)
	case btnSelectProject:
		b.sessions.clear(chatID)
		b.handleSelectProject(ctx, chatID, userID)
	case btnMyTasks:
		b.sessions.clear(chatID)
		b.handleMyTasks(ctx, chatID, userID)
	case btnEnterData:
		b.sessions.clear(chatID)
		b.handleEnterData(ctx, chatID, userID)
	case btnStatistics:
		b.sessions.clear(chatID)
		b.handleStatistics(ctx, chatID, userID)
	case btnAllTasks:
		b.sessions.clear(chatID)
		b.handleAllTasks(ctx, chatID, userID)
	default:
		if sess.State == stateWritingNote {
			b.handleNoteText(ctx, chatID, userID, sess, text)
		}
	}
}

func (b *Bot) handleStart(ctx context.Context, chatID, userID int64) {
	user, err := b.coord.User(ctx, userID)
	if err != nil {
		b.send(ctx, chatID, msgRegistrationError, nil)
		return
	}
	if user == nil {
		b.sessions.set(chatID, session{State: stateWaitingContact})
		b.send(ctx, chatID, msgWelcomeNew, contactKeyboard())
		return
	}
	b.send(ctx, chatID, fmt.Sprintf(msgWelcomeBack, user.Name), b.menuFor(userID))
}

func (b *Bot) handleContact(ctx context.Context, msg *Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	if msg.Contact.UserID != userID {
		b.send(ctx, chatID, msgOwnContactOnly, contactKeyboard())
		return
	}

	name := strings.TrimSpace(msg.Contact.FirstName + " " + msg.Contact.LastName)
	phone := msg.Contact.PhoneNumber

	if err := b.coord.Register(ctx, userID, name, phone); err != nil {
		b.send(ctx, chatID, msgRegistrationError, contactKeyboard())
		return
	}

	b.sessions.clear(chatID)
	b.send(ctx, chatID, fmt.Sprintf(msgRegistrationSuccess, name, phone), b.menuFor(userID))
}

func (b *Bot) handleCancel(ctx context.Context, chatID, userID int64, sess session) {
	if sess.State == "" {
		b.send(ctx, chatID, "Нечего отменять.", nil)
		return
	}
	b.sessions.clear(chatID)

	user, _ := b.coord.User(ctx, userID)
	if user != nil {
		b.send(ctx, chatID, "Действие отменено.", b.menuFor(userID))
	} else {
		b.send(ctx, chatID, "Действие отменено.", nil)
	}
}

func (b *Bot) handleSelectProject(ctx context.Context, chatID, userID int64) {
	if !b.requireUser(ctx, chatID, userID) {
		return
	}

	projects := b.coord.Projects(ctx)
	if len(projects) == 0 {
		b.send(ctx, chatID, msgNoProjects, nil)
		return
	}
	b.send(ctx, chatID, "📋 Выберите проект:", projectsKeyboard(projects))
}

func (b *Bot) handleMyTasks(ctx context.Context, chatID, userID int64) {
	if !b.requireUser(ctx, chatID, userID) {
		return
	}

	tasks, err := b.coord.UserTasks(ctx, userID)
	if err != nil || len(tasks) == 0 {
		b.send(ctx, chatID, "У вас пока нет задач.", nil)
		return
	}

	var sb strings.Builder
	sb.WriteString("<b>📝 Ваши задачи:</b>\n\n")
	for _, t := range tasks {
		emoji, ok := statusEmoji[t.Status]
		if !ok {
			emoji = "❓"
		}
		fmt.Fprintf(&sb, "%s <b>%s</b>\n📝 %s\nСтатус: %s\nСоздано: %s\n\n",
			emoji, t.ProjectName, t.TaskName, t.Status, t.CreatedAt.Format("02.01.2006 15:04"))
	}
	b.send(ctx, chatID, sb.String(), nil)
}

func (b *Bot) handleEnterData(ctx context.Context, chatID, userID int64) {
	if !b.requireUser(ctx, chatID, userID) {
		return
	}

	latest, err := b.coord.LatestApproved(ctx, userID)
	if err != nil {
		b.send(ctx, chatID, msgNoApproved, nil)
		return
	}

	b.sessions.set(chatID, session{
		State:         stateWritingNote,
		NoteProject:   latest.ProjectName,
		NoteTaskIndex: latest.TaskIndex,
	})
	b.send(ctx, chatID, fmt.Sprintf(
		"✍️ Отправьте текст для записи в столбец K\nПроект: <b>%s</b>, задача #%d",
		latest.ProjectName, latest.TaskIndex+1), nil)
}

func (b *Bot) handleStatistics(ctx context.Context, chatID, userID int64) {
	if !b.coord.IsAdmin(userID) {
		b.send(ctx, chatID, msgNoAccess, nil)
		return
	}

	stats, err := b.coord.Statistics(ctx)
	if err != nil {
		b.send(ctx, chatID, "❌ Не удалось получить статистику.", nil)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>📊 Статистика бота</b>\n\n👥 Всего пользователей: %d\n✅ Активных (7 дней): %d\n\n",
		stats.TotalUsers, stats.ActiveUsers)
	fmt.Fprintf(&sb, "<b>Задачи:</b>\n📋 Всего: %d\n⏳ В ожидании: %d\n✅ Одобрено: %d\n❌ Отклонено: %d\n🎉 Завершено: %d\n",
		stats.TotalTasks, stats.PendingTasks, stats.ApprovedTasks, stats.RejectedTasks, stats.CompletedTasks)
	if len(stats.TopProjects) > 0 {
		sb.WriteString("\n<b>Топ проектов:</b>\n")
		for _, p := range stats.TopProjects {
			fmt.Fprintf(&sb, "• %s: %d\n", p.ProjectName, p.Count)
		}
	}
	b.send(ctx, chatID, sb.String(), nil)
}

func (b *Bot) handleAllTasks(ctx context.Context, chatID, userID int64) {
	if !b.coord.IsAdmin(userID) {
		b.send(ctx, chatID, msgNoAccess, nil)
		return
	}

	tasks, err := b.coord.AllTasks(ctx, 50)
	if err != nil || len(tasks) == 0 {
		b.send(ctx, chatID, "Задач пока нет.", nil)
		return
	}

	var sb strings.Builder
	sb.WriteString("<b>📑 Все задачи (последние 50):</b>\n\n")
	shown := tasks
	if len(shown) > 20 {
		shown = shown[:20]
	}
	for _, t := range shown {
		emoji, ok := statusEmoji[t.Status]
		if !ok {
			emoji = "❓"
		}
		taskName := t.TaskName
		if len([]rune(taskName)) > 50 {
			taskName = string([]rune(taskName)[:50]) + "..."
		}
		fmt.Fprintf(&sb, "%s <b>%s</b> (%s)\n📋 %s\n📝 %s\nСтатус: %s\n\n",
			emoji, t.Name, t.Phone, t.ProjectName, taskName, t.Status)
	}
	if len(tasks) > 20 {
		fmt.Fprintf(&sb, "\n... и еще %d задач", len(tasks)-20)
	}
	b.send(ctx, chatID, sb.String(), nil)
}

func (b *Bot) handleNoteText(ctx context.Context, chatID, userID int64, sess session, text string) {
	if text == "" {
		b.send(ctx, chatID, msgNoteEmpty, nil)
		return
	}

	err := b.coord.Annotate(ctx, userID, sess.NoteProject, sess.NoteTaskIndex, text)
	switch {
	case errors.Is(err, coordinator.ErrNotApproved):
		b.send(ctx, chatID, msgNotApproved, nil)
	case err != nil:
		b.send(ctx, chatID, msgNoteFailed, nil)
	default:
		b.send(ctx, chatID, msgNoteSaved, nil)
	}
	b.sessions.clear(chatID)
}

func (b *Bot) handleCallback(ctx context.Context, cb *CallbackQuery) {
	data := cb.Data
	switch {
	case strings.HasPrefix(data, "project_"):
		b.handleProjectCallback(ctx, cb)
	case strings.HasPrefix(data, "task_"):
		b.handleTaskCallback(ctx, cb)
	case data == "back_to_projects":
		b.editCallbackMessage(ctx, cb, "📋 Выберите проект:", projectsKeyboard(b.coord.Projects(ctx)))
		b.answer(ctx, cb.ID, "")
	case strings.HasPrefix(data, "addnote_"):
		b.handleAddNoteCallback(ctx, cb)
	case strings.HasPrefix(data, "approve_"):
		b.handleDecisionCallback(ctx, cb, true)
	case strings.HasPrefix(data, "reject_"):
		b.handleDecisionCallback(ctx, cb, false)
	default:
		b.answer(ctx, cb.ID, "")
	}
}

func (b *Bot) handleProjectCallback(ctx context.Context, cb *CallbackQuery) {
	project := strings.TrimPrefix(cb.Data, "project_")

	tasks := b.coord.Tasks(ctx, project)
	if len(tasks) == 0 {
		b.editCallbackMessage(ctx, cb, fmt.Sprintf(msgNoTasks, project), nil)
		b.answer(ctx, cb.ID, "")
		return
	}

	b.editCallbackMessage(ctx, cb,
		fmt.Sprintf("📋 Проект: <b>%s</b>\n\nВыберите задачу:", project),
		tasksKeyboard(tasks, project))
	b.answer(ctx, cb.ID, "")
}

func (b *Bot) handleTaskCallback(ctx context.Context, cb *CallbackQuery) {
	project, taskIndex, err := parseTaskCallback(cb.Data, "task_")
	if err != nil {
		b.answer(ctx, cb.ID, "❌ Ошибка в данных задачи")
		return
	}

	taskName, err := b.coord.RequestTask(ctx, cb.From.ID, project, taskIndex)
	switch {
	case errors.Is(err, coordinator.ErrNotRegistered):
		b.answer(ctx, cb.ID, msgNotRegistered)
	case errors.Is(err, coordinator.ErrTaskNotFound):
		b.answer(ctx, cb.ID, "❌ Задача не найдена")
	case err != nil:
		b.answer(ctx, cb.ID, "❌ Ошибка при создании запроса")
	default:
		b.editCallbackMessage(ctx, cb, fmt.Sprintf(msgRequestSent, project, taskName), nil)
		b.answer(ctx, cb.ID, "")
	}
}

func (b *Bot) handleAddNoteCallback(ctx context.Context, cb *CallbackQuery) {
	project, taskIndex, err := parseTaskCallback(cb.Data, "addnote_")
	if err != nil {
		b.answer(ctx, cb.ID, "❌ Ошибка данных")
		return
	}

	ok, err := b.coord.HasApproved(ctx, cb.From.ID, project, taskIndex)
	if err != nil || !ok {
		b.answer(ctx, cb.ID, "Задача ещё не одобрена администратором")
		return
	}

	b.sessions.set(chatIDOf(cb), session{
		State:         stateWritingNote,
		NoteProject:   project,
		NoteTaskIndex: taskIndex,
	})
	b.editCallbackMessage(ctx, cb,
		fmt.Sprintf("✍️ Отправьте текст комментария для проекта <b>%s</b>, задача #%d", project, taskIndex+1), nil)
	b.answer(ctx, cb.ID, "")
}

func (b *Bot) handleDecisionCallback(ctx context.Context, cb *CallbackQuery, approve bool) {
	prefix := "reject_"
	if approve {
		prefix = "approve_"
	}
	userID, project, taskIndex, err := parseDecisionCallback(cb.Data, prefix)
	if err != nil {
		b.answer(ctx, cb.ID, "❌ Ошибка в данных задачи")
		return
	}

	var decision *coordinator.Decision
	if approve {
		decision, err = b.coord.Approve(ctx, cb.From.ID, userID, project, taskIndex)
	} else {
		decision, err = b.coord.Reject(ctx, cb.From.ID, userID, project, taskIndex)
	}

	switch {
	case errors.Is(err, coordinator.ErrNotAdmin):
		b.answer(ctx, cb.ID, "❌ У вас нет прав администратора")
	case errors.Is(err, coordinator.ErrSheetWrite):
		b.answer(ctx, cb.ID, msgSheetError)
	case err != nil:
		b.answer(ctx, cb.ID, "❌ Не удалось обработать решение")
	default:
		format := msgAdminRejected
		if approve {
			format = msgAdminApproved
		}
		b.editCallbackMessage(ctx, cb,
			fmt.Sprintf(format, decision.UserName, decision.UserPhone, decision.ProjectName, decision.TaskName), nil)
		b.answer(ctx, cb.ID, "")
	}
}

// requireUser sends a registration hint and returns false when the sender is unknown.
func (b *Bot) requireUser(ctx context.Context, chatID, userID int64) bool {
	user, err := b.coord.User(ctx, userID)
	if err != nil || user == nil {
		b.send(ctx, chatID, msgNotRegistered, nil)
		return false
	}
	return true
}

func (b *Bot) menuFor(userID int64) *ReplyKeyboardMarkup {
	if b.coord.IsAdmin(userID) {
		return adminMenuKeyboard()
	}
	return mainMenuKeyboard()
}

func (b *Bot) helpText(userID int64) string {
	help := "<b>📖 Справка по боту</b>\n\n" +
		"<b>Команды:</b>\n/start - Главное меню\n/help - Справка\n/cancel - Отменить текущее действие\n\n" +
		"<b>Кнопки:</b>\n📋 Выбрать проект - Выбор проекта и задачи\n📝 Мои задачи - Просмотр ваших задач\n"
	if b.coord.IsAdmin(userID) {
		help += "\n<b>Админ-функции:</b>\n📊 Статистика - Статистика по боту\n📑 Все задачи - Просмотр всех задач\n"
	}
	return help
}

func (b *Bot) send(ctx context.Context, chatID int64, text string, markup interface{}) {
	// reply_markup must be absent, not a typed nil, or Telegram rejects the call
	var m interface{}
	switch v := markup.(type) {
	case *ReplyKeyboardMarkup:
		if v != nil {
			m = v
		}
	case *InlineKeyboardMarkup:
		if v != nil {
			m = v
		}
	}
	if err := b.api.SendMessage(ctx, chatID, text, m); err != nil {
		logrus.Errorf("telegram: sending to %d: %v", chatID, err)
	}
}

func (b *Bot) editCallbackMessage(ctx context.Context, cb *CallbackQuery, text string, markup *InlineKeyboardMarkup) {
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	if err := b.api.EditMessageText(ctx, cb.Message.Chat.ID, cb.Message.MessageID, text, markup); err != nil {
		logrus.Errorf("telegram: editing message in %d: %v", cb.Message.Chat.ID, err)
	}
}

func (b *Bot) answer(ctx context.Context, callbackID, text string) {
	if err := b.api.AnswerCallbackQuery(ctx, callbackID, text); err != nil {
		logrus.Errorf("telegram: answering callback: %v", err)
	}
}

func chatIDOf(cb *CallbackQuery) int64 {
	if cb.Message != nil && cb.Message.Chat != nil {
		return cb.Message.Chat.ID
	}
	return cb.From.ID
}
