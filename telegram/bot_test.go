package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/KMohir/ProyektSXF/coordinator"
	"github.com/KMohir/ProyektSXF/models"
	"github.com/KMohir/ProyektSXF/retrypolicy"
	"github.com/KMohir/ProyektSXF/store"
)

const (
	testAdmin  = int64(1)
	testWorker = int64(900)
)

type sentMessage struct {
	ChatID int64
	Text   string
	Markup interface{}
}

// recorderAPI captures outbound Bot API calls instead of hitting the network.
type recorderAPI struct {
	sent    []sentMessage
	edits   []sentMessage
	answers []string
}

func (r *recorderAPI) SendMessage(ctx context.Context, chatID int64, text string, markup interface{}) error {
	r.sent = append(r.sent, sentMessage{ChatID: chatID, Text: text, Markup: markup})
	return nil
}

func (r *recorderAPI) EditMessageText(ctx context.Context, chatID, messageID int64, text string, markup *InlineKeyboardMarkup) error {
	r.edits = append(r.edits, sentMessage{ChatID: chatID, Text: text, Markup: markup})
	return nil
}

func (r *recorderAPI) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	r.answers = append(r.answers, text)
	return nil
}

func (r *recorderAPI) sentTo(chatID int64) []string {
	var out []string
	for _, m := range r.sent {
		if m.ChatID == chatID {
			out = append(out, m.Text)
		}
	}
	return out
}

type stubInventory struct {
	tasks    map[string][]string
	assigned []string
}

func (s *stubInventory) ListProjects(ctx context.Context) []string {
	var out []string
	for p := range s.tasks {
		out = append(out, p)
	}
	return out
}

func (s *stubInventory) ListTasks(ctx context.Context, project string) []string {
	return s.tasks[project]
}

func (s *stubInventory) TaskByIndex(ctx context.Context, project string, index int) (string, bool) {
	tasks := s.tasks[project]
	if index < 0 || index >= len(tasks) {
		return "", false
	}
	return tasks[index], true
}

func (s *stubInventory) AssignTask(ctx context.Context, project string, index int, name, phone string) bool {
	s.assigned = append(s.assigned, fmt.Sprintf("%s/%d/%s", project, index, name))
	return true
}

func (s *stubInventory) WriteAnnotation(ctx context.Context, project string, index int, text string) bool {
	s.assigned = append(s.assigned, fmt.Sprintf("%s/%d/K=%s", project, index, text))
	return true
}

func newTestBot(t *testing.T, inv *stubInventory) (*Bot, *recorderAPI) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.TaskRequest{}, &models.ActionLog{}); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM tasks")
		db.Exec("DELETE FROM users")
		db.Exec("DELETE FROM action_logs")
	})

	api := &recorderAPI{}
	st := store.New(db, retrypolicy.Policy{Attempts: 1, Delay: time.Millisecond})
	coord := coordinator.New(st, inv, NewNotifier(api), []int64{testAdmin})
	return NewBot(api, coord), api
}

func deliver(t *testing.T, bot *Bot, update interface{}) {
	t.Helper()
	body, err := json.Marshal(update)
	if err != nil {
		t.Fatalf("marshaling update: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/telegram/webhook", strings.NewReader(string(body)))
	rec := httptest.NewRecorder()
	bot.WebhookHandler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("webhook returned %d", rec.Code)
	}
}

func textUpdate(userID int64, text string) *Update {
	return &Update{Message: &Message{
		From: &Sender{ID: userID},
		Chat: &Chat{ID: userID},
		Text: text,
	}}
}

func callbackUpdate(userID int64, data string) *Update {
	return &Update{CallbackQuery: &CallbackQuery{
		ID:   "cb1",
		From: &Sender{ID: userID},
		Data: data,
		Message: &Message{
			MessageID: 55,
			Chat:      &Chat{ID: userID},
		},
	}}
}

func registerWorker(t *testing.T, bot *Bot) {
	t.Helper()
	deliver(t, bot, textUpdate(testWorker, "/start"))
	deliver(t, bot, &Update{Message: &Message{
		From: &Sender{ID: testWorker},
		Chat: &Chat{ID: testWorker},
		Contact: &Contact{
			PhoneNumber: "+99890",
			FirstName:   "Иван",
			UserID:      testWorker,
		},
	}})
}

func TestWebhook_RejectsInvalidBody(t *testing.T) {
	bot, _ := newTestBot(t, &stubInventory{})
	req := httptest.NewRequest(http.MethodPost, "/v1/telegram/webhook", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	bot.WebhookHandler(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestStart_UnknownUserGetsContactPrompt(t *testing.T) {
	bot, api := newTestBot(t, &stubInventory{})

	deliver(t, bot, textUpdate(testWorker, "/start"))

	if len(api.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(api.sent))
	}
	if api.sent[0].Text != msgWelcomeNew {
		t.Fatalf("expected the welcome prompt, got %q", api.sent[0].Text)
	}
	kb, ok := api.sent[0].Markup.(*ReplyKeyboardMarkup)
	if !ok || !kb.Keyboard[0][0].RequestContact {
		t.Fatalf("expected a contact-request keyboard, got %+v", api.sent[0].Markup)
	}
}

func TestContact_ForeignContactRejected(t *testing.T) {
	bot, api := newTestBot(t, &stubInventory{})

	deliver(t, bot, textUpdate(testWorker, "/start"))
	deliver(t, bot, &Update{Message: &Message{
		From:    &Sender{ID: testWorker},
		Chat:    &Chat{ID: testWorker},
		Contact: &Contact{PhoneNumber: "+1", FirstName: "X", UserID: 777},
	}})

	texts := api.sentTo(testWorker)
	if texts[len(texts)-1] != msgOwnContactOnly {
		t.Fatalf("expected own-contact rejection, got %q", texts[len(texts)-1])
	}

	user, _ := bot.coord.User(context.Background(), testWorker)
	if user != nil {
		t.Fatalf("expected no registration from a foreign contact")
	}
}

func TestContact_RegistersAndShowsMenu(t *testing.T) {
	bot, api := newTestBot(t, &stubInventory{})

	registerWorker(t, bot)

	user, err := bot.coord.User(context.Background(), testWorker)
	if err != nil || user == nil {
		t.Fatalf("expected a registered user, err=%v", err)
	}
	if user.Name != "Иван" || user.Phone != "+99890" {
		t.Fatalf("unexpected profile: %+v", user)
	}

	last := api.sent[len(api.sent)-1]
	if !strings.Contains(last.Text, "Регистрация успешно завершена") {
		t.Fatalf("expected success message, got %q", last.Text)
	}
	if _, ok := last.Markup.(*ReplyKeyboardMarkup); !ok {
		t.Fatalf("expected the main menu keyboard")
	}
}

func TestSelectProject_UnregisteredIsRefused(t *testing.T) {
	bot, api := newTestBot(t, &stubInventory{tasks: map[string][]string{"Alpha": {"one"}}})

	deliver(t, bot, textUpdate(testWorker, btnSelectProject))

	if api.sent[0].Text != msgNotRegistered {
		t.Fatalf("expected registration hint, got %q", api.sent[0].Text)
	}
}

func TestTaskCallback_CreatesRequestAndNotifiesAdmin(t *testing.T) {
	inv := &stubInventory{tasks: map[string][]string{"Alpha": {"one", "two"}}}
	bot, api := newTestBot(t, inv)
	registerWorker(t, bot)

	deliver(t, bot, callbackUpdate(testWorker, "task_Alpha_1"))

	if len(api.edits) != 1 || !strings.Contains(api.edits[0].Text, "two") {
		t.Fatalf("expected the request confirmation edit, got %+v", api.edits)
	}

	adminTexts := api.sentTo(testAdmin)
	if len(adminTexts) != 1 || !strings.Contains(adminTexts[0], "Новый запрос") {
		t.Fatalf("expected an admin notification, got %v", adminTexts)
	}

	tasks, err := bot.coord.UserTasks(context.Background(), testWorker)
	if err != nil || len(tasks) != 1 {
		t.Fatalf("expected one request, got %v err=%v", tasks, err)
	}
	if tasks[0].Status != models.StatusPending || tasks[0].TaskName != "two" {
		t.Fatalf("unexpected request: %+v", tasks[0])
	}
}

func TestApproveCallback_AssignsAndNotifiesWorker(t *testing.T) {
	inv := &stubInventory{tasks: map[string][]string{"Alpha": {"one"}}}
	bot, api := newTestBot(t, inv)
	registerWorker(t, bot)
	deliver(t, bot, callbackUpdate(testWorker, "task_Alpha_0"))

	deliver(t, bot, callbackUpdate(testAdmin, fmt.Sprintf("approve_%d_Alpha_0", testWorker)))

	if len(inv.assigned) != 1 || inv.assigned[0] != "Alpha/0/Иван" {
		t.Fatalf("expected spreadsheet assignment, got %v", inv.assigned)
	}

	lastEdit := api.edits[len(api.edits)-1]
	if !strings.Contains(lastEdit.Text, "одобрена и назначена") {
		t.Fatalf("expected the admin confirmation edit, got %q", lastEdit.Text)
	}

	workerTexts := api.sentTo(testWorker)
	found := false
	for _, txt := range workerTexts {
		if strings.Contains(txt, "Ваш запрос одобрен") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the worker to learn about the approval, got %v", workerTexts)
	}
}

func TestApproveCallback_NonAdminRefused(t *testing.T) {
	inv := &stubInventory{tasks: map[string][]string{"Alpha": {"one"}}}
	bot, api := newTestBot(t, inv)
	registerWorker(t, bot)
	deliver(t, bot, callbackUpdate(testWorker, "task_Alpha_0"))

	deliver(t, bot, callbackUpdate(testWorker, fmt.Sprintf("approve_%d_Alpha_0", testWorker)))

	if len(inv.assigned) != 0 {
		t.Fatalf("expected no assignment for a non-admin, got %v", inv.assigned)
	}
	last := api.answers[len(api.answers)-1]
	if !strings.Contains(last, "нет прав") {
		t.Fatalf("expected an admin-rights refusal, got %q", last)
	}
}

func TestNoteFlow_WritesAnnotation(t *testing.T) {
	inv := &stubInventory{tasks: map[string][]string{"Alpha": {"one"}}}
	bot, api := newTestBot(t, inv)
	registerWorker(t, bot)
	deliver(t, bot, callbackUpdate(testWorker, "task_Alpha_0"))
	deliver(t, bot, callbackUpdate(testAdmin, fmt.Sprintf("approve_%d_Alpha_0", testWorker)))

	deliver(t, bot, textUpdate(testWorker, btnEnterData))
	deliver(t, bot, textUpdate(testWorker, "фундамент залит"))

	found := false
	for _, w := range inv.assigned {
		if w == "Alpha/0/K=фундамент залит" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the annotation in the sheet, got %v", inv.assigned)
	}

	texts := api.sentTo(testWorker)
	if texts[len(texts)-1] != msgNoteSaved {
		t.Fatalf("expected the saved confirmation, got %q", texts[len(texts)-1])
	}
}

func TestNoteFlow_WithoutApprovedTask(t *testing.T) {
	bot, api := newTestBot(t, &stubInventory{tasks: map[string][]string{"Alpha": {"one"}}})
	registerWorker(t, bot)

	deliver(t, bot, textUpdate(testWorker, btnEnterData))

	texts := api.sentTo(testWorker)
	if texts[len(texts)-1] != msgNoApproved {
		t.Fatalf("expected the no-approved-tasks hint, got %q", texts[len(texts)-1])
	}
}

func TestStatistics_AdminOnly(t *testing.T) {
	bot, api := newTestBot(t, &stubInventory{})
	registerWorker(t, bot)

	deliver(t, bot, textUpdate(testWorker, btnStatistics))

	texts := api.sentTo(testWorker)
	if texts[len(texts)-1] != msgNoAccess {
		t.Fatalf("expected the access refusal, got %q", texts[len(texts)-1])
	}
}

func TestCancel_ClearsPendingNoteState(t *testing.T) {
	inv := &stubInventory{tasks: map[string][]string{"Alpha": {"one"}}}
	bot, _ := newTestBot(t, inv)
	registerWorker(t, bot)
	deliver(t, bot, callbackUpdate(testWorker, "task_Alpha_0"))
	deliver(t, bot, callbackUpdate(testAdmin, fmt.Sprintf("approve_%d_Alpha_0", testWorker)))
	deliver(t, bot, textUpdate(testWorker, btnEnterData))

	deliver(t, bot, textUpdate(testWorker, "/cancel"))
	deliver(t, bot, textUpdate(testWorker, "это уже не комментарий"))

	for _, w := range inv.assigned {
		if strings.Contains(w, "K=это уже не комментарий") {
			t.Fatalf("note state survived /cancel: %v", inv.assigned)
		}
	}
}
