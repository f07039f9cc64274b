package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	btnSelectProject = "📋 Выбрать проект"
	btnMyTasks       = "📝 Мои задачи"
	btnEnterData     = "✍️ Ввести данные"
	btnStatistics    = "📊 Статистика"
	btnAllTasks      = "📑 Все задачи"
)

func contactKeyboard() *ReplyKeyboardMarkup {
	return &ReplyKeyboardMarkup{
		Keyboard: [][]KeyboardButton{
			{{Text: "📱 Отправить контакт", RequestContact: true}},
		},
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}
}

func mainMenuKeyboard() *ReplyKeyboardMarkup {
	return &ReplyKeyboardMarkup{
		Keyboard: [][]KeyboardButton{
			{{Text: btnSelectProject}, {Text: btnMyTasks}},
			{{Text: btnEnterData}},
		},
		ResizeKeyboard: true,
	}
}

func adminMenuKeyboard() *ReplyKeyboardMarkup {
	kb := mainMenuKeyboard()
	kb.Keyboard = append(kb.Keyboard, []KeyboardButton{
		{Text: btnStatistics}, {Text: btnAllTasks},
	})
	return kb
}

func projectsKeyboard(projects []string) *InlineKeyboardMarkup {
	rows := make([][]InlineKeyboardButton, 0, len(projects))
	for _, name := range projects {
		rows = append(rows, []InlineKeyboardButton{
			{Text: name, CallbackData: "project_" + name},
		})
	}
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}

func tasksKeyboard(tasks []string, project string) *InlineKeyboardMarkup {
	rows := make([][]InlineKeyboardButton, 0, len(tasks)+1)
	for idx, task := range tasks {
		title := task
		if len([]rune(title)) > 64 {
			title = string([]rune(title)[:61]) + "..."
		}
		rows = append(rows, []InlineKeyboardButton{
			{Text: title, CallbackData: fmt.Sprintf("task_%s_%d", project, idx)},
		})
	}
	rows = append(rows, []InlineKeyboardButton{
		{Text: "⬅️ Назад", CallbackData: "back_to_projects"},
	})
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}

func adminDecisionKeyboard(userID int64, project string, taskIndex int) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{{
		{Text: "✅ Одобрить", CallbackData: fmt.Sprintf("approve_%d_%s_%d", userID, project, taskIndex)},
		{Text: "❌ Отклонить", CallbackData: fmt.Sprintf("reject_%d_%s_%d", userID, project, taskIndex)},
	}}}
}

func addNoteKeyboard(project string, taskIndex int) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{{
		{Text: "✍️ Добавить комментарий", CallbackData: fmt.Sprintf("addnote_%s_%d", project, taskIndex)},
	}}}
}

// parseTaskCallback splits "task_<project>_<idx>" and "addnote_<project>_<idx>"
// payloads. The index is the last underscore-separated field so project names
// containing underscores survive the round trip.
func parseTaskCallback(data, prefix string) (project string, taskIndex int, err error) {
	payload := strings.TrimPrefix(data, prefix)
	cut := strings.LastIndex(payload, "_")
	if cut <= 0 {
		return "", 0, errors.Errorf("malformed callback data %q", data)
	}
	idx, err := strconv.Atoi(payload[cut+1:])
	if err != nil {
		return "", 0, errors.Errorf("malformed task index in %q", data)
	}
	return payload[:cut], idx, nil
}

// parseDecisionCallback splits "approve_<uid>_<project>_<idx>" and the
// matching reject payloads.
func parseDecisionCallback(data, prefix string) (userID int64, project string, taskIndex int, err error) {
	payload := strings.TrimPrefix(data, prefix)
	first := strings.Index(payload, "_")
	last := strings.LastIndex(payload, "_")
	if first <= 0 || last <= first {
		return 0, "", 0, errors.Errorf("malformed callback data %q", data)
	}
	userID, err = strconv.ParseInt(payload[:first], 10, 64)
	if err != nil {
		return 0, "", 0, errors.Errorf("malformed user id in %q", data)
	}
	taskIndex, err = strconv.Atoi(payload[last+1:])
	if err != nil {
		return 0, "", 0, errors.Errorf("malformed task index in %q", data)
	}
	return userID, payload[first+1 : last], taskIndex, nil
}
