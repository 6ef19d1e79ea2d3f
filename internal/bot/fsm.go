package bot

import (
	"context"
	"strings"

	"github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"utility-telegram-bot/internal/db"
)

// State — состояние диалога с пользователем
type State int

const (
	Choosing State = iota
	ElectricityEntry
	WaterEntry
	GasEntry
	GasPhotoEntry
)

func (s State) String() string {
	switch s {
	case Choosing:
		return "choosing"
	case ElectricityEntry:
		return "electricity_entry"
	case WaterEntry:
		return "water_entry"
	case GasEntry:
		return "gas_entry"
	case GasPhotoEntry:
		return "gas_photo_entry"
	}
	return "unknown"
}

type EventKind int

const (
	TextMessage EventKind = iota
	PhotoMessage
	CallbackAction
)

func (k EventKind) String() string {
	switch k {
	case TextMessage:
		return "text"
	case PhotoMessage:
		return "photo"
	case CallbackAction:
		return "callback"
	}
	return "unknown"
}

// Event — входящий апдейт, сведённый к одному из трёх видов
type Event struct {
	Kind     EventKind
	UpdateID int
	ChatID   int64
	From     db.TelegramProfile

	Text        string // текст сообщения или data callback-кнопки
	PhotoFileID string
	CallbackID  string
	MessageID   int
}

// EventFromUpdate разбирает апдейт; false — апдейт не интересен боту
func EventFromUpdate(u tgbotapi.Update) (Event, bool) {
	switch {
	case u.CallbackQuery != nil:
		cq := u.CallbackQuery
		if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
			return Event{}, false
		}
		return Event{
			Kind:       CallbackAction,
			UpdateID:   u.UpdateID,
			ChatID:     cq.Message.Chat.ID,
			From:       profile(cq.From, cq.Message.Chat.ID),
			Text:       cq.Data,
			CallbackID: cq.ID,
			MessageID:  cq.Message.MessageID,
		}, true
	case u.Message != nil:
		m := u.Message
		if m.From == nil || m.Chat == nil {
			return Event{}, false
		}
		ev := Event{
			UpdateID:  u.UpdateID,
			ChatID:    m.Chat.ID,
			From:      profile(m.From, m.Chat.ID),
			MessageID: m.MessageID,
		}
		if len(m.Photo) > 0 {
			ev.Kind = PhotoMessage
			// последний размер самый крупный
			ev.PhotoFileID = m.Photo[len(m.Photo)-1].FileID
			ev.Text = m.Caption
			return ev, true
		}
		if m.Text == "" {
			return Event{}, false
		}
		ev.Kind = TextMessage
		ev.Text = strings.TrimSpace(m.Text)
		return ev, true
	}
	return Event{}, false
}

func profile(u *tgbotapi.User, chatID int64) db.TelegramProfile {
	return db.TelegramProfile{
		ID:        u.ID,
		ChatID:    chatID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.UserName,
	}
}

const (
	cancelPhrase  = "Меню"
	cancelCommand = "/cancel"
)

// IsCancel — фраза возврата в меню из любого состояния
func IsCancel(text string) bool {
	text = strings.TrimSpace(text)
	return text == cancelPhrase || text == cancelCommand
}

type transitionKey struct {
	state State
	kind  EventKind
}

type stateHandler func(h *Handler, ctx context.Context, ev Event) (State, error)

// transitions — таблица (состояние, вид события) → обработчик.
// Обработчик возвращает следующее состояние; при ошибке ввода — текущее.
var transitions = map[transitionKey]stateHandler{
	{Choosing, TextMessage}:         (*Handler).onMenu,
	{Choosing, CallbackAction}:      (*Handler).onCallback,
	{ElectricityEntry, TextMessage}: entryStep(db.KindElectricity, ElectricityEntry, WaterEntry, "Вода:"),
	{WaterEntry, TextMessage}:       entryStep(db.KindWater, WaterEntry, GasEntry, "Газ:"),
	{GasEntry, TextMessage}:         entryStep(db.KindGas, GasEntry, GasPhotoEntry, "фото газового счетчика :)"),
	{GasPhotoEntry, PhotoMessage}:   (*Handler).onGasPhoto,
}

// entryStep — шаг ввода показаний: проверка, запись, переход к следующему счётчику
func entryStep(kind db.Kind, current, next State, nextPrompt string) stateHandler {
	return func(h *Handler, ctx context.Context, ev Event) (State, error) {
		return h.onReading(ctx, ev, kind, current, next, nextPrompt)
	}
}

func lookup(state State, kind EventKind) (stateHandler, bool) {
	fn, ok := transitions[transitionKey{state, kind}]
	return fn, ok
}
