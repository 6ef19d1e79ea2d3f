package logger

import (
	"fmt"

	"github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender — часть *tgbotapi.BotAPI, нужная для отправки сообщений
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier шлёт оператору уведомления о сбоях в Telegram
type Notifier struct {
	bot    Sender
	chatID int64
	log    *zap.Logger
}

func NewNotifier(bot Sender, chatID int64, log *zap.Logger) *Notifier {
	return &Notifier{bot: bot, chatID: chatID, log: log}
}

// NotifyAdmin отправляет критическое уведомление оператору
func (n *Notifier) NotifyAdmin(msg string) {
	n.log.Warn("operator alert", zap.String("message", msg))
	if n.bot == nil || n.chatID == 0 {
		return
	}
	if _, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, "[ALERT] "+msg)); err != nil {
		n.log.Error("failed to notify operator", zap.Error(err))
	}
}

// NotifyOnPanic ловит панику, логирует и уведомляет. Вызывать через defer.
func (n *Notifier) NotifyOnPanic(context string) {
	if r := recover(); r != nil {
		n.log.Error("panic recovered", zap.String("context", context), zap.Any("panic", r), zap.Stack("stack"))
		n.NotifyAdmin("Panic in " + context + ": " + toString(r))
	}
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case error:
		return t.Error()
	default:
		return fmt.Sprintf("%v", t)
	}
}
