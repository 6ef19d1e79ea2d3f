package bot

import (
	"context"
	"time"

	"github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"utility-telegram-bot/internal/logger"
	"utility-telegram-bot/internal/metrics"
)

const defaultUpdateTimeout = 30 * time.Second

// Bot — long polling; апдейты обрабатываются строго по одному
type Bot struct {
	api           *tgbotapi.BotAPI
	handler       *Handler
	notifier      *logger.Notifier
	log           *zap.Logger
	updateTimeout time.Duration
}

func New(api *tgbotapi.BotAPI, handler *Handler, notifier *logger.Notifier, log *zap.Logger, updateTimeout time.Duration) *Bot {
	if updateTimeout <= 0 {
		updateTimeout = defaultUpdateTimeout
	}
	return &Bot{api: api, handler: handler, notifier: notifier, log: log, updateTimeout: updateTimeout}
}

// Run читает апдейты до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	b.log.Info("authorized", zap.String("account", b.api.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate обрабатывает один апдейт со своим request_id и таймаутом
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if b.notifier != nil {
		defer b.notifier.NotifyOnPanic("update handler")
	}
	ev, ok := EventFromUpdate(update)
	if !ok {
		return
	}
	log := logger.WithRequestID(b.log, uuid.NewString()).With(
		zap.Int("update_id", update.UpdateID),
		zap.Int64("user_id", ev.From.ID),
		zap.Stringer("event", ev.Kind),
	)
	metrics.UpdatesHandledTotal.WithLabelValues(ev.Kind.String()).Inc()

	ctx, cancel := context.WithTimeout(ctx, b.updateTimeout)
	defer cancel()
	ctx = logger.IntoContext(ctx, log)

	started := time.Now()
	if err := b.handler.Dispatch(ctx, ev); err != nil {
		log.Error("update failed", zap.Error(err), zap.Duration("duration", time.Since(started)))
		return
	}
	log.Debug("update handled", zap.Duration("duration", time.Since(started)))
}
