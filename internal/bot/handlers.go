package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"utility-telegram-bot/internal/admin"
	"utility-telegram-bot/internal/billing"
	"utility-telegram-bot/internal/db"
	"utility-telegram-bot/internal/logger"
	"utility-telegram-bot/internal/metrics"
)

// Sender — часть *tgbotapi.BotAPI, нужная обработчикам
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type BillCalculator interface {
	Calculate(ctx context.Context, userID int64, now time.Time) (*billing.Bill, error)
}

type BillMailer interface {
	SendBill(ctx context.Context, bill *billing.Bill, latest *db.Reading) error
}

type HandlerDeps struct {
	Bot        Sender
	Users      *db.UserStore
	Readings   *db.ReadingStore
	Rates      *db.RateStore
	Ledger     *db.PaymentLedger
	Calculator BillCalculator
	Mailer     BillMailer // nil — письма не отправляются
	Admin      *admin.Handler
	Notifier   *logger.Notifier
	Limiter    *RateLimiter
	Sessions   *Sessions

	OwnerUsername string
	// SeedYear/SeedMonth — месяцы, отмечаемые оплаченными при /start владельца
	SeedYear  int
	SeedMonth int

	Location *time.Location
	Logger   *zap.Logger
	Now      func() time.Time
}

// Handler — обработчики состояний диалога
type Handler struct {
	HandlerDeps
	log *zap.Logger
}

func NewHandler(d HandlerDeps) *Handler {
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Limiter == nil {
		d.Limiter = DefaultRateLimiter()
	}
	if d.Sessions == nil {
		d.Sessions = NewSessions()
	}
	return &Handler{HandlerDeps: d, log: d.Logger.Named("bot")}
}

const (
	msgGreeting     = "Привет)"
	msgToMenu       = ">>"
	msgInvalidValue = "Ошибка. Возможно значение меньше предыдущего."
	msgRingDone     = "Отлично. Теперь можно получить счет :)"
	msgWaitPhoto    = "Жду фото газового счетчика :) Или «" + cancelPhrase + "», чтобы выйти."
	msgWaitNumber   = "Жду число с показаниями счетчика."
	msgBillFailed   = "Не получилось посчитать счет. Попробуй позже."
	msgTooFast      = "Пожалуйста, не так быстро! Подожди немного..."
	msgForbidden    = "Упс, так нельзя."
	msgBye          = "Ну, все. Пиши...)"
	msgFallback     = "Я бы поговорила, но я на работе))"
	msgStoreFailed  = "Что-то пошло не так, попробуй ещё раз."
)

func (h *Handler) now() time.Time {
	return h.Now().In(h.Location)
}

func (h *Handler) isOwner(ev Event) bool {
	return h.OwnerUsername != "" && ev.From.Username == h.OwnerUsername
}

// Dispatch регистрирует отправителя и проводит событие через таблицу переходов
func (h *Handler) Dispatch(ctx context.Context, ev Event) error {
	log := logger.FromContext(ctx, h.log)
	if _, created, err := h.Users.Ensure(ctx, ev.From); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	} else if created {
		log.Info("user registered", zap.Int64("user_id", ev.From.ID), zap.String("username", ev.From.Username))
	}

	state := h.Sessions.Get(ev.ChatID)
	next, err := h.route(ctx, state, ev)
	if next != state {
		log.Debug("state changed", zap.Stringer("from", state), zap.Stringer("to", next))
	}
	h.Sessions.Set(ev.ChatID, next)
	return err
}

func (h *Handler) route(ctx context.Context, state State, ev Event) (State, error) {
	if ev.Kind == TextMessage {
		if IsCancel(ev.Text) {
			return Choosing, h.reply(ev.ChatID, msgToMenu, MainMenu(h.isOwner(ev)))
		}
		if admin.IsCommand(ev.Text) && h.isOwner(ev) && h.Admin != nil {
			return Choosing, h.Admin.Handle(ctx, ev.ChatID, ev.From.ID, ev.Text)
		}
	}
	if fn, ok := lookup(state, ev.Kind); ok {
		return fn(h, ctx, ev)
	}
	return h.unexpected(ctx, state, ev)
}

// unexpected — событие, которого состояние не ждёт; состояние не меняется
func (h *Handler) unexpected(_ context.Context, state State, ev Event) (State, error) {
	if ev.Kind == CallbackAction {
		_, err := h.Bot.Request(tgbotapi.NewCallback(ev.CallbackID, ""))
		return state, err
	}
	switch state {
	case GasPhotoEntry:
		return state, h.reply(ev.ChatID, msgWaitPhoto, entryMenu())
	case ElectricityEntry, WaterEntry, GasEntry:
		return state, h.reply(ev.ChatID, msgWaitNumber, entryMenu())
	}
	return state, h.reply(ev.ChatID, msgFallback, MainMenu(h.isOwner(ev)))
}

func (h *Handler) onMenu(ctx context.Context, ev Event) (State, error) {
	switch ev.Text {
	case "/start":
		return h.start(ctx, ev)
	case menuCounters:
		return h.showCounters(ctx, ev)
	case menuNewReadings:
		return ElectricityEntry, h.reply(ev.ChatID, "Электричество:", entryMenu())
	case menuBill:
		return h.showBill(ctx, ev)
	case menuRates:
		return h.showRates(ctx, ev)
	case menuPaid:
		return h.showPaidMonths(ctx, ev)
	case menuBye:
		return Choosing, h.reply(ev.ChatID, msgBye, nil)
	}
	return Choosing, h.reply(ev.ChatID, msgFallback, MainMenu(h.isOwner(ev)))
}

func (h *Handler) start(ctx context.Context, ev Event) (State, error) {
	if h.isOwner(ev) && h.SeedYear > 0 && h.SeedMonth > 0 {
		created, err := h.Ledger.SeedPaid(ctx, h.SeedYear, h.SeedMonth)
		if err != nil {
			return Choosing, fmt.Errorf("seed payments: %w", err)
		}
		if created > 0 {
			logger.FromContext(ctx, h.log).Info("payment history seeded", zap.Int("months", created))
		}
	}
	return Choosing, h.reply(ev.ChatID, msgGreeting, MainMenu(h.isOwner(ev)))
}

func (h *Handler) showCounters(ctx context.Context, ev Event) (State, error) {
	latest, err := h.Readings.Latest(ctx, ev.From.ID)
	if err != nil {
		return Choosing, err
	}
	return Choosing, h.replyHTML(ev.ChatID, countersText(latest), countersMenu())
}

func (h *Handler) showRates(ctx context.Context, ev Event) (State, error) {
	rates, err := h.Rates.GetActive(ctx)
	if err != nil {
		return Choosing, err
	}
	return Choosing, h.replyHTML(ev.ChatID, ratesText(rates, h.now()), MainMenu(h.isOwner(ev)))
}

func (h *Handler) showBill(ctx context.Context, ev Event) (State, error) {
	if !h.isOwner(ev) && h.Limiter.IsLimited(ev.From.ID, menuBill) {
		return Choosing, h.reply(ev.ChatID, msgTooFast, MainMenu(false))
	}
	bill, err := h.Calculator.Calculate(ctx, ev.From.ID, h.now())
	if err != nil {
		logger.FromContext(ctx, h.log).Error("bill calculation failed", zap.Error(err))
		return Choosing, h.reply(ev.ChatID, msgBillFailed, MainMenu(h.isOwner(ev)))
	}
	return Choosing, h.replyHTML(ev.ChatID, bill.Text(), MainMenu(h.isOwner(ev)))
}

func (h *Handler) showPaidMonths(ctx context.Context, ev Event) (State, error) {
	year := h.now().Year()
	records, err := h.Ledger.YearPayments(ctx, year)
	if err != nil {
		return Choosing, err
	}
	msg := tgbotapi.NewMessage(ev.ChatID, paidMonthsText(records, year))
	msg.ParseMode = tgbotapi.ModeHTML
	if h.isOwner(ev) {
		msg.ReplyMarkup = paidMonthsKeyboard()
	} else {
		msg.ReplyMarkup = MainMenu(false)
	}
	_, err = h.Bot.Send(msg)
	return Choosing, err
}

func (h *Handler) onCallback(ctx context.Context, ev Event) (State, error) {
	if !strings.HasPrefix(ev.Text, payTogglePrefix) {
		_, err := h.Bot.Request(tgbotapi.NewCallback(ev.CallbackID, ""))
		return Choosing, err
	}
	if !h.isOwner(ev) {
		_, err := h.Bot.Request(tgbotapi.NewCallback(ev.CallbackID, msgForbidden))
		return Choosing, err
	}
	month, err := strconv.Atoi(strings.TrimPrefix(ev.Text, payTogglePrefix))
	if err != nil || month < 1 || month > 12 {
		_, err := h.Bot.Request(tgbotapi.NewCallback(ev.CallbackID, "Некорректный месяц"))
		return Choosing, err
	}

	year := h.now().Year()
	paid, err := h.Ledger.Toggle(ctx, year, month)
	if err != nil {
		return Choosing, err
	}
	logger.FromContext(ctx, h.log).Info("payment toggled",
		zap.Int("year", year), zap.Int("month", month), zap.Bool("paid", paid))

	status := "не оплачен"
	if paid {
		status = "оплачен"
	}
	if _, err := h.Bot.Request(tgbotapi.NewCallback(ev.CallbackID,
		fmt.Sprintf("%s: %s", billing.MonthName(time.Month(month)), status))); err != nil {
		return Choosing, err
	}

	records, err := h.Ledger.YearPayments(ctx, year)
	if err != nil {
		return Choosing, err
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(ev.ChatID, ev.MessageID, paidMonthsText(records, year), paidMonthsKeyboard())
	edit.ParseMode = tgbotapi.ModeHTML
	_, err = h.Bot.Request(edit)
	return Choosing, err
}

// onReading — ввод одного счётчика. Некорректное значение оставляет состояние прежним.
func (h *Handler) onReading(ctx context.Context, ev Event, kind db.Kind, current, next State, nextPrompt string) (State, error) {
	_, err := h.Readings.RecordReading(ctx, ev.From.ID, kind, ev.Text, h.now())
	switch {
	case db.IsValidationError(err):
		metrics.ReadingsRecordedTotal.WithLabelValues(string(kind), "invalid").Inc()
		logger.FromContext(ctx, h.log).Info("reading rejected", zap.String("kind", string(kind)), zap.Error(err))
		return current, h.reply(ev.ChatID, msgInvalidValue, entryMenu())
	case err != nil:
		metrics.ReadingsRecordedTotal.WithLabelValues(string(kind), "error").Inc()
		if replyErr := h.reply(ev.ChatID, msgStoreFailed, entryMenu()); replyErr != nil {
			err = errors.Join(err, replyErr)
		}
		return current, err
	}
	metrics.ReadingsRecordedTotal.WithLabelValues(string(kind), "ok").Inc()
	return next, h.reply(ev.ChatID, nextPrompt, entryMenu())
}

// onGasPhoto завершает цикл ввода; арендатору после этого уходит письмо со счётом
func (h *Handler) onGasPhoto(ctx context.Context, ev Event) (State, error) {
	if err := h.Readings.AttachGasPhoto(ctx, ev.From.ID, ev.PhotoFileID, h.now()); err != nil {
		return GasPhotoEntry, err
	}
	if err := h.reply(ev.ChatID, msgRingDone, MainMenu(h.isOwner(ev))); err != nil {
		return Choosing, err
	}
	h.mailRenterBill(ctx, ev.From.ID)
	return Choosing, nil
}

func (h *Handler) mailRenterBill(ctx context.Context, userID int64) {
	if h.Mailer == nil {
		return
	}
	log := logger.FromContext(ctx, h.log)
	renter, err := h.Users.Renter(ctx)
	if err != nil || renter == nil || renter.ID != userID {
		return
	}
	bill, err := h.Calculator.Calculate(ctx, userID, h.now())
	if err != nil {
		log.Error("renter bill calculation failed", zap.Error(err))
		h.alert(fmt.Sprintf("Не удалось посчитать счет арендатора: %v", err))
		return
	}
	latest, err := h.Readings.Latest(ctx, userID)
	if err != nil {
		log.Error("failed to load latest reading", zap.Error(err))
		return
	}
	if err := h.Mailer.SendBill(ctx, bill, latest); err != nil {
		log.Error("bill email failed", zap.Error(err))
		h.alert(fmt.Sprintf("Не удалось отправить письмо со счетом: %v", err))
	}
}

func (h *Handler) alert(msg string) {
	if h.Notifier != nil {
		h.Notifier.NotifyAdmin(msg)
	}
}

func (h *Handler) reply(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	_, err := h.Bot.Send(msg)
	return err
}

func (h *Handler) replyHTML(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	_, err := h.Bot.Send(msg)
	return err
}
