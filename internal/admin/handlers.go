package admin

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"utility-telegram-bot/internal/db"
	"utility-telegram-bot/internal/logger"
)

const commandPrefix = "/admin_"

type Deps struct {
	Bot    logger.Sender
	Rates  *db.RateStore
	Ledger *db.PaymentLedger
	// Backup — nil, если БД не Postgres
	Backup *Backuper
	Logger *zap.Logger
}

// Handler обрабатывает команды владельца /admin_*
type Handler struct {
	bot    logger.Sender
	rates  *db.RateStore
	ledger *db.PaymentLedger
	backup *Backuper
	log    *zap.Logger
}

func NewHandler(d Deps) *Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{bot: d.Bot, rates: d.Rates, ledger: d.Ledger, backup: d.Backup, log: log}
}

// IsCommand — текст похож на админ-команду
func IsCommand(text string) bool {
	return strings.HasPrefix(text, commandPrefix)
}

// Handle выполняет команду. Проверка, что отправитель — владелец, на вызывающей стороне.
func (h *Handler) Handle(ctx context.Context, chatID, adminID int64, text string) error {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	cmd := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	args := fields[1:]

	var err error
	switch cmd {
	case "admin_rates":
		err = h.handleRates(ctx, chatID, args)
	case "admin_backup":
		err = h.handleBackup(ctx, chatID)
	case "admin_seed":
		err = h.handleSeed(ctx, chatID, args)
	default:
		err = h.reply(chatID, "Команды: /admin_rates <поле> <значение>, /admin_backup, /admin_seed <год> <месяц>")
	}
	logger.LogAdminAction(logger.FromContext(ctx, h.log), adminID, cmd, strings.Join(args, " "))
	return err
}

func (h *Handler) handleRates(ctx context.Context, chatID int64, args []string) error {
	if len(args) != 2 {
		return h.reply(chatID, "Использование: /admin_rates <поле> <значение>\nПоля: "+strings.Join(db.RateFields(), ", "))
	}
	value, err := decimal.NewFromString(strings.Replace(args[1], ",", ".", 1))
	if err != nil {
		return h.reply(chatID, "Ошибка: значение должно быть числом")
	}
	if _, err := h.rates.UpdateField(ctx, args[0], value); err != nil {
		return h.reply(chatID, "Ошибка обновления тарифа: "+err.Error())
	}
	return h.reply(chatID, fmt.Sprintf("Тариф %s обновлён: %s", args[0], value.String()))
}

func (h *Handler) handleBackup(ctx context.Context, chatID int64) error {
	if h.backup == nil {
		return h.reply(chatID, "Резервное копирование доступно только для Postgres")
	}
	filename, err := h.backup.NewDump(ctx, "backup")
	if err != nil {
		h.log.Error("manual backup failed", zap.Error(err))
		return h.reply(chatID, "Ошибка резервного копирования: "+err.Error())
	}
	defer os.Remove(filename)

	file := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(filename))
	file.Caption = "Резервная копия БД успешно создана"
	_, err = h.bot.Send(file)
	return err
}

func (h *Handler) handleSeed(ctx context.Context, chatID int64, args []string) error {
	if len(args) != 2 {
		return h.reply(chatID, "Использование: /admin_seed <год> <месяц>")
	}
	year, errY := strconv.Atoi(args[0])
	month, errM := strconv.Atoi(args[1])
	if errY != nil || errM != nil {
		return h.reply(chatID, "Ошибка: год и месяц должны быть целыми числами")
	}
	created, err := h.ledger.SeedPaid(ctx, year, month)
	if err != nil {
		return h.reply(chatID, "Ошибка: "+err.Error())
	}
	return h.reply(chatID, fmt.Sprintf("Отмечено оплаченными: %d (по %02d.%d включительно)", created, month, year))
}

func (h *Handler) reply(chatID int64, text string) error {
	_, err := h.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
